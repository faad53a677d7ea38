package models

import "time"

type LabelCount struct {
	Label   string  `json:"label" dynamodbav:"label"`
	Count   int     `json:"count" dynamodbav:"count"`
	Percent float64 `json:"percent" dynamodbav:"percent"`
}

type GroupSummary struct {
	Group           string  `json:"group" dynamodbav:"group"`
	Total           int     `json:"total" dynamodbav:"total"`
	PositivePercent float64 `json:"positive_percent" dynamodbav:"positive_percent"`
	NegativePercent float64 `json:"negative_percent" dynamodbav:"negative_percent"`
}

// Summary is derived from a label column; it is recomputed on demand and never
// treated as primary state.
type Summary struct {
	Total        int            `json:"total" dynamodbav:"total"`
	Distribution []LabelCount   `json:"distribution" dynamodbav:"distribution"`
	Groups       []GroupSummary `json:"groups,omitempty" dynamodbav:"groups,omitempty"`
}

// RunSummary describes one combined pipeline run.
type RunSummary struct {
	RunID         string             `json:"run_id" dynamodbav:"run_id"`
	InputPath     string             `json:"input_path" dynamodbav:"input_path"`
	Rows          int                `json:"rows" dynamodbav:"rows"`
	Backends      map[string]Summary `json:"backends" dynamodbav:"backends"`
	AgreementRate float64            `json:"agreement_rate" dynamodbav:"agreement_rate"`
	CreatedAt     time.Time          `json:"created_at" dynamodbav:"created_at"`
}
