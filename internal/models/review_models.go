package models

import "time"

// Bank is one row of the banks table.
type Bank struct {
	ID    int
	Code  string
	Name  string
	AppID string
}

// Review is an analyzed review ready to be stored. Pointer fields are NULL
// when the source column is missing or unparsable.
type Review struct {
	BankID                   int
	BankName                 string
	ReviewText               string
	Rating                   *int
	ReviewDate               *time.Time
	SentimentLabelVader      *string
	SentimentScoreVader      *float64
	SentimentLabelDistilbert *string
	SentimentScoreDistilbert *float64
	Themes                   *string
	PrimaryTheme             *string
	Source                   string
}

// AnalyzedReview is the message published for each row after a pipeline run.
type AnalyzedReview struct {
	RunID      string            `json:"run_id"`
	Row        int               `json:"row"`
	BankName   string            `json:"bank_name,omitempty"`
	ReviewText string            `json:"review_text"`
	Sentiment  map[string]Result `json:"sentiment"`
	Timestamp  time.Time         `json:"timestamp"`
}
