package models

import "strings"

type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
	LabelNeutral  Label = "NEUTRAL"
)

// NormalizeLabel uppercases a backend-native label, e.g. "positive" or
// "Positive" become POSITIVE.
func NormalizeLabel(raw string) Label {
	return Label(strings.ToUpper(strings.TrimSpace(raw)))
}

// Result is the per-text output shared by both backends. Label and Score are
// always set; Lexicon is only filled by the lexicon backend.
type Result struct {
	Label    Label          `json:"label"`
	Score    float64        `json:"score"`
	Lexicon  *LexiconScores `json:"lexicon,omitempty"`
	Fallback bool           `json:"fallback,omitempty"`
}

// LexiconScores keeps the raw polarity components behind a lexicon result.
type LexiconScores struct {
	Compound   float64 `json:"compound"`
	Positive   float64 `json:"pos"`
	Negative   float64 `json:"neg"`
	Neutral    float64 `json:"neu"`
	Confidence float64 `json:"confidence"`
}

// NeutralResult is returned for empty or missing text.
func NeutralResult() Result {
	return Result{Label: LabelNeutral, Score: 0.0}
}
