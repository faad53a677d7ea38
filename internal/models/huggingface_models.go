package models

type InferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters InferenceParameters `json:"parameters"`
	Options    InferenceOptions    `json:"options"`
}

// InferenceParameters are forwarded to the hosted pipeline's tokenizer.
type InferenceParameters struct {
	Truncation bool `json:"truncation"`
	MaxLength  int  `json:"max_length,omitempty"`
}

type InferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type ClassificationScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type InferenceError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}
