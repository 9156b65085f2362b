package interview

import "time"

// Feedback is the evaluator output. Raw is shown verbatim; Score and Summary
// are best-effort extractions and may be empty.
type Feedback struct {
	Raw         string    `json:"raw"`
	Score       *int      `json:"score,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}
