package models

import "time"

// Evaluation holds the five dimension scores for a single answer.
// All scores are clamped to [0,100]. Aggregate is the weighted combination
// of the five dimensions under the session's configured weights.
type Evaluation struct {
	Technical     int     `json:"technical"`
	Reasoning     int     `json:"reasoning"`
	Communication int     `json:"communication"`
	Structure     int     `json:"structure"`
	Confidence    int     `json:"confidence"`
	Aggregate     float64 `json:"aggregate"`
	Feedback      string  `json:"feedback,omitempty"`
}

// ClampScore bounds a dimension score to [0,100]
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Clamp bounds every dimension of the evaluation to [0,100]
func (e *Evaluation) Clamp() {
	e.Technical = ClampScore(e.Technical)
	e.Reasoning = ClampScore(e.Reasoning)
	e.Communication = ClampScore(e.Communication)
	e.Structure = ClampScore(e.Structure)
	e.Confidence = ClampScore(e.Confidence)
}

// Weights defines the relative contribution of each dimension to the
// aggregate score. Zero-value weights fall back to equal weighting.
type Weights struct {
	Technical     float64 `json:"technical"`
	Reasoning     float64 `json:"reasoning"`
	Communication float64 `json:"communication"`
	Structure     float64 `json:"structure"`
	Confidence    float64 `json:"confidence"`
}

// DefaultWeights returns equal weighting across the five dimensions
func DefaultWeights() Weights {
	return Weights{
		Technical:     1,
		Reasoning:     1,
		Communication: 1,
		Structure:     1,
		Confidence:    1,
	}
}

// Total returns the sum of all weights
func (w Weights) Total() float64 {
	return w.Technical + w.Reasoning + w.Communication + w.Structure + w.Confidence
}

// IsZero reports whether no weight has been set
func (w Weights) IsZero() bool {
	return w.Total() == 0
}

// Apply computes the weighted aggregate of the evaluation's dimensions.
// The result is always within [0,100] because every dimension is.
func (w Weights) Apply(e Evaluation) float64 {
	if w.IsZero() {
		w = DefaultWeights()
	}
	sum := w.Technical*float64(e.Technical) +
		w.Reasoning*float64(e.Reasoning) +
		w.Communication*float64(e.Communication) +
		w.Structure*float64(e.Structure) +
		w.Confidence*float64(e.Confidence)
	return sum / w.Total()
}

// Turn is one question/answer exchange. A turn exists in "asked" state
// until the candidate submits an answer; AnswerText and Evaluation are set
// together by the pipeline, never independently.
type Turn struct {
	QuestionText    string      `json:"question_text"`
	Topic           string      `json:"topic,omitempty"`
	StageAtAsk      Stage       `json:"stage_at_ask"`
	DifficultyAtAsk int         `json:"difficulty_at_ask"`
	AskedAt         time.Time   `json:"asked_at"`
	AnswerText      string      `json:"answer_text,omitempty"`
	AnsweredAt      *time.Time  `json:"answered_at,omitempty"`
	Evaluation      *Evaluation `json:"evaluation,omitempty"`
	Flags           []string    `json:"communication_flags,omitempty"`
}

// Answered reports whether the turn has been finalized
func (t *Turn) Answered() bool {
	return t.Evaluation != nil
}
