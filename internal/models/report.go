package models

import "time"

// Recommendation is the hiring tier derived from the overall score
type Recommendation string

const (
	RecommendStrongHire Recommendation = "strong_hire"
	RecommendHire       Recommendation = "hire"
	RecommendLeanHire   Recommendation = "lean_hire"
	RecommendNoHire     Recommendation = "no_hire"
)

// Tier thresholds on the overall weighted score
const (
	StrongHireThreshold = 85.0
	HireThreshold       = 70.0
	LeanHireThreshold   = 50.0
)

// RecommendationFor maps an overall score to a hiring tier
func RecommendationFor(overall float64) Recommendation {
	switch {
	case overall >= StrongHireThreshold:
		return RecommendStrongHire
	case overall >= HireThreshold:
		return RecommendHire
	case overall >= LeanHireThreshold:
		return RecommendLeanHire
	default:
		return RecommendNoHire
	}
}

// DimensionAverages holds per-dimension means across all answered turns
type DimensionAverages struct {
	Technical     float64 `json:"technical"`
	Reasoning     float64 `json:"reasoning"`
	Communication float64 `json:"communication"`
	Structure     float64 `json:"structure"`
	Confidence    float64 `json:"confidence"`
}

// Report is the final interview assessment. Created once when the session
// enters feedback, never mutated afterwards.
type Report struct {
	SessionID      string            `json:"session_id"`
	OverallScore   float64           `json:"overall_score"`
	Dimensions     DimensionAverages `json:"dimensions"`
	Recommendation Recommendation    `json:"recommendation"`
	Summary        string            `json:"summary"`
	WeakTopics     []string          `json:"weak_topics"`
	StrongTopics   []string          `json:"strong_topics"`
	Trend          Trend             `json:"performance_trend"`
	FlagCounts     map[string]int    `json:"flag_counts,omitempty"`
	TurnCount      int               `json:"turn_count"`
	GeneratedAt    time.Time         `json:"generated_at"`
}
