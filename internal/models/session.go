package models

import "time"

// ExperienceLevel describes the seniority the interview targets
type ExperienceLevel string

const (
	LevelJunior ExperienceLevel = "junior"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

// InterviewConfig is the immutable per-session configuration set at
// creation. The orchestrator never mutates it after Start.
type InterviewConfig struct {
	Role              string          `json:"role"`
	ExperienceLevel   ExperienceLevel `json:"experience_level"`
	TechStack         []string        `json:"tech_stack,omitempty"`
	InitialDifficulty int             `json:"initial_difficulty"`
	Strictness        int             `json:"communication_strictness"` // 1 (lenient) .. 5 (strict)
	StageQuotas       map[Stage]int   `json:"stage_quotas,omitempty"`
	Weights           Weights         `json:"weights"`
}

// Normalize fills unset fields with defaults and bounds the tunables
func (c *InterviewConfig) Normalize() {
	if c.ExperienceLevel == "" {
		c.ExperienceLevel = LevelMid
	}
	if c.InitialDifficulty < 1 || c.InitialDifficulty > 5 {
		c.InitialDifficulty = 3
	}
	if c.Strictness < 1 || c.Strictness > 5 {
		c.Strictness = 3
	}
	if c.Weights.IsZero() {
		c.Weights = DefaultWeights()
	}
	quotas := DefaultStageQuotas()
	for stage, n := range c.StageQuotas {
		if stage.Valid() && n >= 0 {
			quotas[stage] = n
		}
	}
	quotas[StageFeedback] = 0
	c.StageQuotas = quotas
}

// Quota returns the answered-turn quota for a stage
func (c *InterviewConfig) Quota(stage Stage) int {
	if n, ok := c.StageQuotas[stage]; ok {
		return n
	}
	return 1
}

// Session is the root aggregate for one interview. It owns its turns,
// memory and report for its whole lifetime and is mutated only through
// the orchestrator.
type Session struct {
	ID         string          `json:"id"`
	Stage      Stage           `json:"stage"`
	Config     InterviewConfig `json:"config"`
	Difficulty int             `json:"difficulty"`
	Turns      []*Turn         `json:"turns"`
	Memory     MemoryProfile   `json:"memory"`
	Report     *Report         `json:"report,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	CreatedBy  string          `json:"created_by,omitempty"`
}

// PendingTurn returns the most recently asked, still unanswered turn
func (s *Session) PendingTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	last := s.Turns[len(s.Turns)-1]
	if last.Answered() {
		return nil
	}
	return last
}

// AnsweredInStage counts finalized turns asked while in the given stage
func (s *Session) AnsweredInStage(stage Stage) int {
	n := 0
	for _, t := range s.Turns {
		if t.StageAtAsk == stage && t.Answered() {
			n++
		}
	}
	return n
}

// RecentAggregates returns the aggregates of the last k answered turns,
// oldest first
func (s *Session) RecentAggregates(k int) []float64 {
	var all []float64
	for _, t := range s.Turns {
		if t.Answered() {
			all = append(all, t.Evaluation.Aggregate)
		}
	}
	if len(all) > k {
		all = all[len(all)-k:]
	}
	return all
}

// IsExpired checks whether the session TTL has elapsed
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Touch pushes the expiry out by ttl from now
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	s.UpdatedAt = now
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
}

// Summary is the compact view of a session returned by status endpoints
type Summary struct {
	ID           string    `json:"id"`
	Stage        Stage     `json:"stage"`
	Role         string    `json:"role"`
	Difficulty   int       `json:"difficulty"`
	TurnsAsked   int       `json:"turns_asked"`
	TurnsScored  int       `json:"turns_scored"`
	AverageScore float64   `json:"average_score"`
	Complete     bool      `json:"complete"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired checks whether the summarized session's TTL has elapsed
func (s Summary) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Summarize builds the status summary for the session
func (s *Session) Summarize() Summary {
	sum := Summary{
		ID:         s.ID,
		Stage:      s.Stage,
		Role:       s.Config.Role,
		Difficulty: s.Difficulty,
		TurnsAsked: len(s.Turns),
		Complete:   s.Stage.IsTerminal(),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
	total := 0.0
	for _, t := range s.Turns {
		if t.Answered() {
			sum.TurnsScored++
			total += t.Evaluation.Aggregate
		}
	}
	if sum.TurnsScored > 0 {
		sum.AverageScore = total / float64(sum.TurnsScored)
	}
	return sum
}
