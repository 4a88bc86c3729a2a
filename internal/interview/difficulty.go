package interview

// DifficultyPolicy holds the tunables for difficulty adaptation
type DifficultyPolicy struct {
	// Window is the number of trailing aggregates considered (K)
	Window int
	// RaiseAt is the rolling average at or above which difficulty goes up
	RaiseAt float64
	// LowerAt is the rolling average at or below which difficulty goes down
	LowerAt float64
}

// DefaultDifficultyPolicy returns the standard adaptation thresholds
func DefaultDifficultyPolicy() DifficultyPolicy {
	return DifficultyPolicy{Window: 3, RaiseAt: 80, LowerAt: 40}
}

// NextDifficulty computes the difficulty for the next question from the
// trailing window of evaluation aggregates. Pure function: same history
// and current difficulty always give the same answer. Holds until the
// window is full so single noisy turns cannot cause oscillation, and
// never moves more than one level per turn.
func NextDifficulty(history []float64, current int, p DifficultyPolicy) int {
	if p.Window <= 0 {
		p = DefaultDifficultyPolicy()
	}
	if len(history) < p.Window {
		return clampDifficulty(current)
	}

	window := history[len(history)-p.Window:]
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(len(window))

	switch {
	case avg >= p.RaiseAt:
		return clampDifficulty(current + 1)
	case avg <= p.LowerAt:
		return clampDifficulty(current - 1)
	default:
		return clampDifficulty(current)
	}
}

func clampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}
