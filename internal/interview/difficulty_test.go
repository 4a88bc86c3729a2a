package interview

import "testing"

func TestNextDifficultyHoldsUntilWindowFull(t *testing.T) {
	p := DefaultDifficultyPolicy()

	if got := NextDifficulty(nil, 3, p); got != 3 {
		t.Errorf("empty history should hold, got %d", got)
	}
	if got := NextDifficulty([]float64{95, 95}, 3, p); got != 3 {
		t.Errorf("two strong turns should still hold with window 3, got %d", got)
	}
}

func TestNextDifficultyRaises(t *testing.T) {
	p := DefaultDifficultyPolicy()

	// Average 87.67 over the window
	if got := NextDifficulty([]float64{85, 88, 90}, 3, p); got != 4 {
		t.Errorf("expected raise to 4, got %d", got)
	}

	// Only the trailing window counts
	if got := NextDifficulty([]float64{10, 10, 85, 88, 90}, 3, p); got != 4 {
		t.Errorf("expected trailing window raise to 4, got %d", got)
	}
}

func TestNextDifficultyLowers(t *testing.T) {
	p := DefaultDifficultyPolicy()

	if got := NextDifficulty([]float64{30, 40, 35}, 3, p); got != 2 {
		t.Errorf("expected lower to 2, got %d", got)
	}
}

func TestNextDifficultyHoldsInBand(t *testing.T) {
	p := DefaultDifficultyPolicy()

	if got := NextDifficulty([]float64{60, 65, 70}, 3, p); got != 3 {
		t.Errorf("mid-band average should hold, got %d", got)
	}
}

func TestNextDifficultyClamps(t *testing.T) {
	p := DefaultDifficultyPolicy()

	if got := NextDifficulty([]float64{95, 95, 95}, 5, p); got != 5 {
		t.Errorf("difficulty must not exceed 5, got %d", got)
	}
	if got := NextDifficulty([]float64{10, 10, 10}, 1, p); got != 1 {
		t.Errorf("difficulty must not drop below 1, got %d", got)
	}
}

func TestNextDifficultyMovesOneStep(t *testing.T) {
	p := DefaultDifficultyPolicy()

	// However extreme the scores, one turn moves one level
	if got := NextDifficulty([]float64{100, 100, 100}, 2, p); got != 3 {
		t.Errorf("expected single-step raise to 3, got %d", got)
	}
	if got := NextDifficulty([]float64{0, 0, 0}, 4, p); got != 3 {
		t.Errorf("expected single-step lower to 3, got %d", got)
	}
}

func TestNextDifficultyIsPure(t *testing.T) {
	p := DefaultDifficultyPolicy()
	history := []float64{85, 88, 90}

	first := NextDifficulty(history, 3, p)
	for i := 0; i < 10; i++ {
		if got := NextDifficulty(history, 3, p); got != first {
			t.Fatalf("same inputs gave different outputs: %d vs %d", first, got)
		}
	}
}
