package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/terra-clan/interview-engine/internal/models"
)

func testConfig() models.InterviewConfig {
	cfg := models.InterviewConfig{
		Role:      "Backend Engineer",
		TechStack: []string{"Go", "PostgreSQL"},
	}
	cfg.Normalize()
	return cfg
}

func TestSynthesizedQuestionsNeverFail(t *testing.T) {
	g := NewBankGenerator(nil)
	ctx := context.Background()

	seen := make(map[models.Stage]string)
	for _, stage := range models.StageOrder[:len(models.StageOrder)-1] {
		q, err := g.Generate(ctx, GenerateRequest{Stage: stage, Config: testConfig(), Difficulty: 3})
		if err != nil {
			t.Fatalf("stage %s: generation must not fail, got %v", stage, err)
		}
		if q.Text == "" || q.Topic == "" {
			t.Errorf("stage %s: empty question or topic", stage)
		}
		seen[stage] = q.Text
	}

	if seen[models.StagePressureRound] == seen[models.StageWarmup] {
		t.Error("pressure and warmup questions should differ")
	}
}

func TestSynthesizedQuestionDeterministic(t *testing.T) {
	g := NewBankGenerator(nil)
	ctx := context.Background()
	req := GenerateRequest{Stage: models.StageCoreQuestions, Config: testConfig(), Difficulty: 3}

	a, _ := g.Generate(ctx, req)
	b, _ := g.Generate(ctx, req)
	if a != b {
		t.Errorf("same request should produce the same question: %q vs %q", a.Text, b.Text)
	}
}

func TestHeuristicEvaluatorBounds(t *testing.T) {
	e := NewHeuristicEvaluator(nil)
	ctx := context.Background()

	answers := []string{
		"",
		"yes",
		"First, I would profile the service with pprof. Second, I would check the database for slow queries. Finally, I would add caching because the hot path is read-heavy.",
		strings.Repeat("words and more words ", 100),
	}

	for _, answer := range answers {
		eval, err := e.Evaluate(ctx, EvaluateRequest{
			Question: "How would you debug a slow service?",
			Topic:    "golang",
			Answer:   answer,
			Config:   testConfig(),
		})
		if err != nil {
			t.Fatalf("heuristic evaluation must not fail, got %v", err)
		}
		for name, score := range map[string]int{
			"technical":     eval.Technical,
			"reasoning":     eval.Reasoning,
			"communication": eval.Communication,
			"structure":     eval.Structure,
			"confidence":    eval.Confidence,
		} {
			if score < 0 || score > 100 {
				t.Errorf("answer %q: %s score %d out of range", answer[:min(20, len(answer))], name, score)
			}
		}
	}
}

func TestHeuristicEvaluatorRewardsStructure(t *testing.T) {
	e := NewHeuristicEvaluator(nil)
	ctx := context.Background()
	req := EvaluateRequest{Question: "q", Topic: "golang", Config: testConfig()}

	req.Answer = "First, I check the logs. Second, I profile with pprof. Finally, I fix the allocation in the Go hot path."
	structured, _ := e.Evaluate(ctx, req)

	req.Answer = "stuff happens and it gets fixed somehow eventually yeah"
	rambly, _ := e.Evaluate(ctx, req)

	if structured.Structure <= rambly.Structure {
		t.Errorf("structured answer should score higher on structure: %d vs %d", structured.Structure, rambly.Structure)
	}
	if structured.Technical <= rambly.Technical {
		t.Errorf("answer using the tech stack should score higher on technical: %d vs %d", structured.Technical, rambly.Technical)
	}
}

func TestRuleAnalyzerFlags(t *testing.T) {
	a := NewRuleAnalyzer()
	ctx := context.Background()

	flags, err := a.Analyze(ctx, "ok", 3)
	if err != nil {
		t.Fatalf("analyzer must not fail, got %v", err)
	}
	if !contains(flags, FlagTooShort) {
		t.Errorf("expected too_short flag, got %v", flags)
	}

	long := strings.Repeat("word ", 500)
	flags, _ = a.Analyze(ctx, long, 3)
	if !contains(flags, FlagRambling) {
		t.Errorf("expected rambling flag for 500 tokens, got %v", flags)
	}
	if !contains(flags, FlagLackOfStructure) {
		t.Errorf("expected lack_of_structure for markerless wall of text, got %v", flags)
	}

	hedged := "i think maybe probably i guess not sure i believe it works, kind of"
	flags, _ = a.Analyze(ctx, hedged, 5)
	if !contains(flags, FlagHedging) {
		t.Errorf("expected hedging flag at strictness 5, got %v", flags)
	}

	clean := "First, the handler parses the request. Then the service validates it. Finally, the repository persists it."
	flags, _ = a.Analyze(ctx, clean, 3)
	if len(flags) != 0 {
		t.Errorf("clean structured answer should carry no flags, got %v", flags)
	}
}

func TestRuleAnalyzerStrictnessShrinksCeiling(t *testing.T) {
	a := NewRuleAnalyzer()
	ctx := context.Background()

	// 250 tokens: over the strict ceiling (200), under the lenient one (360)
	answer := "first " + strings.Repeat("word ", 249)

	flags, _ := a.Analyze(ctx, answer, 1)
	if contains(flags, FlagRambling) {
		t.Errorf("lenient strictness should tolerate 250 tokens, got %v", flags)
	}

	flags, _ = a.Analyze(ctx, answer, 5)
	if !contains(flags, FlagRambling) {
		t.Errorf("strict strictness should flag 250 tokens, got %v", flags)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
