package interview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/providers"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// fakeGenerator produces numbered questions, or a fixed text when set
type fakeGenerator struct {
	mu    sync.Mutex
	n     int
	fixed string
}

func (g *fakeGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (providers.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.fixed != "" {
		return providers.Question{Text: g.fixed, Topic: "golang"}, nil
	}
	return providers.Question{Text: fmt.Sprintf("question number %d", g.n), Topic: "golang"}, nil
}

// fakeEvaluator scores every dimension with the next value in sequence,
// repeating the last value when the sequence runs out
type fakeEvaluator struct {
	mu     sync.Mutex
	scores []int
	i      int
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, req providers.EvaluateRequest) (models.Evaluation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	score := 70
	if len(e.scores) > 0 {
		if e.i >= len(e.scores) {
			score = e.scores[len(e.scores)-1]
		} else {
			score = e.scores[e.i]
		}
		e.i++
	}
	return models.Evaluation{
		Technical:     score,
		Reasoning:     score,
		Communication: score,
		Structure:     score,
		Confidence:    score,
	}, nil
}

type fakeAnalyzer struct {
	flags []string
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, answer string, strictness int) ([]string, error) {
	return a.flags, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, set providers.Set) *Orchestrator {
	t.Helper()
	if set.Generator == nil {
		set.Generator = &fakeGenerator{}
	}
	if set.Evaluator == nil {
		set.Evaluator = &fakeEvaluator{}
	}
	if set.Analyzer == nil {
		set.Analyzer = &fakeAnalyzer{}
	}
	return NewOrchestrator(storage.NewMemoryRepository(), nil, set, DefaultSettings(), testLogger())
}

func startSession(t *testing.T, o *Orchestrator) *models.Session {
	t.Helper()
	s, err := o.Start(context.Background(), models.InterviewConfig{Role: "Backend Engineer"}, "tester")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return s
}

func TestFullInterviewFlow(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)
	if s.Stage != models.StageIntro {
		t.Fatalf("new session should be in intro, got %s", s.Stage)
	}
	if s.PendingTurn() == nil {
		t.Fatal("new session should have a pending question")
	}

	// Default quotas: 1+1+3+2+1+1 answers reach feedback
	wantStages := []models.Stage{
		models.StageWarmup,
		models.StageCoreQuestions,
		models.StageCoreQuestions,
		models.StageCoreQuestions,
		models.StagePressureRound,
		models.StagePressureRound,
		models.StageCommunicationTest,
		models.StageClosing,
		models.StageFeedback,
	}

	var last *TurnResult
	for i, want := range wantStages {
		result, err := o.SubmitAnswer(ctx, s.ID, "my answer with first, second and finally some structure")
		if err != nil {
			t.Fatalf("answer %d failed: %v", i+1, err)
		}
		if result.Stage != want {
			t.Fatalf("after answer %d expected stage %s, got %s", i+1, want, result.Stage)
		}
		last = result
	}

	if !last.Complete {
		t.Error("final turn should mark the interview complete")
	}
	if last.NextQuestion != nil {
		t.Error("no question should follow completion")
	}

	report, err := o.GetReport(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if report.TurnCount != 9 {
		t.Errorf("expected 9 scored turns, got %d", report.TurnCount)
	}
	if report.Recommendation != models.RecommendHire {
		t.Errorf("uniform 70s should recommend hire, got %s", report.Recommendation)
	}

	// The stored report is authoritative and stable
	again, err := o.GetReport(ctx, s.ID)
	if err != nil {
		t.Fatalf("second GetReport failed: %v", err)
	}
	if !again.GeneratedAt.Equal(report.GeneratedAt) || again.Summary != report.Summary {
		t.Error("repeated report fetches must return the identical document")
	}

	// Submissions after completion are rejected without changing state
	if _, err := o.SubmitAnswer(ctx, s.ID, "one more"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState after completion, got %v", err)
	}
	final, err := o.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(final.Turns) != 9 {
		t.Errorf("rejected submission must not add turns, got %d", len(final.Turns))
	}
}

func TestDifficultyAdaptsDuringInterview(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{
		Evaluator: &fakeEvaluator{scores: []int{85, 88, 90, 90}},
	})
	ctx := context.Background()

	s := startSession(t, o)
	if s.Difficulty != 3 {
		t.Fatalf("expected initial difficulty 3, got %d", s.Difficulty)
	}

	var difficulties []int
	for i := 0; i < 4; i++ {
		result, err := o.SubmitAnswer(ctx, s.ID, "a strong answer")
		if err != nil {
			t.Fatalf("answer %d failed: %v", i+1, err)
		}
		difficulties = append(difficulties, result.Difficulty)
	}

	// The window holds two turns, fills at the third, then raises one
	// level per qualifying turn
	if difficulties[0] != 3 || difficulties[1] != 3 {
		t.Errorf("difficulty should hold before the window fills, got %v", difficulties)
	}
	if difficulties[2] != 4 {
		t.Errorf("expected raise to 4 on the third turn, got %v", difficulties)
	}
	if difficulties[3] != 5 {
		t.Errorf("expected raise to 5 on the fourth turn, got %v", difficulties)
	}
}

func TestCommunicationFlagPenalty(t *testing.T) {
	// Duplicate flags count once; two unique flags at strictness 3 with
	// penalty 3 deduct 18 from communication
	o := newTestOrchestrator(t, providers.Set{
		Analyzer: &fakeAnalyzer{flags: []string{"rambling", "rambling", "hedging"}},
	})
	ctx := context.Background()

	s := startSession(t, o)
	result, err := o.SubmitAnswer(ctx, s.ID, "an answer")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	if len(result.Turn.Flags) != 2 {
		t.Errorf("expected 2 deduped flags, got %v", result.Turn.Flags)
	}
	if result.Turn.Evaluation.Communication != 52 {
		t.Errorf("expected communication 70-18=52, got %d", result.Turn.Evaluation.Communication)
	}
	if result.Turn.Evaluation.Technical != 70 {
		t.Errorf("flags must not touch other dimensions, got technical %d", result.Turn.Evaluation.Technical)
	}
}

func TestFlagPenaltyFloorsAtZero(t *testing.T) {
	o := NewOrchestrator(storage.NewMemoryRepository(), nil, providers.Set{
		Generator: &fakeGenerator{},
		Evaluator: &fakeEvaluator{scores: []int{10}},
		Analyzer:  &fakeAnalyzer{flags: []string{"rambling", "hedging", "lack_of_structure"}},
	}, DefaultSettings(), testLogger())
	ctx := context.Background()

	s := startSession(t, o)
	result, err := o.SubmitAnswer(ctx, s.ID, "an answer")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	if result.Turn.Evaluation.Communication != 0 {
		t.Errorf("communication must floor at 0, got %d", result.Turn.Evaluation.Communication)
	}
}

func TestSubmitAnswerBusy(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)

	release, err := o.acquire(s.ID)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	if _, err := o.SubmitAnswer(ctx, s.ID, "answer"); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy while a turn is in flight, got %v", err)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)

	if _, err := o.SubmitAnswer(ctx, s.ID, "   "); err == nil {
		t.Error("blank answers must be rejected")
	}
	if _, err := o.SubmitAnswer(ctx, "missing-id", "answer"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestGetReportBeforeCompletion(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)

	if _, err := o.GetReport(ctx, s.ID); !errors.Is(err, ErrIncompleteSession) {
		t.Errorf("expected ErrIncompleteSession, got %v", err)
	}
}

func TestQuestionRegenerationOnRepeat(t *testing.T) {
	// A generator stuck on one question exhausts the retry budget and the
	// duplicate is accepted so the interview keeps moving
	gen := &fakeGenerator{fixed: "the same question every time"}
	o := newTestOrchestrator(t, providers.Set{Generator: gen})
	ctx := context.Background()

	s := startSession(t, o)
	result, err := o.SubmitAnswer(ctx, s.ID, "answer")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if result.NextQuestion == nil {
		t.Fatal("expected a next question despite the repeat")
	}

	// One Start call plus retries, then 1 + budget + 1 for the second ask
	settings := DefaultSettings()
	if gen.n != 1+settings.RegenerateRetries+1 {
		t.Errorf("expected %d generation attempts, got %d", 1+settings.RegenerateRetries+1, gen.n)
	}
}

func TestNoRepeatQuestionsAcrossInterview(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)
	for i := 0; i < 9; i++ {
		if _, err := o.SubmitAnswer(ctx, s.ID, "answer"); err != nil {
			t.Fatalf("answer %d failed: %v", i+1, err)
		}
	}

	final, err := o.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, turn := range final.Turns {
		fp := models.Fingerprint(turn.QuestionText)
		if seen[fp] {
			t.Errorf("question repeated: %q", turn.QuestionText)
		}
		seen[fp] = true
	}
}

func TestPipelineFallsBackOnTransientFailures(t *testing.T) {
	// A primary that always fails transiently must never surface an error
	// because the deterministic fallback completes the turn
	failing := &transientProviders{}
	set := providers.NewResilientSet(
		providers.Set{Generator: failing, Evaluator: failing, Analyzer: failing},
		providers.Set{Generator: &fakeGenerator{}, Evaluator: &fakeEvaluator{}, Analyzer: &fakeAnalyzer{}},
		providers.RetryPolicy{Attempts: 2},
		testLogger(),
	)
	o := NewOrchestrator(storage.NewMemoryRepository(), nil, set, DefaultSettings(), testLogger())
	ctx := context.Background()

	s := startSession(t, o)
	result, err := o.SubmitAnswer(ctx, s.ID, "answer")
	if err != nil {
		t.Fatalf("turn should complete via fallback, got %v", err)
	}
	if result.Turn.Evaluation == nil {
		t.Fatal("fallback evaluation missing")
	}
	if result.Turn.Evaluation.Aggregate <= 0 || result.Turn.Evaluation.Aggregate > 100 {
		t.Errorf("fallback aggregate out of range: %.1f", result.Turn.Evaluation.Aggregate)
	}
}

type transientProviders struct{}

func (p *transientProviders) Generate(ctx context.Context, req providers.GenerateRequest) (providers.Question, error) {
	return providers.Question{}, fmt.Errorf("%w: upstream timeout", providers.ErrTransient)
}

func (p *transientProviders) Evaluate(ctx context.Context, req providers.EvaluateRequest) (models.Evaluation, error) {
	return models.Evaluation{}, fmt.Errorf("%w: upstream timeout", providers.ErrTransient)
}

func (p *transientProviders) Analyze(ctx context.Context, answer string, strictness int) ([]string, error) {
	return nil, fmt.Errorf("%w: upstream timeout", providers.ErrTransient)
}

func TestFlagCountsAccumulateIntoReport(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{
		Analyzer: &fakeAnalyzer{flags: []string{"hedging"}},
	})
	ctx := context.Background()

	s := startSession(t, o)
	for i := 0; i < 9; i++ {
		if _, err := o.SubmitAnswer(ctx, s.ID, "answer"); err != nil {
			t.Fatalf("answer %d failed: %v", i+1, err)
		}
	}

	report, err := o.GetReport(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if report.FlagCounts["hedging"] != 9 {
		t.Errorf("expected hedging flagged on all 9 turns, got %v", report.FlagCounts)
	}
	// Uniform scores must not read as a trend
	if report.Trend != models.TrendStable {
		t.Errorf("expected stable trend for uniform scores, got %s", report.Trend)
	}
}

func TestRecoversWhenPendingQuestionMissing(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)

	// Simulate a generation failure that landed after a turn finalized:
	// the stored session has only answered turns and nothing pending
	stored, err := o.repo.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	now := time.Now()
	last := stored.Turns[len(stored.Turns)-1]
	last.AnswerText = "a"
	last.AnsweredAt = &now
	last.Evaluation = &models.Evaluation{Aggregate: 70}
	if err := o.repo.UpdateSession(ctx, stored); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	if _, err := o.SubmitAnswer(ctx, s.ID, "answer"); !errors.Is(err, ErrNoPendingQuestion) {
		t.Fatalf("expected ErrNoPendingQuestion, got %v", err)
	}

	// The rejection must have restored a pending question
	healed, err := o.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if healed.PendingTurn() == nil {
		t.Fatal("a fresh question should have been asked")
	}
	if _, err := o.SubmitAnswer(ctx, s.ID, "answer"); err != nil {
		t.Fatalf("session should accept answers again, got %v", err)
	}
}

func TestStatusExpiredSession(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)

	stored, err := o.repo.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	stored.ExpiresAt = time.Now().Add(-time.Minute)
	if err := o.repo.UpdateSession(ctx, stored); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	if _, err := o.Status(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for an expired session, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	s := startSession(t, o)
	if err := o.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := o.Get(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := o.Delete(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	o := newTestOrchestrator(t, providers.Set{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		startSession(t, o)
	}

	summaries, err := o.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(summaries))
	}

	page, err := o.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected page of 2, got %d", len(page))
	}
}
