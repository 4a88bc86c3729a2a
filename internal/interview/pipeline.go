package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/providers"
)

// SubmitAnswer runs the full turn pipeline for one answer: score it,
// analyze it, fold it into memory, adapt difficulty, advance the stage,
// and ask the next question or close out with the report. The session is
// persisted exactly once, after the turn is fully applied, so a crash
// mid-pipeline loses the turn rather than half-applying it.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, id, answer string) (*TurnResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrNoPendingQuestion)
	}

	release, err := o.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	s, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Stage.IsTerminal() {
		return nil, fmt.Errorf("%w: interview already complete", ErrInvalidState)
	}

	// The turn must complete even if the client goes away mid-pipeline;
	// a caller-cancelled context must not leave the session half-updated.
	ctx = context.WithoutCancel(ctx)

	turn := s.PendingTurn()
	if turn == nil {
		// A non-terminal session with no pending question means a previous
		// generation attempt failed after its turn finalized. Ask a fresh
		// question so the session recovers; the caller re-fetches it.
		o.logger.Warn("session has no pending question, re-asking", "id", s.ID, "stage", s.Stage)
		if _, askErr := o.askQuestion(ctx, s); askErr != nil {
			return nil, fmt.Errorf("failed to restore pending question: %w", askErr)
		}
		s.Touch(o.settings.SessionTTL)
		if err := o.repo.UpdateSession(ctx, s); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		return nil, ErrNoPendingQuestion
	}

	eval, flags, err := o.scoreAnswer(ctx, s, turn, answer)
	if err != nil {
		return nil, err
	}

	// Finalize the turn in one step: answer, evaluation and flags land
	// together or not at all.
	now := time.Now().UTC()
	turn.AnswerText = answer
	turn.AnsweredAt = &now
	turn.Evaluation = eval
	turn.Flags = flags

	s.Memory.RecordTopicScore(turn.Topic, eval.Aggregate)
	s.Memory.RecordFlags(flags)
	s.Memory.RecomputeTopicSets()

	s.Difficulty = NextDifficulty(s.RecentAggregates(o.settings.Difficulty.Window), s.Difficulty, o.settings.Difficulty)

	stage, advanced := advanceStage(s)
	if advanced {
		o.logger.Info("stage advanced", "id", s.ID, "stage", stage, "difficulty", s.Difficulty)
	}

	result := &TurnResult{
		Turn:       turn,
		Stage:      s.Stage,
		Difficulty: s.Difficulty,
		Complete:   s.Stage.IsTerminal(),
	}

	if s.Stage.IsTerminal() {
		if s.Report == nil {
			s.Report = buildReport(s)
			o.cache.StoreReport(ctx, s.ID, s.Report)
			o.logger.Info("interview complete",
				"id", s.ID,
				"overall", s.Report.OverallScore,
				"recommendation", s.Report.Recommendation,
				"turns", s.Report.TurnCount,
			)
		}
	} else {
		next, askErr := o.askQuestion(ctx, s)
		if askErr != nil {
			// The finalized turn still counts; persist it before surfacing
			// the generation failure.
			s.Touch(o.settings.SessionTTL)
			if saveErr := o.repo.UpdateSession(ctx, s); saveErr != nil {
				o.logger.Error("failed to save session after generation failure", "id", s.ID, "error", saveErr)
			}
			return nil, fmt.Errorf("failed to generate next question: %w", askErr)
		}
		result.NextQuestion = next
	}

	s.Touch(o.settings.SessionTTL)
	if err := o.repo.UpdateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	o.cache.StoreSummary(ctx, s.Summarize())

	o.logger.Info("turn completed",
		"id", s.ID,
		"stage", turn.StageAtAsk,
		"aggregate", eval.Aggregate,
		"flags", len(flags),
		"difficulty", s.Difficulty,
	)

	return result, nil
}

// scoreAnswer runs evaluation and communication analysis concurrently and
// merges the flag penalty into the communication score.
func (o *Orchestrator) scoreAnswer(ctx context.Context, s *models.Session, turn *models.Turn, answer string) (*models.Evaluation, []string, error) {
	var (
		wg         sync.WaitGroup
		eval       models.Evaluation
		evalErr    error
		flags      []string
		analyzeErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		eval, evalErr = o.providers.Evaluator.Evaluate(ctx, providers.EvaluateRequest{
			Question:   turn.QuestionText,
			Topic:      turn.Topic,
			Answer:     answer,
			Config:     s.Config,
			Difficulty: turn.DifficultyAtAsk,
			Stage:      turn.StageAtAsk,
		})
	}()
	go func() {
		defer wg.Done()
		flags, analyzeErr = o.providers.Analyzer.Analyze(ctx, answer, s.Config.Strictness)
	}()
	wg.Wait()

	if evalErr != nil {
		return nil, nil, fmt.Errorf("%w: evaluation failed: %v", ErrCapabilityUnavailable, evalErr)
	}
	if analyzeErr != nil {
		// Analysis is advisory; a failure costs the flags, not the turn.
		o.logger.Warn("communication analysis failed", "id", s.ID, "error", analyzeErr)
		flags = nil
	}

	flags = dedupeFlags(flags)

	// Each unique flag deducts from the communication dimension, scaled by
	// strictness. The floor is zero; flags never push other dimensions.
	if n := len(flags); n > 0 {
		eval.Communication -= n * o.settings.FlagPenalty * s.Config.Strictness
	}
	eval.Clamp()
	eval.Aggregate = s.Config.Weights.Apply(eval)

	return &eval, flags, nil
}

func dedupeFlags(flags []string) []string {
	if len(flags) < 2 {
		return flags
	}
	seen := make(map[string]bool, len(flags))
	out := flags[:0]
	for _, f := range flags {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// askQuestion generates the next question for the session's current stage
// and difficulty and appends it as a pending turn. Questions whose
// fingerprint was already asked trigger regeneration; after the retry
// budget the duplicate is accepted rather than stalling the interview.
func (o *Orchestrator) askQuestion(ctx context.Context, s *models.Session) (*models.Turn, error) {
	exclude := make(map[string]bool, len(s.Memory.AskedFingerprints))
	for fp := range s.Memory.AskedFingerprints {
		exclude[fp] = true
	}

	req := providers.GenerateRequest{
		Stage:      s.Stage,
		Config:     s.Config,
		Difficulty: s.Difficulty,
		Memory:     s.Memory.Snapshot(),
		Exclude:    exclude,
	}

	var q providers.Question
	for attempt := 0; ; attempt++ {
		var err error
		q, err = o.providers.Generator.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: generation failed: %v", ErrCapabilityUnavailable, err)
		}

		fp := models.Fingerprint(q.Text)
		if s.Memory.RecordFingerprint(fp) {
			break
		}
		if attempt >= o.settings.RegenerateRetries {
			o.logger.Warn("accepting repeated question after regeneration budget",
				"id", s.ID, "stage", s.Stage, "attempts", attempt+1)
			break
		}
		exclude[fp] = true
	}

	turn := &models.Turn{
		QuestionText:    q.Text,
		Topic:           q.Topic,
		StageAtAsk:      s.Stage,
		DifficultyAtAsk: s.Difficulty,
		AskedAt:         time.Now().UTC(),
	}
	s.Turns = append(s.Turns, turn)

	return turn, nil
}
