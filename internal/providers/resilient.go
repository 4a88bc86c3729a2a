package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// RetryPolicy bounds how often a transient provider failure is retried
// before the deterministic fallback takes over.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy retries twice with a short linear backoff
var DefaultRetryPolicy = RetryPolicy{Attempts: 2, Backoff: 500 * time.Millisecond}

// resilientGenerator tries the primary generator with retries, then the
// fallback. The fallback never fails, so neither does the wrapper.
type resilientGenerator struct {
	primary  QuestionGenerator
	fallback QuestionGenerator
	policy   RetryPolicy
	logger   *slog.Logger
}

func (g *resilientGenerator) Generate(ctx context.Context, req GenerateRequest) (Question, error) {
	if g.primary != nil {
		q, err := withRetry(ctx, g.policy, func() (Question, error) {
			return g.primary.Generate(ctx, req)
		})
		if err == nil {
			return q, nil
		}
		g.logger.Warn("question generation falling back",
			"stage", req.Stage, "error", err)
	}
	return g.fallback.Generate(ctx, req)
}

type resilientEvaluator struct {
	primary  AnswerEvaluator
	fallback AnswerEvaluator
	policy   RetryPolicy
	logger   *slog.Logger
}

func (e *resilientEvaluator) Evaluate(ctx context.Context, req EvaluateRequest) (models.Evaluation, error) {
	if e.primary != nil {
		eval, err := withRetry(ctx, e.policy, func() (models.Evaluation, error) {
			return e.primary.Evaluate(ctx, req)
		})
		if err == nil {
			return eval, nil
		}
		e.logger.Warn("answer evaluation falling back", "error", err)
	}
	return e.fallback.Evaluate(ctx, req)
}

type resilientAnalyzer struct {
	primary  CommunicationAnalyzer
	fallback CommunicationAnalyzer
	policy   RetryPolicy
	logger   *slog.Logger
}

func (a *resilientAnalyzer) Analyze(ctx context.Context, answer string, strictness int) ([]string, error) {
	if a.primary != nil {
		flags, err := withRetry(ctx, a.policy, func() ([]string, error) {
			return a.primary.Analyze(ctx, answer, strictness)
		})
		if err == nil {
			return flags, nil
		}
		a.logger.Warn("communication analysis falling back", "error", err)
	}
	return a.fallback.Analyze(ctx, answer, strictness)
}

// NewResilientSet wraps each primary capability with retry-then-fallback
// behavior. Primary may have nil members, in which case the fallback is
// used directly. All fallback members must be non-nil.
func NewResilientSet(primary, fallback Set, policy RetryPolicy, logger *slog.Logger) Set {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return Set{
		Generator: &resilientGenerator{primary: primary.Generator, fallback: fallback.Generator, policy: policy, logger: logger},
		Evaluator: &resilientEvaluator{primary: primary.Evaluator, fallback: fallback.Evaluator, policy: policy, logger: logger},
		Analyzer:  &resilientAnalyzer{primary: primary.Analyzer, fallback: fallback.Analyzer, policy: policy, logger: logger},
	}
}

// withRetry runs fn up to policy.Attempts times, sleeping between
// attempts. Only transient errors are retried; anything else is returned
// immediately.
func withRetry[T any](ctx context.Context, policy RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if attempt > 0 && policy.Backoff > 0 {
			select {
			case <-time.After(policy.Backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !errors.Is(err, ErrTransient) {
			break
		}
	}

	return zero, lastErr
}
