package providers

import (
	"context"
	"errors"

	"github.com/terra-clan/interview-engine/internal/models"
)

// ErrTransient marks provider failures that are worth retrying (timeouts,
// rate limits, malformed model output). Anything else is a defect.
var ErrTransient = errors.New("transient provider error")

// Question is a generated interview question with its topic tag
type Question struct {
	Text  string
	Topic string
}

// GenerateRequest carries everything a generator may condition on
type GenerateRequest struct {
	Stage      models.Stage
	Config     models.InterviewConfig
	Difficulty int
	Memory     models.MemorySnapshot
	// Exclude holds fingerprints of already-asked questions; generators
	// must not return a question whose fingerprint is in this set.
	Exclude map[string]bool
}

// EvaluateRequest carries one question/answer pair for scoring
type EvaluateRequest struct {
	Question   string
	Topic      string
	Answer     string
	Config     models.InterviewConfig
	Difficulty int
	Stage      models.Stage
}

// QuestionGenerator produces the next interview question
type QuestionGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (Question, error)
}

// AnswerEvaluator scores an answer on the five dimensions [0,100].
// The aggregate is computed by the pipeline, not the evaluator.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (models.Evaluation, error)
}

// CommunicationAnalyzer detects coaching issue flags in an answer
type CommunicationAnalyzer interface {
	Analyze(ctx context.Context, answer string, strictness int) ([]string, error)
}

// Set bundles the three capability providers consumed by the pipeline
type Set struct {
	Generator QuestionGenerator
	Evaluator AnswerEvaluator
	Analyzer  CommunicationAnalyzer
}
