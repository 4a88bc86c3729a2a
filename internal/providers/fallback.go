package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/questionbank"
)

// The deterministic providers never touch the network and never fail:
// they are the floor the pipeline can always fall back to, so every turn
// completes with a finite, bounded score.

// structure markers recognized in answers
var structureMarkers = []string{
	"first", "second", "third", "finally", "then", "next",
	"1.", "2.", "3.", "- ", "* ", "step",
	"because", "therefore", "so that", "as a result",
}

// hedging phrases that lower the confidence signal
var hedgePhrases = []string{
	"i think", "i guess", "maybe", "probably", "not sure",
	"i don't know", "possibly", "i believe", "kind of", "sort of",
}

// assertive phrases that raise the confidence signal
var assertivePhrases = []string{
	"definitely", "certainly", "in my experience", "i have used",
	"i implemented", "i built", "the key is", "always", "never",
}

// BankGenerator selects questions from the YAML question bank
type BankGenerator struct {
	bank *questionbank.Loader
}

// NewBankGenerator creates the deterministic question generator
func NewBankGenerator(bank *questionbank.Loader) *BankGenerator {
	return &BankGenerator{bank: bank}
}

// Generate picks the best unasked bank question for the request. When the
// bank is exhausted it synthesizes a question from the session's tech
// stack, so generation never fails.
func (g *BankGenerator) Generate(ctx context.Context, req GenerateRequest) (Question, error) {
	if g.bank != nil {
		if q := g.bank.Select(req.Stage, req.Config.ExperienceLevel, req.Difficulty, req.Exclude); q != nil {
			return Question{Text: q.Text, Topic: q.Topic}, nil
		}
	}
	return synthesizeQuestion(req), nil
}

// synthesizeQuestion builds a generic question when the bank has nothing
// left to offer. Deterministic for a given request.
func synthesizeQuestion(req GenerateRequest) Question {
	subject := req.Config.Role
	topic := "general"
	if len(req.Config.TechStack) > 0 {
		idx := req.Memory.AskedCount % len(req.Config.TechStack)
		subject = req.Config.TechStack[idx]
		topic = strings.ToLower(subject)
	}

	var text string
	switch req.Stage {
	case models.StageIntro:
		text = fmt.Sprintf("Tell me about yourself and your background as a %s.", req.Config.Role)
		topic = "background"
	case models.StageWarmup:
		text = fmt.Sprintf("What do you enjoy most about working with %s?", subject)
	case models.StageCoreQuestions:
		text = fmt.Sprintf("Describe a challenging problem you solved using %s. What made it hard?", subject)
	case models.StagePressureRound:
		text = fmt.Sprintf("Your %s-based system is failing in production under load and the fix is not obvious. Walk me through exactly what you do in the first hour.", subject)
	case models.StageCommunicationTest:
		text = fmt.Sprintf("Explain how %s works to someone who has never used it, step by step.", subject)
	case models.StageClosing:
		text = "What questions do you have for us, and is there anything you wish we had asked?"
		topic = "closing"
	default:
		text = fmt.Sprintf("Tell me more about your experience with %s.", subject)
	}

	return Question{Text: text, Topic: topic}
}

// HeuristicEvaluator scores answers with deterministic rules: length
// buckets, keyword overlap with expected technical terms, and structure
// markers. Crude by design; its job is a bounded, reproducible score.
type HeuristicEvaluator struct {
	bank *questionbank.Loader
}

// NewHeuristicEvaluator creates the deterministic evaluator
func NewHeuristicEvaluator(bank *questionbank.Loader) *HeuristicEvaluator {
	return &HeuristicEvaluator{bank: bank}
}

// Evaluate scores the answer. Never returns an error.
func (e *HeuristicEvaluator) Evaluate(ctx context.Context, req EvaluateRequest) (models.Evaluation, error) {
	answer := strings.ToLower(req.Answer)
	tokens := strings.Fields(answer)

	lengthScore := lengthBucketScore(len(tokens))
	overlap := termOverlapScore(answer, e.expectedTerms(req))
	structure := structureScore(answer, len(tokens))
	confidence := confidenceScore(answer)

	eval := models.Evaluation{
		// Technical understanding is approximated by term overlap, scaled
		// down when the answer is too short to contain any substance.
		Technical:     models.ClampScore((overlap*7 + lengthScore*3) / 10),
		Reasoning:     models.ClampScore((structure*5 + lengthScore*3 + overlap*2) / 10),
		Communication: models.ClampScore((lengthScore*5 + structure*5) / 10),
		Structure:     models.ClampScore(structure),
		Confidence:    models.ClampScore(confidence),
		Feedback:      "Scored by deterministic heuristics.",
	}
	return eval, nil
}

// expectedTerms collects the technical vocabulary the answer is matched
// against: bank-provided terms for the question when available, otherwise
// the session's tech stack and the question topic.
func (e *HeuristicEvaluator) expectedTerms(req EvaluateRequest) []string {
	var terms []string
	if e.bank != nil {
		fp := models.Fingerprint(req.Question)
		if q := e.bank.Lookup(fp); q != nil {
			terms = append(terms, q.ExpectedTerms...)
		}
	}
	for _, t := range req.Config.TechStack {
		terms = append(terms, strings.ToLower(t))
	}
	if req.Topic != "" {
		terms = append(terms, strings.ToLower(req.Topic))
	}
	return terms
}

func lengthBucketScore(tokens int) int {
	switch {
	case tokens == 0:
		return 0
	case tokens < 10:
		return 30
	case tokens < 40:
		return 60
	case tokens < 150:
		return 80
	case tokens < 400:
		return 70
	default:
		return 50
	}
}

func termOverlapScore(answer string, terms []string) int {
	if len(terms) == 0 {
		// No vocabulary to check against; neutral score.
		return 50
	}
	hits := 0
	for _, term := range terms {
		if term != "" && strings.Contains(answer, strings.ToLower(term)) {
			hits++
		}
	}
	score := 30 + hits*20
	if score > 95 {
		score = 95
	}
	return score
}

func structureScore(answer string, tokens int) int {
	if tokens == 0 {
		return 0
	}
	hits := 0
	for _, marker := range structureMarkers {
		if strings.Contains(answer, marker) {
			hits++
		}
	}
	switch {
	case hits >= 4:
		return 90
	case hits >= 2:
		return 75
	case hits == 1:
		return 60
	default:
		return 40
	}
}

func confidenceScore(answer string) int {
	score := 60
	for _, h := range hedgePhrases {
		if strings.Contains(answer, h) {
			score -= 8
		}
	}
	for _, a := range assertivePhrases {
		if strings.Contains(answer, a) {
			score += 6
		}
	}
	return models.ClampScore(score)
}

// RuleAnalyzer is the deterministic communication analyzer. Each flag is
// reported at most once per answer.
type RuleAnalyzer struct{}

// NewRuleAnalyzer creates the deterministic analyzer
func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

// Communication flags the analyzer can raise
const (
	FlagRambling        = "rambling"
	FlagLackOfStructure = "lack_of_structure"
	FlagHedging         = "hedging"
	FlagTooShort        = "too_short"
)

// Analyze detects coaching flags in the answer. Strictness shrinks the
// rambling ceiling and the hedging tolerance. Never returns an error.
func (a *RuleAnalyzer) Analyze(ctx context.Context, answer string, strictness int) ([]string, error) {
	if strictness < 1 {
		strictness = 1
	}
	if strictness > 5 {
		strictness = 5
	}

	lower := strings.ToLower(answer)
	tokens := len(strings.Fields(lower))

	var flags []string

	// Token ceiling shrinks from 360 (lenient) to 200 (strict).
	ceiling := 400 - strictness*40
	if tokens > ceiling {
		flags = append(flags, FlagRambling)
	}

	if tokens < 5 {
		flags = append(flags, FlagTooShort)
	}

	if tokens > 60 {
		structured := false
		for _, marker := range structureMarkers {
			if strings.Contains(lower, marker) {
				structured = true
				break
			}
		}
		if !structured {
			flags = append(flags, FlagLackOfStructure)
		}
	}

	hedges := 0
	for _, h := range hedgePhrases {
		hedges += strings.Count(lower, h)
	}
	if hedges >= 7-strictness {
		flags = append(flags, FlagHedging)
	}

	return flags, nil
}
