package interview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// buildReport produces the final assessment from the full turn history.
// Deterministic: identical histories yield identical reports (modulo the
// generation timestamp, which is fixed once and stored). The caller is
// responsible for storing the result on the session; once stored the
// report is authoritative and never recomputed.
func buildReport(s *models.Session) *models.Report {
	var (
		dims       models.DimensionAverages
		total      float64
		n          int
		aggregates []float64
	)

	for _, t := range s.Turns {
		if !t.Answered() {
			continue
		}
		e := t.Evaluation
		dims.Technical += float64(e.Technical)
		dims.Reasoning += float64(e.Reasoning)
		dims.Communication += float64(e.Communication)
		dims.Structure += float64(e.Structure)
		dims.Confidence += float64(e.Confidence)
		total += e.Aggregate
		aggregates = append(aggregates, e.Aggregate)
		n++
	}

	if n > 0 {
		f := float64(n)
		dims.Technical /= f
		dims.Reasoning /= f
		dims.Communication /= f
		dims.Structure /= f
		dims.Confidence /= f
		total /= f
	}

	var flagCounts map[string]int
	if len(s.Memory.FlagCounts) > 0 {
		flagCounts = make(map[string]int, len(s.Memory.FlagCounts))
		for flag, count := range s.Memory.FlagCounts {
			flagCounts[flag] = count
		}
	}

	report := &models.Report{
		SessionID:      s.ID,
		OverallScore:   total,
		Dimensions:     dims,
		Recommendation: models.RecommendationFor(total),
		WeakTopics:     append([]string(nil), s.Memory.WeakTopics...),
		StrongTopics:   append([]string(nil), s.Memory.StrongTopics...),
		Trend:          models.TrendFor(aggregates),
		FlagCounts:     flagCounts,
		TurnCount:      n,
		GeneratedAt:    time.Now().UTC(),
	}
	report.Summary = buildSummary(s, report)
	return report
}

// buildSummary assembles the narrative text from the computed numbers
func buildSummary(s *models.Session, r *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate for %s (%s) answered %d questions with an overall score of %.1f/100.",
		s.Config.Role, s.Config.ExperienceLevel, r.TurnCount, r.OverallScore)

	switch r.Recommendation {
	case models.RecommendStrongHire:
		b.WriteString(" Performance was consistently strong across the interview.")
	case models.RecommendHire:
		b.WriteString(" Performance met the bar with solid answers in most rounds.")
	case models.RecommendLeanHire:
		b.WriteString(" Performance was mixed; a follow-up round is advisable.")
	case models.RecommendNoHire:
		b.WriteString(" Performance fell short of the bar for this role.")
	}

	switch r.Trend {
	case models.TrendImproving:
		b.WriteString(" Scores improved as the interview progressed.")
	case models.TrendDeclining:
		b.WriteString(" Scores declined as the interview progressed.")
	}

	if r.Dimensions.Communication < models.WeakTopicThreshold {
		b.WriteString(" Communication clarity needs work.")
	} else if r.Dimensions.Communication > models.StrongTopicThreshold {
		b.WriteString(" Communication was a clear strength.")
	}

	if len(r.FlagCounts) > 0 {
		flags := make([]string, 0, len(r.FlagCounts))
		for flag := range r.FlagCounts {
			flags = append(flags, flag)
		}
		sort.Strings(flags)
		parts := make([]string, 0, len(flags))
		for _, flag := range flags {
			parts = append(parts, fmt.Sprintf("%s (%d)", strings.ReplaceAll(flag, "_", " "), r.FlagCounts[flag]))
		}
		fmt.Fprintf(&b, " Recurring communication issues: %s.", strings.Join(parts, ", "))
	}

	if len(r.StrongTopics) > 0 {
		fmt.Fprintf(&b, " Strong areas: %s.", strings.Join(r.StrongTopics, ", "))
	}
	if len(r.WeakTopics) > 0 {
		fmt.Fprintf(&b, " Areas to improve: %s.", strings.Join(r.WeakTopics, ", "))
	}

	return b.String()
}
