package models

import "sort"

// Thresholds for weak/strong topic classification on the running average
const (
	WeakTopicThreshold   = 50.0
	StrongTopicThreshold = 80.0
)

// TopicScore tracks the running average aggregate for one topic
type TopicScore struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// MemoryProfile is the per-session record of asked questions,
// per-topic performance and cumulative communication patterns. Owned
// exclusively by its session.
type MemoryProfile struct {
	AskedFingerprints map[string]bool       `json:"asked_fingerprints"`
	TopicScores       map[string]TopicScore `json:"topic_scores"`
	WeakTopics        []string              `json:"weak_topics"`
	StrongTopics      []string              `json:"strong_topics"`
	// FlagCounts accumulates how often each communication flag fired
	// across the whole interview.
	FlagCounts map[string]int `json:"flag_counts,omitempty"`
}

// NewMemoryProfile returns an empty memory profile
func NewMemoryProfile() MemoryProfile {
	return MemoryProfile{
		AskedFingerprints: make(map[string]bool),
		TopicScores:       make(map[string]TopicScore),
		FlagCounts:        make(map[string]int),
	}
}

// RecordFingerprint marks a normalized question as asked.
// Returns false if the fingerprint was already present.
func (m *MemoryProfile) RecordFingerprint(fp string) bool {
	if m.AskedFingerprints == nil {
		m.AskedFingerprints = make(map[string]bool)
	}
	if m.AskedFingerprints[fp] {
		return false
	}
	m.AskedFingerprints[fp] = true
	return true
}

// RecordTopicScore folds an aggregate score into the topic's running mean
func (m *MemoryProfile) RecordTopicScore(topic string, aggregate float64) {
	if topic == "" {
		return
	}
	if m.TopicScores == nil {
		m.TopicScores = make(map[string]TopicScore)
	}
	ts := m.TopicScores[topic]
	ts.Average = (ts.Average*float64(ts.Count) + aggregate) / float64(ts.Count+1)
	ts.Count++
	m.TopicScores[topic] = ts
}

// RecordFlags folds one turn's communication flags into the cumulative
// counts. The caller dedupes within a turn; across turns a recurring
// flag counts once per turn it fired in.
func (m *MemoryProfile) RecordFlags(flags []string) {
	if len(flags) == 0 {
		return
	}
	if m.FlagCounts == nil {
		m.FlagCounts = make(map[string]int)
	}
	for _, f := range flags {
		m.FlagCounts[f]++
	}
}

// RecomputeTopicSets rebuilds the weak/strong sets from topic averages.
// A full rebuild each turn avoids drift from incremental patching; output
// is sorted so identical histories produce identical profiles.
func (m *MemoryProfile) RecomputeTopicSets() {
	m.WeakTopics = nil
	m.StrongTopics = nil
	for topic, ts := range m.TopicScores {
		switch {
		case ts.Average < WeakTopicThreshold:
			m.WeakTopics = append(m.WeakTopics, topic)
		case ts.Average > StrongTopicThreshold:
			m.StrongTopics = append(m.StrongTopics, topic)
		}
	}
	sort.Strings(m.WeakTopics)
	sort.Strings(m.StrongTopics)
}

// Snapshot returns a copy safe to hand to capability providers
func (m *MemoryProfile) Snapshot() MemorySnapshot {
	snap := MemorySnapshot{
		WeakTopics:   append([]string(nil), m.WeakTopics...),
		StrongTopics: append([]string(nil), m.StrongTopics...),
		AskedCount:   len(m.AskedFingerprints),
	}
	return snap
}

// MemorySnapshot is the read-only view of memory given to question
// generation, so providers cannot mutate session state.
type MemorySnapshot struct {
	WeakTopics   []string `json:"weak_topics"`
	StrongTopics []string `json:"strong_topics"`
	AskedCount   int      `json:"asked_count"`
}

// Trend labels the direction of performance across the interview
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// TrendEpsilon is the minimum gap between the opening and closing
// averages before a trend is called.
const TrendEpsilon = 5.0

// TrendFor compares the average of the first two aggregates against the
// average of the last two. Fewer than four scores is always stable.
func TrendFor(aggregates []float64) Trend {
	if len(aggregates) < 4 {
		return TrendStable
	}
	first := (aggregates[0] + aggregates[1]) / 2
	last := (aggregates[len(aggregates)-2] + aggregates[len(aggregates)-1]) / 2
	switch {
	case last > first+TrendEpsilon:
		return TrendImproving
	case last < first-TrendEpsilon:
		return TrendDeclining
	default:
		return TrendStable
	}
}
