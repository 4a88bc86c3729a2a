package questionbank

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Question is one bank entry. Stage names use the lifecycle identifiers
// ("warmup", "core_questions", ...); an empty Stages list means the
// question fits any non-terminal stage.
type Question struct {
	Text          string   `yaml:"text"`
	Topic         string   `yaml:"topic,omitempty"`
	Stages        []string `yaml:"stages,omitempty"`
	Difficulty    int      `yaml:"difficulty"`
	ExpectedTerms []string `yaml:"expected_terms,omitempty"`
	Levels        []string `yaml:"levels,omitempty"`

	fingerprint string
}

// Fingerprint returns the repeat-detection key for the question text
func (q *Question) Fingerprint() string {
	return q.fingerprint
}

// MatchesStage reports whether the question may be asked in the stage
func (q *Question) MatchesStage(stage models.Stage) bool {
	if len(q.Stages) == 0 {
		return !stage.IsTerminal()
	}
	for _, s := range q.Stages {
		if models.Stage(s) == stage {
			return true
		}
	}
	return false
}

// MatchesLevel reports whether the question fits the experience level
func (q *Question) MatchesLevel(level models.ExperienceLevel) bool {
	if len(q.Levels) == 0 {
		return true
	}
	for _, l := range q.Levels {
		if models.ExperienceLevel(l) == level {
			return true
		}
	}
	return false
}

type bankFile struct {
	Topic     string     `yaml:"topic"`
	Questions []Question `yaml:"questions"`
}

// Loader manages loading and lookup of question banks. Questions keep the
// order they were loaded in so selection is deterministic.
type Loader struct {
	mu        sync.RWMutex
	questions []*Question
	byTopic   map[string][]*Question
}

// NewLoader creates an empty question bank loader
func NewLoader() *Loader {
	return &Loader{
		byTopic: make(map[string][]*Question),
	}
}

// LoadFromDir loads all YAML bank files from a directory
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading question banks", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load question bank", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("question banks loaded", "files", loaded, "questions", l.Len())
	return nil
}

// LoadFromFile loads a single bank from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var bank bankFile
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(bank.Questions) == 0 {
		return fmt.Errorf("bank contains no questions")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range bank.Questions {
		q := bank.Questions[i]
		if q.Text == "" {
			return fmt.Errorf("question %d has no text", i)
		}
		if q.Topic == "" {
			q.Topic = bank.Topic
		}
		if q.Difficulty < 1 || q.Difficulty > 5 {
			q.Difficulty = 3
		}
		q.fingerprint = models.Fingerprint(q.Text)

		stored := q
		l.questions = append(l.questions, &stored)
		l.byTopic[stored.Topic] = append(l.byTopic[stored.Topic], &stored)
	}

	return nil
}

// Len returns the number of loaded questions
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.questions)
}

// Topics returns the loaded topic names, sorted
func (l *Loader) Topics() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	topics := make([]string, 0, len(l.byTopic))
	for t := range l.byTopic {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Lookup returns the loaded question with the given fingerprint, or nil
func (l *Loader) Lookup(fingerprint string) *Question {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, q := range l.questions {
		if q.fingerprint == fingerprint {
			return q
		}
	}
	return nil
}

// Select picks the best bank question for the stage, difficulty and
// experience level, skipping excluded fingerprints. Candidates at the
// exact difficulty win; otherwise the nearest difficulty is taken. Within
// a difficulty, load order decides, so selection is fully deterministic.
// Returns nil when every matching question is excluded.
func (l *Loader) Select(stage models.Stage, level models.ExperienceLevel, difficulty int, exclude map[string]bool) *Question {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var best *Question
	bestDist := -1

	for _, q := range l.questions {
		if exclude[q.fingerprint] {
			continue
		}
		if !q.MatchesStage(stage) || !q.MatchesLevel(level) {
			continue
		}
		dist := q.Difficulty - difficulty
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = q
			bestDist = dist
		}
		if bestDist == 0 {
			break
		}
	}

	return best
}
