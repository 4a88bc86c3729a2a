package interview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/interview-engine/internal/cache"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/providers"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// Service defines the interface for interview orchestration
type Service interface {
	Start(ctx context.Context, cfg models.InterviewConfig, createdBy string) (*models.Session, error)
	SubmitAnswer(ctx context.Context, id, answer string) (*TurnResult, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Status(ctx context.Context, id string) (models.Summary, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]models.Summary, error)
	GetExpired(ctx context.Context) ([]*models.Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// TurnResult is what one answer submission produces: the finalized turn
// plus the post-turn state of the interview.
type TurnResult struct {
	Turn         *models.Turn
	Stage        models.Stage
	Difficulty   int
	NextQuestion *models.Turn
	Complete     bool
}

// Settings holds the orchestrator tunables
type Settings struct {
	// SessionTTL is the sliding idle expiry; every successful operation
	// pushes it out again
	SessionTTL time.Duration
	// Difficulty holds the adaptation thresholds
	Difficulty DifficultyPolicy
	// FlagPenalty is the per-flag communication deduction before
	// strictness scaling
	FlagPenalty int
	// RegenerateRetries bounds fingerprint-collision regeneration before a
	// duplicate question is accepted
	RegenerateRetries int
}

// DefaultSettings returns the standard orchestrator tunables
func DefaultSettings() Settings {
	return Settings{
		SessionTTL:        2 * time.Hour,
		Difficulty:        DefaultDifficultyPolicy(),
		FlagPenalty:       3,
		RegenerateRetries: 3,
	}
}

// Orchestrator implements Service. All session mutation funnels through
// it under a per-session lock, so turns for one session are strictly
// serialized while different sessions proceed in parallel.
type Orchestrator struct {
	repo      storage.Repository
	cache     *cache.Cache
	providers providers.Set
	settings  Settings
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOrchestrator creates the interview orchestrator
func NewOrchestrator(repo storage.Repository, c *cache.Cache, p providers.Set, settings Settings, logger *slog.Logger) *Orchestrator {
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = DefaultSettings().SessionTTL
	}
	if settings.Difficulty.Window <= 0 {
		settings.Difficulty = DefaultDifficultyPolicy()
	}
	if settings.FlagPenalty < 0 {
		settings.FlagPenalty = 0
	}
	if settings.RegenerateRetries < 0 {
		settings.RegenerateRetries = 0
	}
	return &Orchestrator{
		repo:      repo,
		cache:     c,
		providers: p,
		settings:  settings,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// acquire takes the per-session lock without blocking. A held lock means
// a turn is already in flight for the session.
func (o *Orchestrator) acquire(id string) (func(), error) {
	o.mu.Lock()
	l, ok := o.locks[id]
	if !ok {
		l = &sync.Mutex{}
		o.locks[id] = l
	}
	o.mu.Unlock()

	if !l.TryLock() {
		return nil, ErrSessionBusy
	}
	return l.Unlock, nil
}

func (o *Orchestrator) dropLock(id string) {
	o.mu.Lock()
	delete(o.locks, id)
	o.mu.Unlock()
}

// Start creates a new interview session and asks the first question
func (o *Orchestrator) Start(ctx context.Context, cfg models.InterviewConfig, createdBy string) (*models.Session, error) {
	cfg.Normalize()

	now := time.Now().UTC()
	s := &models.Session{
		ID:         uuid.New().String(),
		Stage:      models.StageIntro,
		Config:     cfg,
		Difficulty: cfg.InitialDifficulty,
		Memory:     models.NewMemoryProfile(),
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(o.settings.SessionTTL),
		CreatedBy:  createdBy,
	}

	if _, err := o.askQuestion(ctx, s); err != nil {
		return nil, err
	}

	if err := o.repo.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	o.logger.Info("interview started",
		"id", s.ID,
		"role", cfg.Role,
		"level", cfg.ExperienceLevel,
		"difficulty", s.Difficulty,
		"expires_at", s.ExpiresAt,
	)

	return s, nil
}

// load fetches a live session by id. Expired sessions are reported as
// not found; the cleaner removes them in the background.
func (o *Orchestrator) load(ctx context.Context, id string) (*models.Session, error) {
	s, err := o.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Get returns the full session state
func (o *Orchestrator) Get(ctx context.Context, id string) (*models.Session, error) {
	return o.load(ctx, id)
}

// Status returns the compact session summary, served from the cache when
// fresh. A cached summary whose session TTL has elapsed is ignored, so
// the cache never outlives the session it describes.
func (o *Orchestrator) Status(ctx context.Context, id string) (models.Summary, error) {
	if sum, ok := o.cache.GetSummary(ctx, id); ok && !sum.IsExpired() {
		return sum, nil
	}

	s, err := o.load(ctx, id)
	if err != nil {
		return models.Summary{}, err
	}

	sum := s.Summarize()
	o.cache.StoreSummary(ctx, sum)
	return sum, nil
}

// GetReport returns the final report. The stored report is authoritative:
// repeated calls return the identical document.
func (o *Orchestrator) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if r := o.cache.GetReport(ctx, id); r != nil {
		return r, nil
	}

	s, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Report == nil {
		return nil, ErrIncompleteSession
	}

	o.cache.StoreReport(ctx, id, s.Report)
	return s.Report, nil
}

// Delete removes a session and everything cached for it
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	s, err := o.repo.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return ErrSessionNotFound
	}

	if err := o.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	o.cache.Evict(ctx, id)
	o.dropLock(id)

	o.logger.Info("interview deleted", "id", id, "stage", s.Stage)
	return nil
}

// List returns session summaries, newest first
func (o *Orchestrator) List(ctx context.Context, limit, offset int) ([]models.Summary, error) {
	sessions, err := o.repo.ListSessions(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]models.Summary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, s.Summarize())
	}
	return summaries, nil
}

// GetExpired returns sessions past their TTL, for the cleaner
func (o *Orchestrator) GetExpired(ctx context.Context) ([]*models.Session, error) {
	return o.repo.GetExpiredSessions(ctx)
}

// Ping checks that the orchestrator's dependencies are reachable
func (o *Orchestrator) Ping(ctx context.Context) error {
	if err := o.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close releases the orchestrator's resources
func (o *Orchestrator) Close() error {
	return o.cache.Close()
}
