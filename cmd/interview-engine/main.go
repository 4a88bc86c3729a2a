package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/terra-clan/interview-engine/internal/api"
	"github.com/terra-clan/interview-engine/internal/cache"
	"github.com/terra-clan/interview-engine/internal/cleanup"
	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/providers"
	"github.com/terra-clan/interview-engine/internal/questionbank"
	"github.com/terra-clan/interview-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env if present; real environment takes precedence
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting interview-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Initialize storage: PostgreSQL when configured, in-memory otherwise
	var repo storage.Repository
	if cfg.Database.DSN != "" {
		slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
		if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		pgRepo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		repo = pgRepo
		slog.Info("database connected successfully")
	} else {
		memRepo := storage.NewMemoryRepository()
		memRepo.SeedClient(&models.ApiClient{
			ID:          1,
			Name:        "admin",
			ApiKey:      cfg.AdminAPIKey,
			IsActive:    true,
			CreatedAt:   time.Now(),
			Permissions: []string{"interviews:*"},
		})
		repo = memRepo
		slog.Warn("running with in-memory storage, sessions will not survive restarts")
	}

	// Initialize report cache (disabled when Redis is not configured)
	var reportCache *cache.Cache
	if cfg.Redis.Address != "" {
		reportCache, err = cache.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("redis connected successfully", "address", cfg.Redis.Address)
	} else {
		slog.Warn("redis not configured, report caching disabled")
	}

	// Load question bank
	bank := questionbank.NewLoader()
	if err := bank.LoadFromDir(cfg.QuestionBank.Dir); err != nil {
		slog.Warn("failed to load question bank", "dir", cfg.QuestionBank.Dir, "error", err)
	}
	slog.Info("question bank loaded", "questions", bank.Len(), "topics", bank.Topics())

	// Assemble capability providers: deterministic fallbacks always, AI
	// primaries when an API key is configured
	fallbackSet := providers.Set{
		Generator: providers.NewBankGenerator(bank),
		Evaluator: providers.NewHeuristicEvaluator(bank),
		Analyzer:  providers.NewRuleAnalyzer(),
	}

	var primarySet providers.Set
	if cfg.OpenAI.APIKey != "" {
		ai := providers.NewOpenAIProvider(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.BaseURL,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			cfg.OpenAI.Timeout,
			logger,
		)
		primarySet = providers.Set{Generator: ai, Evaluator: ai, Analyzer: ai}
		slog.Info("AI provider enabled", "model", cfg.OpenAI.Model)
	} else {
		slog.Warn("OPENAI_API_KEY not set, running on deterministic providers only")
	}

	providerSet := providers.NewResilientSet(primarySet, fallbackSet, providers.RetryPolicy{
		Attempts: cfg.Interview.RetryAttempts,
		Backoff:  cfg.Interview.RetryBackoff,
	}, logger)

	// Initialize orchestrator
	orchestrator := interview.NewOrchestrator(repo, reportCache, providerSet, interview.Settings{
		SessionTTL: cfg.Interview.SessionTTL,
		Difficulty: interview.DifficultyPolicy{
			Window:  cfg.Interview.DifficultyWindow,
			RaiseAt: cfg.Interview.RaiseThreshold,
			LowerAt: cfg.Interview.LowerThreshold,
		},
		FlagPenalty:       cfg.Interview.FlagPenalty,
		RegenerateRetries: cfg.Interview.RegenerateRetries,
	}, logger)

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(orchestrator, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, orchestrator, repo)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := orchestrator.Close(); err != nil {
		slog.Error("orchestrator close error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("interview-engine stopped")
}
