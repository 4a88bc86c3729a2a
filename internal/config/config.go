package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for interview-engine
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	OpenAI       OpenAIConfig
	Interview    InterviewConfig
	QuestionBank QuestionBankConfig
	Cleanup      CleanupConfig
	AdminAPIKey  string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN switches
// the engine to the in-memory repository.
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	MaxOpenConns  int
	MaxIdleConns  int
}

// RedisConfig holds Redis configuration. An empty address disables the
// report cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	CacheTTL time.Duration
}

// OpenAIConfig holds the AI provider configuration. An empty API key
// runs the engine on the deterministic providers alone.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// InterviewConfig holds the orchestration tunables
type InterviewConfig struct {
	SessionTTL        time.Duration
	FlagPenalty       int
	RegenerateRetries int
	RetryAttempts     int
	RetryBackoff      time.Duration
	DifficultyWindow  int
	RaiseThreshold    float64
	LowerThreshold    float64
}

// QuestionBankConfig holds the question bank location
type QuestionBankConfig struct {
	Dir string
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", "./migrations"),
			MaxOpenConns:  getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 24*time.Hour),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o"),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 1000),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.4),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Interview: InterviewConfig{
			SessionTTL:        getEnvAsDuration("INTERVIEW_SESSION_TTL", 2*time.Hour),
			FlagPenalty:       getEnvAsInt("INTERVIEW_FLAG_PENALTY", 3),
			RegenerateRetries: getEnvAsInt("INTERVIEW_REGENERATE_RETRIES", 3),
			RetryAttempts:     getEnvAsInt("INTERVIEW_RETRY_ATTEMPTS", 2),
			RetryBackoff:      getEnvAsDuration("INTERVIEW_RETRY_BACKOFF", 500*time.Millisecond),
			DifficultyWindow:  getEnvAsInt("INTERVIEW_DIFFICULTY_WINDOW", 3),
			RaiseThreshold:    getEnvAsFloat("INTERVIEW_RAISE_THRESHOLD", 80),
			LowerThreshold:    getEnvAsFloat("INTERVIEW_LOWER_THRESHOLD", 40),
		},
		QuestionBank: QuestionBankConfig{
			Dir: getEnv("QUESTION_BANK_DIR", "./questionbank"),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
		},
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Interview.SessionTTL <= 0 {
		return fmt.Errorf("invalid session TTL: %s", c.Interview.SessionTTL)
	}

	if c.Interview.RaiseThreshold <= c.Interview.LowerThreshold {
		return fmt.Errorf("raise threshold %.1f must exceed lower threshold %.1f",
			c.Interview.RaiseThreshold, c.Interview.LowerThreshold)
	}

	if c.Database.DSN == "" && c.AdminAPIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required when running without a database")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
