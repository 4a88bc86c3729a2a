package storage

import (
	"context"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Repository defines the interface for interview session persistence.
// The core treats it as a key-value contract: read-your-writes within one
// orchestrator instance is the only consistency assumption.
type Repository interface {
	// Sessions
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error)
	GetExpiredSessions(ctx context.Context) ([]*models.Session, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
