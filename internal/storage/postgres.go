package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/interview-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL. Sessions are
// stored as JSONB documents keyed by id; the aggregate is always loaded
// and saved whole, matching the orchestrator's read-modify-write cycle.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSession inserts a new session record
func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		INSERT INTO interview_sessions (id, stage, created_by, created_at, updated_at, expires_at, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		s.ID,
		string(s.Stage),
		nullString(s.CreatedBy),
		s.CreatedAt,
		s.UpdatedAt,
		s.ExpiresAt,
		doc,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by id, returning (nil, nil) when absent
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT document FROM interview_sessions WHERE id = $1`

	var doc []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &s, nil
}

// UpdateSession overwrites the session document and index columns
func (r *PostgresRepository) UpdateSession(ctx context.Context, s *models.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		UPDATE interview_sessions
		SET stage = $2, updated_at = $3, expires_at = $4, document = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, s.ID, string(s.Stage), s.UpdatedAt, s.ExpiresAt, doc)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", s.ID)
	}

	return nil
}

// DeleteSession removes a session record
func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM interview_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns sessions ordered by creation time, newest first
func (r *PostgresRepository) ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	query := `
		SELECT document FROM interview_sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// GetExpiredSessions returns sessions whose TTL has elapsed
func (r *PostgresRepository) GetExpiredSessions(ctx context.Context) ([]*models.Session, error) {
	query := `SELECT document FROM interview_sessions WHERE expires_at < NOW()`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]*models.Session, error) {
	var sessions []*models.Session
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		var s models.Session
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// GetClientByApiKey retrieves an API client by key, (nil, nil) when absent
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var (
		client       models.ApiClient
		lastUsedAt   sql.NullTime
		metadataJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&client.Permissions,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal client metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed bumps the client's last_used_at timestamp
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}
	return nil
}

// Helpers

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
