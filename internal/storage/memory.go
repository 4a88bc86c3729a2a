package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// MemoryRepository implements Repository with in-process maps. Used when
// no database DSN is configured and as the test double. Sessions are
// stored as JSON copies so callers never share pointers with the store,
// matching the isolation the postgres implementation provides.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	created  map[string]time.Time
	clients  map[string]*models.ApiClient
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string][]byte),
		created:  make(map[string]time.Time),
		clients:  make(map[string]*models.ApiClient),
	}
}

// SeedClient registers an API client, e.g. the bootstrap admin key
func (r *MemoryRepository) SeedClient(client *models.ApiClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ApiKey] = client
}

// CreateSession stores a new session
func (r *MemoryRepository) CreateSession(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	r.sessions[s.ID] = doc
	r.created[s.ID] = s.CreatedAt
	return nil
}

// GetSession returns a copy of the session, (nil, nil) when absent
func (r *MemoryRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	var s models.Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// UpdateSession overwrites an existing session
func (r *MemoryRepository) UpdateSession(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; !exists {
		return fmt.Errorf("session %s not found", s.ID)
	}
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	r.sessions[s.ID] = doc
	return nil
}

// DeleteSession removes a session
func (r *MemoryRepository) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	delete(r.created, id)
	return nil
}

// ListSessions returns sessions ordered by creation time, newest first
func (r *MemoryRepository) ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.created[ids[i]].After(r.created[ids[j]])
	})

	var out []*models.Session
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		var s models.Session
		if err := json.Unmarshal(r.sessions[ids[i]], &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		out = append(out, &s)
	}
	return out, nil
}

// GetExpiredSessions returns sessions whose TTL has elapsed
func (r *MemoryRepository) GetExpiredSessions(ctx context.Context) ([]*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Session
	for _, doc := range r.sessions {
		var s models.Session
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		if s.IsExpired() {
			out = append(out, &s)
		}
	}
	return out, nil
}

// GetClientByApiKey looks up a seeded API client
func (r *MemoryRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[apiKey], nil
}

// UpdateClientLastUsed bumps the client's last_used_at timestamp
func (r *MemoryRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[apiKey]; ok {
		now := time.Now()
		client.LastUsedAt = &now
	}
	return nil
}

// Ping always succeeds for the in-memory store
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}
