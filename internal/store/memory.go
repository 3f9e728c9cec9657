package store

import (
	"context"
	"sort"
	"sync"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// MemoryStore keeps sessions and records in process memory, keyed by user
// ID. It is the default backend. Batch jobs and request handlers run on
// separate goroutines, so all map access is guarded by the mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	records  map[string][]models.DMRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		records:  make(map[string][]models.DMRecord),
	}
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() {}

// Ping always succeeds for the memory backend.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// PutSession stores or overwrites a user's session.
func (s *MemoryStore) PutSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = *sess
	return nil
}

// GetSession returns a user's session, or nil when none exists.
func (s *MemoryStore) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// DeleteSession removes a user's session and their record set.
func (s *MemoryStore) DeleteSession(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	delete(s.records, userID)
	return nil
}

// ListSessions returns all known sessions in user ID order.
func (s *MemoryStore) ListSessions(ctx context.Context) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sess := sess
		out = append(out, &sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// ReplaceRecords swaps the stored record set for a user.
func (s *MemoryStore) ReplaceRecords(ctx context.Context, userID string, records []models.DMRecord) error {
	cp := make([]models.DMRecord, len(records))
	copy(cp, records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = cp
	return nil
}

// GetRecords returns a copy of the current record set, empty when none.
func (s *MemoryStore) GetRecords(ctx context.Context, userID string) ([]models.DMRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.records[userID]
	cp := make([]models.DMRecord, len(stored))
	copy(cp, stored)
	return cp, nil
}

// DeleteRecords drops a user's record set.
func (s *MemoryStore) DeleteRecords(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}
