package store

import (
	"context"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// DataStore defines the interface for session and DM record storage.
// MemoryStore, SQLiteStore and PostgresStore implement this interface.
//
// Record sets are owned wholesale per user: ReplaceRecords swaps the
// entire set in the order given by the caller (newest first), and
// GetRecords returns that order. There is no merge or append path.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Session operations
	PutSession(ctx context.Context, sess *models.Session) error
	GetSession(ctx context.Context, userID string) (*models.Session, error)
	DeleteSession(ctx context.Context, userID string) error
	ListSessions(ctx context.Context) ([]*models.Session, error)

	// Record operations
	ReplaceRecords(ctx context.Context, userID string, records []models.DMRecord) error
	GetRecords(ctx context.Context, userID string) ([]models.DMRecord, error)
	DeleteRecords(ctx context.Context, userID string) error
}
