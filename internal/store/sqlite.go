package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/dmtracker.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/dmtracker.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist. Record rows carry an
// explicit position so the caller's newest-first ordering survives
// round-trips exactly.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		user_id        TEXT PRIMARY KEY,
		team_id        TEXT NOT NULL DEFAULT '',
		team_name      TEXT NOT NULL DEFAULT '',
		team_domain    TEXT NOT NULL DEFAULT '',
		access_token   TEXT NOT NULL,
		bot_token      TEXT NOT NULL DEFAULT '',
		user_name      TEXT NOT NULL DEFAULT '',
		user_real_name TEXT NOT NULL DEFAULT '',
		user_avatar    TEXT NOT NULL DEFAULT '',
		created_at     DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dm_records (
		user_id          TEXT NOT NULL,
		id               TEXT NOT NULL,
		position         INTEGER NOT NULL,
		recipient_id     TEXT NOT NULL,
		recipient_name   TEXT NOT NULL DEFAULT '',
		recipient_avatar TEXT NOT NULL DEFAULT '',
		text             TEXT NOT NULL DEFAULT '',
		sent_at          DATETIME NOT NULL,
		has_reply        INTEGER NOT NULL DEFAULT 0,
		reply_at         DATETIME,
		permalink        TEXT NOT NULL DEFAULT '',
		date_key         TEXT NOT NULL,
		channel_id       TEXT NOT NULL,
		PRIMARY KEY (user_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_dm_records_user_position ON dm_records(user_id, position);
	CREATE INDEX IF NOT EXISTS idx_dm_records_user_date ON dm_records(user_id, date_key);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PutSession stores or overwrites a user's session.
func (s *SQLiteStore) PutSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, team_id, team_name, team_domain, access_token, bot_token, user_name, user_real_name, user_avatar, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			team_id = excluded.team_id,
			team_name = excluded.team_name,
			team_domain = excluded.team_domain,
			access_token = excluded.access_token,
			bot_token = excluded.bot_token,
			user_name = excluded.user_name,
			user_real_name = excluded.user_real_name,
			user_avatar = excluded.user_avatar,
			created_at = excluded.created_at
	`, sess.UserID, sess.TeamID, sess.TeamName, sess.TeamDomain, sess.AccessToken, sess.BotToken,
		sess.UserName, sess.UserRealName, sess.UserAvatar, sess.CreatedAt)
	return err
}

// GetSession retrieves a user's session, or nil when none exists.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	sess := &models.Session{}
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, team_id, team_name, team_domain, access_token, bot_token, user_name, user_real_name, user_avatar, created_at
		FROM sessions WHERE user_id = ?
	`, userID).Scan(
		&sess.UserID, &sess.TeamID, &sess.TeamName, &sess.TeamDomain,
		&sess.AccessToken, &sess.BotToken,
		&sess.UserName, &sess.UserRealName, &sess.UserAvatar, &sess.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// DeleteSession removes a user's session and their record set.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dm_records WHERE user_id = ?`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListSessions returns all known sessions in user ID order.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, team_id, team_name, team_domain, access_token, bot_token, user_name, user_real_name, user_avatar, created_at
		FROM sessions ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		sess := &models.Session{}
		if err := rows.Scan(
			&sess.UserID, &sess.TeamID, &sess.TeamName, &sess.TeamDomain,
			&sess.AccessToken, &sess.BotToken,
			&sess.UserName, &sess.UserRealName, &sess.UserAvatar, &sess.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ReplaceRecords atomically swaps the stored record set for a user.
func (s *SQLiteStore) ReplaceRecords(ctx context.Context, userID string, records []models.DMRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dm_records WHERE user_id = ?`, userID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dm_records (user_id, id, position, recipient_id, recipient_name, recipient_avatar, text, sent_at, has_reply, reply_at, permalink, date_key, channel_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		var replyAt interface{}
		if rec.ReplyAt != nil {
			replyAt = rec.ReplyAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			userID, rec.ID, i, rec.RecipientID, rec.RecipientName, rec.RecipientAvatar,
			rec.Text, rec.SentAt.UTC(), rec.HasReply, replyAt, rec.Permalink, rec.DateKey, rec.ChannelID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetRecords returns the stored record set in its stored (newest-first)
// order, empty when none.
func (s *SQLiteStore) GetRecords(ctx context.Context, userID string) ([]models.DMRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_id, recipient_name, recipient_avatar, text, sent_at, has_reply, reply_at, permalink, date_key, channel_id
		FROM dm_records WHERE user_id = ? ORDER BY position
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.DMRecord{}
	for rows.Next() {
		rec := models.DMRecord{UserID: userID}
		var replyAt sql.NullTime
		if err := rows.Scan(
			&rec.ID, &rec.RecipientID, &rec.RecipientName, &rec.RecipientAvatar,
			&rec.Text, &rec.SentAt, &rec.HasReply, &replyAt, &rec.Permalink, &rec.DateKey, &rec.ChannelID,
		); err != nil {
			return nil, err
		}
		rec.SentAt = rec.SentAt.UTC()
		if replyAt.Valid {
			t := replyAt.Time.UTC()
			rec.ReplyAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRecords drops a user's record set.
func (s *SQLiteStore) DeleteRecords(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM dm_records WHERE user_id = ?`, userID)
	return err
}
