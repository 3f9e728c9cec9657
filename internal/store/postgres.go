package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool
// and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
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
		created_at     TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dm_records (
		user_id          TEXT NOT NULL,
		id               TEXT NOT NULL,
		position         INTEGER NOT NULL,
		recipient_id     TEXT NOT NULL,
		recipient_name   TEXT NOT NULL DEFAULT '',
		recipient_avatar TEXT NOT NULL DEFAULT '',
		text             TEXT NOT NULL DEFAULT '',
		sent_at          TIMESTAMPTZ NOT NULL,
		has_reply        BOOLEAN NOT NULL DEFAULT FALSE,
		reply_at         TIMESTAMPTZ,
		permalink        TEXT NOT NULL DEFAULT '',
		date_key         TEXT NOT NULL,
		channel_id       TEXT NOT NULL,
		PRIMARY KEY (user_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_dm_records_user_position ON dm_records(user_id, position);
	CREATE INDEX IF NOT EXISTS idx_dm_records_user_date ON dm_records(user_id, date_key);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// PutSession stores or overwrites a user's session.
func (s *PostgresStore) PutSession(ctx context.Context, sess *models.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (user_id, team_id, team_name, team_domain, access_token, bot_token, user_name, user_real_name, user_avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			team_name = EXCLUDED.team_name,
			team_domain = EXCLUDED.team_domain,
			access_token = EXCLUDED.access_token,
			bot_token = EXCLUDED.bot_token,
			user_name = EXCLUDED.user_name,
			user_real_name = EXCLUDED.user_real_name,
			user_avatar = EXCLUDED.user_avatar,
			created_at = EXCLUDED.created_at
	`, sess.UserID, sess.TeamID, sess.TeamName, sess.TeamDomain, sess.AccessToken, sess.BotToken,
		sess.UserName, sess.UserRealName, sess.UserAvatar, sess.CreatedAt)
	return err
}

// GetSession retrieves a user's session, or nil when none exists.
func (s *PostgresStore) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	sess := &models.Session{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, team_id, team_name, team_domain, access_token, bot_token, user_name, user_real_name, user_avatar, created_at
		FROM sessions WHERE user_id = $1
	`, userID).Scan(
		&sess.UserID, &sess.TeamID, &sess.TeamName, &sess.TeamDomain,
		&sess.AccessToken, &sess.BotToken,
		&sess.UserName, &sess.UserRealName, &sess.UserAvatar, &sess.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// DeleteSession removes a user's session and their record set.
func (s *PostgresStore) DeleteSession(ctx context.Context, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM dm_records WHERE user_id = $1`, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListSessions returns all known sessions in user ID order.
func (s *PostgresStore) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.pool.Query(ctx, `
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
func (s *PostgresStore) ReplaceRecords(ctx context.Context, userID string, records []models.DMRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM dm_records WHERE user_id = $1`, userID); err != nil {
		return err
	}

	for i, rec := range records {
		var replyAt *time.Time
		if rec.ReplyAt != nil {
			t := rec.ReplyAt.UTC()
			replyAt = &t
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO dm_records (user_id, id, position, recipient_id, recipient_name, recipient_avatar, text, sent_at, has_reply, reply_at, permalink, date_key, channel_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, userID, rec.ID, i, rec.RecipientID, rec.RecipientName, rec.RecipientAvatar,
			rec.Text, rec.SentAt.UTC(), rec.HasReply, replyAt, rec.Permalink, rec.DateKey, rec.ChannelID,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetRecords returns the stored record set in its stored (newest-first)
// order, empty when none.
func (s *PostgresStore) GetRecords(ctx context.Context, userID string) ([]models.DMRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipient_id, recipient_name, recipient_avatar, text, sent_at, has_reply, reply_at, permalink, date_key, channel_id
		FROM dm_records WHERE user_id = $1 ORDER BY position
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.DMRecord{}
	for rows.Next() {
		rec := models.DMRecord{UserID: userID}
		var replyAt *time.Time
		if err := rows.Scan(
			&rec.ID, &rec.RecipientID, &rec.RecipientName, &rec.RecipientAvatar,
			&rec.Text, &rec.SentAt, &rec.HasReply, &replyAt, &rec.Permalink, &rec.DateKey, &rec.ChannelID,
		); err != nil {
			return nil, err
		}
		rec.SentAt = rec.SentAt.UTC()
		if replyAt != nil {
			t := replyAt.UTC()
			rec.ReplyAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRecords drops a user's record set.
func (s *PostgresStore) DeleteRecords(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM dm_records WHERE user_id = $1`, userID)
	return err
}
