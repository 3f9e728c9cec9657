package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
	"github.com/harixx/slack-dm-tracker-web-app/internal/store"
)

func seedSessions(t *testing.T, st store.DataStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		err := st.PutSession(context.Background(), &models.Session{UserID: id, TeamID: "T001"})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunAllVisitsEveryUser(t *testing.T) {
	st := store.NewMemoryStore()
	seedSessions(t, st, "U001", "U002", "U003")
	r := NewRunner(st, nil, nil, zerolog.Nop(), time.Minute, 19, nil)

	var visited []string
	r.RunAll(context.Background(), "test", func(ctx context.Context, sess *models.Session) error {
		visited = append(visited, sess.UserID)
		return nil
	})

	if len(visited) != 3 {
		t.Fatalf("visited %d users, want 3", len(visited))
	}
}

func TestRunAllIsolatesFailures(t *testing.T) {
	st := store.NewMemoryStore()
	seedSessions(t, st, "U001", "U002", "U003")
	r := NewRunner(st, nil, nil, zerolog.Nop(), time.Minute, 19, nil)

	var visited []string
	r.RunAll(context.Background(), "test", func(ctx context.Context, sess *models.Session) error {
		visited = append(visited, sess.UserID)
		if sess.UserID == "U001" {
			return errors.New("token revoked")
		}
		return nil
	})

	// The first user failing must not stop the remaining users.
	if len(visited) != 3 {
		t.Fatalf("visited %d users after a failure, want 3", len(visited))
	}
}

func TestRunAllStopsOnCancel(t *testing.T) {
	st := store.NewMemoryStore()
	seedSessions(t, st, "U001", "U002", "U003")
	r := NewRunner(st, nil, nil, zerolog.Nop(), time.Minute, 19, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var visited int
	r.RunAll(ctx, "test", func(ctx context.Context, sess *models.Session) error {
		visited++
		cancel()
		return nil
	})

	if visited != 1 {
		t.Fatalf("visited %d users after cancellation, want 1", visited)
	}
}

func TestUntilNextHour(t *testing.T) {
	base := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Duration
	}{
		{"later today", base, 19, 3*time.Hour + 30*time.Minute},
		{"already passed, tomorrow", base, 9, 17*time.Hour + 30*time.Minute},
		{"exactly on the hour rolls over", time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC), 19, 24 * time.Hour},
		{"midnight hour", base, 0, 8*time.Hour + 30*time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := untilNextHour(tt.now, tt.hour)
			if got != tt.want {
				t.Fatalf("untilNextHour(%v, %d) = %v, want %v", tt.now, tt.hour, got, tt.want)
			}
		})
	}
}
