package store

import (
	"context"
	"testing"
	"time"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

func testRecord(id string, sentAt time.Time) models.DMRecord {
	return models.DMRecord{ID: id, UserID: "U001", SentAt: sentAt, DateKey: sentAt.Format("2006-01-02")}
}

func TestReplaceAndGetRecords(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	got, err := st.GetRecords(ctx, "U001")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatal("unknown user must yield an empty set")
	}

	now := time.Now().UTC()
	first := []models.DMRecord{testRecord("a", now), testRecord("b", now.Add(-time.Hour))}
	if err := st.ReplaceRecords(ctx, "U001", first); err != nil {
		t.Fatal(err)
	}

	got, _ = st.GetRecords(ctx, "U001")
	if len(got) != 2 || got[0].ID != "a" {
		t.Fatalf("stored order must be preserved: %+v", got)
	}

	// Replace is wholesale, not a merge.
	second := []models.DMRecord{testRecord("c", now)}
	if err := st.ReplaceRecords(ctx, "U001", second); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetRecords(ctx, "U001")
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("replace must discard the prior set: %+v", got)
	}
}

func TestGetRecordsReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.ReplaceRecords(ctx, "U001", []models.DMRecord{testRecord("a", time.Now())}); err != nil {
		t.Fatal(err)
	}

	got, _ := st.GetRecords(ctx, "U001")
	got[0].ID = "mutated"

	again, _ := st.GetRecords(ctx, "U001")
	if again[0].ID != "a" {
		t.Fatal("callers must not be able to mutate stored records")
	}
}

func TestSessionLifecycle(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	sess, err := st.GetSession(ctx, "U001")
	if err != nil {
		t.Fatal(err)
	}
	if sess != nil {
		t.Fatal("unknown user must have no session")
	}

	if err := st.PutSession(ctx, &models.Session{UserID: "U001", AccessToken: "tok"}); err != nil {
		t.Fatal(err)
	}
	if err := st.ReplaceRecords(ctx, "U001", []models.DMRecord{testRecord("a", time.Now())}); err != nil {
		t.Fatal(err)
	}

	sess, _ = st.GetSession(ctx, "U001")
	if sess == nil || sess.AccessToken != "tok" {
		t.Fatalf("session round-trip failed: %+v", sess)
	}

	// Revoking the session drops the record set too.
	if err := st.DeleteSession(ctx, "U001"); err != nil {
		t.Fatal(err)
	}
	sess, _ = st.GetSession(ctx, "U001")
	if sess != nil {
		t.Fatal("session should be gone")
	}
	records, _ := st.GetRecords(ctx, "U001")
	if len(records) != 0 {
		t.Fatal("records should be gone with the session")
	}
}

func TestListSessionsOrdered(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"U003", "U001", "U002"} {
		if err := st.PutSession(ctx, &models.Session{UserID: id, AccessToken: "tok"}); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i, want := range []string{"U001", "U002", "U003"} {
		if sessions[i].UserID != want {
			t.Fatalf("sessions not ordered by user ID: %v", sessions)
		}
	}
}
