package digest

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

func record(id, dateKey string, sentAt time.Time, hasReply bool) models.DMRecord {
	return models.DMRecord{
		ID:       id,
		UserID:   "U001",
		SentAt:   sentAt,
		HasReply: hasReply,
		DateKey:  dateKey,
	}
}

func dayRecords(n, replied int, dateKey string) []models.DMRecord {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	records := make([]models.DMRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, record(
			fmt.Sprintf("D001_%d", i),
			dateKey,
			base.Add(-time.Duration(i)*time.Minute), // newest first
			i < replied,
		))
	}
	return records
}

func TestReplyRate(t *testing.T) {
	d := Build(dayRecords(4, 3, "2024-06-01"), "2024-06-01", TopDelivered)
	if d.TotalSent != 4 || d.TotalReplies != 3 {
		t.Fatalf("counts: sent=%d replies=%d", d.TotalSent, d.TotalReplies)
	}
	if d.ReplyRatePercent != 75 {
		t.Fatalf("expected 75%%, got %d", d.ReplyRatePercent)
	}
}

func TestEmptyDayIsZeroRate(t *testing.T) {
	d := Build(nil, "2024-06-01", TopDelivered)
	if d.TotalSent != 0 || d.TotalReplies != 0 || d.ReplyRatePercent != 0 {
		t.Fatalf("empty day: %+v", d)
	}
	if len(d.TopConversations) != 0 {
		t.Fatal("empty day must have no top conversations")
	}
}

func TestRateStaysInRange(t *testing.T) {
	for sent := 0; sent <= 10; sent++ {
		for replied := 0; replied <= sent; replied++ {
			d := Build(dayRecords(sent, replied, "2024-06-01"), "2024-06-01", TopDelivered)
			if d.ReplyRatePercent < 0 || d.ReplyRatePercent > 100 {
				t.Fatalf("rate out of range for %d/%d: %d", replied, sent, d.ReplyRatePercent)
			}
			if sent == 0 && d.ReplyRatePercent != 0 {
				t.Fatal("rate must be 0 when nothing was sent")
			}
		}
	}
}

func TestTopConversationsBounded(t *testing.T) {
	records := dayRecords(8, 2, "2024-06-01")

	d := Build(records, "2024-06-01", TopDelivered)
	if len(d.TopConversations) != TopDelivered {
		t.Fatalf("expected %d top conversations, got %d", TopDelivered, len(d.TopConversations))
	}
	// Prefix of the stored order, no re-sorting.
	if !reflect.DeepEqual(d.TopConversations, records[:TopDelivered]) {
		t.Fatal("top conversations must be the stored-order prefix")
	}

	preview := Build(records, "2024-06-01", TopPreview)
	if len(preview.TopConversations) != TopPreview {
		t.Fatalf("expected %d preview conversations, got %d", TopPreview, len(preview.TopConversations))
	}
}

func TestOtherDaysFilteredOut(t *testing.T) {
	records := append(dayRecords(2, 1, "2024-06-01"), dayRecords(3, 0, "2024-05-31")...)
	d := Build(records, "2024-06-01", TopDelivered)
	if d.TotalSent != 2 {
		t.Fatalf("expected 2 records for the target date, got %d", d.TotalSent)
	}
	for _, rec := range d.TopConversations {
		if rec.DateKey != "2024-06-01" {
			t.Fatalf("record from wrong day leaked into digest: %s", rec.DateKey)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	records := dayRecords(6, 4, "2024-06-01")
	a := Build(records, "2024-06-01", TopDelivered)
	b := Build(records, "2024-06-01", TopDelivered)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same inputs must produce the same digest")
	}
}
