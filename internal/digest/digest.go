package digest

import (
	"math"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

const (
	// TopDelivered bounds the conversations listed in a delivered digest.
	TopDelivered = 5
	// TopPreview bounds the on-demand preview shown by the dashboard.
	TopPreview = 3
)

// Build aggregates one day's records into a digest. Records must be the
// stored set in its newest-first order; the top slice preserves that
// order without re-sorting. topN bounds TopConversations.
//
// The result is a pure function of its inputs: the same record set and
// date always produce the same digest.
func Build(records []models.DMRecord, date string, topN int) models.Digest {
	day := make([]models.DMRecord, 0)
	replies := 0
	for _, rec := range records {
		if rec.DateKey != date {
			continue
		}
		day = append(day, rec)
		if rec.HasReply {
			replies++
		}
	}

	rate := 0
	if len(day) > 0 {
		rate = int(math.Round(float64(replies) / float64(len(day)) * 100))
	}

	top := day
	if len(top) > topN {
		top = top[:topN]
	}

	return models.Digest{
		Date:             date,
		TotalSent:        len(day),
		TotalReplies:     replies,
		ReplyRatePercent: rate,
		TopConversations: top,
	}
}
