package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harixx/slack-dm-tracker-web-app/internal/metrics"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
	"github.com/harixx/slack-dm-tracker-web-app/internal/slackclient"
	"github.com/harixx/slack-dm-tracker-web-app/internal/store"
)

// previewLen caps the quoted message text in each rendered
// conversation line.
const previewLen = 50

// Notifier renders digests and delivers them back to the user as a DM.
type Notifier struct {
	slack  slackclient.API
	store  store.DataStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewNotifier creates a Notifier. now is injectable for tests; pass nil
// for the wall clock.
func NewNotifier(api slackclient.API, st store.DataStore, logger zerolog.Logger, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{slack: api, store: st, logger: logger, now: now}
}

// SendDaily builds today's digest for the user and DMs it to them.
// A missing session is a silent no-op, so one revoked installation never
// fails a broadcast; a failed send is returned to the caller.
func (n *Notifier) SendDaily(ctx context.Context, userID string) (*models.Digest, error) {
	sess, err := n.store.GetSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("session for %s: %w", userID, err)
	}
	if sess == nil {
		metrics.DigestsSent.WithLabelValues("skipped").Inc()
		n.logger.Debug().Str("user_id", userID).Msg("no session, skipping digest")
		return nil, nil
	}

	records, err := n.store.GetRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("records for %s: %w", userID, err)
	}

	today := n.now().UTC().Format("2006-01-02")
	d := Build(records, today, TopDelivered)

	if err := n.slack.PostMessage(ctx, sess.DeliveryToken(), userID, Format(d)); err != nil {
		metrics.DigestsSent.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("deliver digest to %s: %w", userID, err)
	}

	metrics.DigestsSent.WithLabelValues("success").Inc()
	n.logger.Info().
		Str("user_id", userID).
		Int("sent", d.TotalSent).
		Int("replies", d.TotalReplies).
		Msg("digest delivered")
	return &d, nil
}

// Format renders a digest as the fixed-template DM text.
func Format(d models.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Daily DM Digest - %s*\n\n", d.Date)
	fmt.Fprintf(&b, "📤 Messages sent: %d\n", d.TotalSent)
	fmt.Fprintf(&b, "💬 Replies received: %d\n", d.TotalReplies)
	fmt.Fprintf(&b, "📈 Reply rate: %d%%\n\n", d.ReplyRatePercent)

	if len(d.TopConversations) > 0 {
		b.WriteString("🔥 *Top conversations:*\n")
		for _, rec := range d.TopConversations {
			glyph := "❌"
			if rec.HasReply {
				glyph = "✅"
			}
			fmt.Fprintf(&b, "• %s: \"%s\" %s\n", rec.RecipientName, truncate(rec.Text, previewLen), glyph)
		}
	} else {
		b.WriteString("No messages sent today.\n")
	}

	b.WriteString("\nKeep up the great communication! 🚀")
	return b.String()
}

// truncate cuts s to at most n runes, appending an ellipsis marker when
// anything was dropped.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
