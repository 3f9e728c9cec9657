package dmsync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harixx/slack-dm-tracker-web-app/internal/metrics"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
	"github.com/harixx/slack-dm-tracker-web-app/internal/slackclient"
	"github.com/harixx/slack-dm-tracker-web-app/internal/store"
)

// lookbackWindow bounds how far back conversation history is fetched.
const lookbackWindow = 7 * 24 * time.Hour

// Syncer pulls a user's DM history, recomputes reply state from scratch
// and replaces the stored record set wholesale.
type Syncer struct {
	slack  slackclient.API
	store  store.DataStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewSyncer creates a Syncer. now is injectable for tests; pass nil for
// the wall clock.
func NewSyncer(api slackclient.API, st store.DataStore, logger zerolog.Logger, now func() time.Time) *Syncer {
	if now == nil {
		now = time.Now
	}
	return &Syncer{slack: api, store: st, logger: logger, now: now}
}

// Sync performs one full sync for the session's user. It returns the new
// record set (newest first) and the number of conversations skipped after
// per-conversation fetch errors. A failure listing conversations aborts
// the sync; a failure inside one conversation only drops that
// conversation.
func (s *Syncer) Sync(ctx context.Context, sess *models.Session) ([]models.DMRecord, int, error) {
	channels, err := s.slack.ListIMChannels(ctx, sess.AccessToken)
	if err != nil {
		metrics.SyncsTotal.WithLabelValues("error").Inc()
		return nil, 0, fmt.Errorf("sync for %s: %w", sess.UserID, err)
	}

	oldest := s.now().Add(-lookbackWindow)
	records := make([]models.DMRecord, 0, len(channels))
	skipped := 0

	for _, ch := range channels {
		conv, err := s.fetchConversation(ctx, sess.AccessToken, ch, oldest)
		if err != nil {
			skipped++
			metrics.ConversationsSkipped.Inc()
			s.logger.Warn().
				Str("user_id", sess.UserID).
				Str("channel_id", ch.ID).
				Err(err).
				Msg("skipping conversation")
			continue
		}
		records = append(records, buildRecords(sess, conv)...)
	}

	// Newest first; this ordering is what digest top-N slicing relies on.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SentAt.After(records[j].SentAt)
	})

	if err := s.store.ReplaceRecords(ctx, sess.UserID, records); err != nil {
		metrics.SyncsTotal.WithLabelValues("error").Inc()
		return nil, skipped, fmt.Errorf("store records for %s: %w", sess.UserID, err)
	}

	metrics.SyncsTotal.WithLabelValues("success").Inc()
	metrics.SyncRecords.Observe(float64(len(records)))
	s.logger.Info().
		Str("user_id", sess.UserID).
		Int("records", len(records)).
		Int("skipped", skipped).
		Msg("dm sync completed")
	return records, skipped, nil
}

// fetchConversation loads one conversation's windowed history and the
// counterpart's profile.
func (s *Syncer) fetchConversation(ctx context.Context, token string, ch slackclient.IMChannel, oldest time.Time) (*models.Conversation, error) {
	msgs, err := s.slack.ChannelHistory(ctx, token, ch.ID, oldest)
	if err != nil {
		return nil, err
	}
	info, err := s.slack.UserInfo(ctx, token, ch.UserID)
	if err != nil {
		return nil, err
	}

	name := info.RealName
	if name == "" {
		name = info.Name
	}
	return &models.Conversation{
		ChannelID:       ch.ID,
		CounterpartID:   ch.UserID,
		RecipientName:   name,
		RecipientAvatar: info.Avatar,
		Messages:        msgs,
	}, nil
}

// buildRecords turns one resolved conversation into outbound DM records.
func buildRecords(sess *models.Session, conv *models.Conversation) []models.DMRecord {
	resolutions := ResolveReplies(sess.UserID, conv.CounterpartID, conv.Messages)

	records := make([]models.DMRecord, 0, len(resolutions))
	for _, res := range resolutions {
		sentAt := tsTime(res.Message.TS)
		rec := models.DMRecord{
			ID:              conv.ChannelID + "_" + res.Message.TS,
			UserID:          sess.UserID,
			RecipientID:     conv.CounterpartID,
			RecipientName:   conv.RecipientName,
			RecipientAvatar: conv.RecipientAvatar,
			Text:            res.Message.Text,
			SentAt:          sentAt,
			HasReply:        res.HasReply,
			Permalink:       permalink(sess.TeamDomain, conv.ChannelID, res.Message.TS),
			DateKey:         sentAt.Format("2006-01-02"),
			ChannelID:       conv.ChannelID,
		}
		if res.HasReply {
			replyAt := tsTime(res.ReplyTS)
			rec.ReplyAt = &replyAt
		}
		records = append(records, rec)
	}
	return records
}

// permalink builds the deep link into the provider's web UI.
func permalink(teamDomain, channelID, ts string) string {
	domain := teamDomain
	if domain == "" {
		domain = "app"
	}
	return "https://" + domain + ".slack.com/archives/" + channelID + "/p" + strings.Replace(ts, ".", "", 1)
}
