package jobs

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/harixx/slack-dm-tracker-web-app/internal/digest"
	"github.com/harixx/slack-dm-tracker-web-app/internal/dmsync"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
	"github.com/harixx/slack-dm-tracker-web-app/internal/store"
)

// userTask is one unit of batch work, applied to a single user's session.
// Keeping this a plain func lets a pooled or rate-limited executor
// replace the sequential loop without touching per-user logic.
type userTask func(ctx context.Context, sess *models.Session) error

// Runner drives the two time-triggered batch jobs: the short-interval
// full resync and the once-daily digest broadcast. Users are processed
// sequentially and failure-isolated; one user's error never halts the
// loop over the rest.
type Runner struct {
	store    store.DataStore
	syncer   *dmsync.Syncer
	notifier *digest.Notifier
	logger   zerolog.Logger

	syncInterval time.Duration
	digestHour   int
	now          func() time.Time
}

// NewRunner creates a Runner. now is injectable for tests; pass nil for
// the wall clock.
func NewRunner(st store.DataStore, syncer *dmsync.Syncer, notifier *digest.Notifier, logger zerolog.Logger, syncInterval time.Duration, digestHour int, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{
		store:        st,
		syncer:       syncer,
		notifier:     notifier,
		logger:       logger,
		syncInterval: syncInterval,
		digestHour:   digestHour,
		now:          now,
	}
}

// Start launches both job loops. They stop when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go r.syncLoop(ctx)
	go r.digestLoop(ctx)
	r.logger.Info().
		Dur("sync_interval", r.syncInterval).
		Int("digest_hour", r.digestHour).
		Msg("batch jobs started")
}

func (r *Runner) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(r.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunAll(ctx, "resync", func(ctx context.Context, sess *models.Session) error {
				_, _, err := r.syncer.Sync(ctx, sess)
				return err
			})
		}
	}
}

func (r *Runner) digestLoop(ctx context.Context) {
	for {
		wait := untilNextHour(r.now(), r.digestHour)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			r.RunAll(ctx, "digest", func(ctx context.Context, sess *models.Session) error {
				_, err := r.notifier.SendDaily(ctx, sess.UserID)
				return err
			})
		}
	}
}

// RunAll applies task to every known session in turn. Each user is
// failure-isolated: errors are logged and the loop continues.
func (r *Runner) RunAll(ctx context.Context, name string, task userTask) {
	runID := ulid.Make().String()
	log := r.logger.With().Str("job", name).Str("run_id", runID).Logger()

	sessions, err := r.store.ListSessions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		return
	}

	failed := 0
	for _, sess := range sessions {
		if ctx.Err() != nil {
			return
		}
		if err := task(ctx, sess); err != nil {
			failed++
			log.Warn().Err(err).Str("user_id", sess.UserID).Msg("per-user task failed")
		}
	}

	log.Info().Int("users", len(sessions)).Int("failed", failed).Msg("batch job completed")
}

// untilNextHour returns the duration until the next occurrence of the
// given local hour, always in the future.
func untilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
