package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// ExpirySweeper runs the store's Sweep on a fixed cadence using gocron, the
// same scheduler library the teacher's knowledge reconciler uses for its
// own periodic reconciliation loop.
type ExpirySweeper struct {
	store    *Store
	cron     gocron.Scheduler
	interval time.Duration
}

// NewExpirySweeper builds a sweeper; call Start to begin the cadence and
// cancel the ctx passed to Start to stop it.
func NewExpirySweeper(store *Store, interval time.Duration) (*ExpirySweeper, error) {
	c, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating session expiry scheduler: %w", err)
	}
	return &ExpirySweeper{store: store, cron: c, interval: interval}, nil
}

// Start registers the recurring sweep job and blocks until ctx is done,
// shutting the scheduler down cleanly on exit (spec §4.9 "Expiry").
func (e *ExpirySweeper) Start(ctx context.Context) error {
	_, err := e.cron.NewJob(
		gocron.DurationJob(e.interval),
		gocron.NewTask(func() {
			removed := e.store.Sweep()
			if removed > 0 {
				log.Info().Int("removed", removed).Msg("session expiry sweep removed idle sessions")
			}
		}),
		gocron.WithName("session-expiry-sweep"),
	)
	if err != nil {
		return fmt.Errorf("scheduling session expiry sweep: %w", err)
	}

	e.cron.Start()
	<-ctx.Done()

	if err := e.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutting down session expiry scheduler: %w", err)
	}
	return nil
}
