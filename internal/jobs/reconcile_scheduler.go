// Package jobs wires long-running background work onto a cron scheduler.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"freightflow/internal/config"
	"freightflow/internal/service"
)

// StartReconcileScheduler runs the status reconciler on the configured cron
// schedule. Overlapping runs are safe: reconciliation is idempotent, so a
// tick that fires while the previous sweep is still finishing only repeats
// harmless work.
func StartReconcileScheduler(cfg config.ReconcileConfig, rec *service.Reconciler, log zerolog.Logger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.TimeZone).Msg("invalid timezone, falling back to UTC")
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		start := time.Now()
		log.Info().Str("schedule", cfg.Schedule).Msg("reconciliation sweep starting")
		if err := rec.RunAll(context.Background()); err != nil {
			log.Error().Err(err).Msg("reconciliation sweep failed")
			return
		}
		log.Info().Dur("duration", time.Since(start)).Msg("reconciliation sweep finished")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reconciler: %w", err)
	}

	c.Start()
	log.Info().Str("schedule", cfg.Schedule).Str("timezone", loc.String()).Msg("reconciliation scheduler started")
	return c, nil
}
