// Package jobs runs the background schedule. One job exists: the periodic
// housekeeping tick, a safety net for quiet hours when no update arrives to
// trigger the opportunistic tick.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"licensebot/internal/config"
	"licensebot/internal/features/cleanup"
)

// Scheduler owns the cron instance.
type Scheduler struct {
	cron           *cron.Cron
	cleanupService *cleanup.Service
	spec           string
}

// NewScheduler creates the scheduler in the configured timezone.
func NewScheduler(cfg *config.Config, cleanupService *cleanup.Service) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.WithError(err).Warnf("failed to load %s, falling back to UTC+7", cfg.Timezone)
		loc = time.FixedZone("WIB", 7*60*60)
	}

	return &Scheduler{
		cron:           cron.New(cron.WithLocation(loc)),
		cleanupService: cleanupService,
		spec:           cfg.CronTickSpec,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		log.Debug("[CRON] housekeeping tick")
		s.cleanupService.Tick(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.WithField("spec", s.spec).Info("scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("scheduler stopped")
}
