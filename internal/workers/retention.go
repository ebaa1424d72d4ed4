// Package workers holds out-of-band jobs scheduled with cron, kept off the
// request path.
package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/loadlink/loadlink-backend/internal/services"
)

// RetentionSweep periodically deletes location samples past the retention
// window.
type RetentionSweep struct {
	tracker *services.LocationTracker
	log     *zap.Logger
}

func NewRetentionSweep(tracker *services.LocationTracker, log *zap.Logger) *RetentionSweep {
	return &RetentionSweep{tracker: tracker, log: log}
}

// Schedule is the cron expression the sweep runs on: daily at 03:00.
func (s *RetentionSweep) Schedule() string { return "0 3 * * *" }

// Execute runs one sweep.
func (s *RetentionSweep) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.tracker.PruneExpired(ctx); err != nil {
		s.log.Error("location retention sweep", zap.Error(err))
	}
}

// Start schedules the sweep and begins the cron loop. The returned cron can
// be stopped on shutdown.
func Start(sweep *RetentionSweep, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(sweep.Schedule(), sweep.Execute); err != nil {
		log.Error("schedule retention sweep", zap.Error(err))
		return nil, err
	}

	c.Start()
	return c, nil
}
