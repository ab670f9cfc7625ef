// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"go.ngs.io/forecast-api/internal/metrics"
)

// Purger drops cached model data.
type Purger interface {
	Purge()
}

// Scheduler periodically purges the gridded store caches so that new model
// runs written to disk are picked up.
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	interval  time.Duration
}

// New creates a new Scheduler.
func New(purger Purger, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    purger,
		interval:  interval,
	}
}

// Start schedules the purge job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	// The first run would purge caches that are still empty.
	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(s.purge)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) purge() {
	s.purger.Purge()
	metrics.CachePurges.Inc()
	log.Println("scheduler: purged gridded store caches")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
