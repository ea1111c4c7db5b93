// Package scheduler provides the periodic content refresh for the
// vademecum API. It triggers full rebuild cycles through the load
// orchestrator at a configurable interval and monitors data staleness.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/oroya/vademecum-api/data"
	"github.com/oroya/vademecum-api/interfaces"
	"github.com/oroya/vademecum-api/logging"
)

// Compile-time check to ensure Scheduler implements the Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Refresher rebuilds the full dataset tier on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs refresh cycles against the orchestrator on an interval.
type Scheduler struct {
	container *data.Container
	refresher Refresher
	scheduler *gocron.Scheduler
	interval  time.Duration
	stop      chan struct{}
}

// NewScheduler creates a scheduler that refreshes every interval.
func NewScheduler(container *data.Container, refresher Refresher, interval time.Duration) *Scheduler {
	return &Scheduler{
		container: container,
		refresher: refresher,
		scheduler: gocron.NewScheduler(time.Local),
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

// Start schedules periodic refresh cycles and staleness monitoring. The
// initial load is the orchestrator's job; the scheduler only keeps the
// dataset fresh afterwards.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.runRefresh()
	})
	if err != nil {
		logging.Error("Failed to schedule refresh cycles", "error", err)
		return fmt.Errorf("failed to schedule refresh cycles: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.stop)
}

// runRefresh performs one refresh cycle with a generous deadline.
func (s *Scheduler) runRefresh() {
	logging.Info(fmt.Sprintf("Starting content refresh at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		logging.Error("Content refresh failed", "error", err)
		return
	}

	elapsed := time.Since(start)
	logging.Info("Content refresh completed",
		"duration", elapsed.String(),
		"procedure_count", len(s.container.GetProcedures()))
}

// startStalenessMonitoring warns when the dataset has not been refreshed
// within two intervals.
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdate := s.container.GetLastUpdated()
				if lastUpdate.IsZero() {
					continue
				}
				if time.Since(lastUpdate) > 2*s.interval {
					logging.Warn("Dataset has not been refreshed in over two intervals",
						"last_updated", lastUpdate.Format(time.RFC3339))
				}
			}
		}
	}()
}
