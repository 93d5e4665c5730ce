package registry

import (
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// cronParser supports standard 5-field cron and descriptors like "@every 1m".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
// Exported for use by engine option validation.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Janitor evicts terminal projects whose completion timestamp is older
// than the retention window, firing on a cron schedule. Projects still
// running are never touched regardless of age.
type Janitor struct {
	registry *Registry
	retain   time.Duration
	schedule cronlib.Schedule
	logger   *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewJanitor creates a janitor sweeping on the given cron expression.
// retain must be positive; a zero or negative window means retention is
// unbounded and no janitor should exist.
func NewJanitor(r *Registry, retain time.Duration, schedule string, logger *slog.Logger) (*Janitor, error) {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		registry: r,
		retain:   retain,
		schedule: sched,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start launches the sweep loop.
func (j *Janitor) Start() {
	j.wg.Add(1)
	go j.loop()
	j.logger.Info("registry janitor started", slog.Duration("retain", j.retain))
}

// Stop signals the janitor to stop and waits for the loop to finish.
func (j *Janitor) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("registry janitor stopped")
}

func (j *Janitor) loop() {
	defer j.wg.Done()

	for {
		now := time.Now().UTC()
		next := j.schedule.Next(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-j.stopCh:
			timer.Stop()
			return
		case fired := <-timer.C:
			j.Sweep(fired.UTC())
		}
	}
}

// Sweep evicts every terminal project completed before now minus the
// retention window and returns how many were removed.
func (j *Janitor) Sweep(now time.Time) int {
	cutoff := now.Add(-j.retain)

	evicted := 0
	for _, p := range j.registry.List() {
		if !p.Terminal() || p.CompletedAt == nil {
			continue
		}
		if p.CompletedAt.After(cutoff) {
			continue
		}
		if j.registry.Evict(p.ID) {
			evicted++
		}
	}

	if evicted > 0 {
		j.logger.Info("registry sweep evicted projects",
			slog.Int("evicted", evicted),
			slog.Int("remaining", j.registry.Len()),
		)
	}
	return evicted
}
