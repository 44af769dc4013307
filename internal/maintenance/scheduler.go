// Package maintenance runs periodic housekeeping for a serving process:
// expired memo entries are swept and a health snapshot is logged.
package maintenance

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"datecalc/internal/calc"
	appLog "datecalc/internal/log"
	"datecalc/internal/notes"
)

// Snapshot is the result of one housekeeping pass.
type Snapshot struct {
	Notes      int
	CacheSize  int
	Expired    int
	Goroutines int
	HeapAlloc  uint64
}

// Scheduler triggers RunOnce on a cron schedule. A Scheduler built from an
// empty schedule is disabled: Run blocks until ctx ends and does nothing else.
type Scheduler struct {
	spec   string
	cron   *cron.Cron
	engine *calc.Engine
	notes  notes.Store
}

// New validates spec (standard five-field cron syntax) and returns a
// scheduler for it.
func New(spec string, engine *calc.Engine, store notes.Store) (*Scheduler, error) {
	s := &Scheduler{spec: spec, engine: engine, notes: store}
	if spec == "" {
		return s, nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.Wrapf(err, "invalid maintenance schedule %q", spec)
	}
	s.cron = cron.New()
	return s, nil
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool { return s.cron != nil }

// RunOnce sweeps the memo cache and collects a health snapshot.
func (s *Scheduler) RunOnce(ctx context.Context) Snapshot {
	var snap Snapshot
	if c := s.engine.Cache(); c != nil {
		snap.Expired = c.CleanupExpired()
		snap.CacheSize = c.Size()
	}
	if s.notes != nil {
		n, err := s.notes.Len(ctx)
		if err != nil {
			appLog.Error("maintenance: note count failed", err)
		}
		snap.Notes = n
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap.HeapAlloc = ms.HeapAlloc
	snap.Goroutines = runtime.NumGoroutine()

	appLog.Info("maintenance pass",
		"notes", snap.Notes,
		"cache_size", snap.CacheSize,
		"cache_expired", snap.Expired,
		"goroutines", snap.Goroutines,
		"heap_bytes", snap.HeapAlloc,
	)
	return snap
}

// Run starts the schedule and blocks until ctx is cancelled, then waits
// for a pass in progress to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.Enabled() {
		appLog.Info("maintenance disabled")
		<-ctx.Done()
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return errors.Wrap(err, "schedule maintenance")
	}
	appLog.Info("maintenance scheduled", "cron", s.spec)
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
