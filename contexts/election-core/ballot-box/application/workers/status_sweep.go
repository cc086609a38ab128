package workers

import (
	"context"
	"log/slog"
	"time"

	application "safeballot/contexts/election-core/ballot-box/application"
	"safeballot/contexts/election-core/ballot-box/ports"
)

// StatusSweep keeps election statuses aligned with their time windows
// for elections nobody is requesting. Per-request lazy sync remains the
// correctness mechanism; the sweep only bounds how stale an idle
// election's status can get.
type StatusSweep struct {
	Elections ports.ElectionRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

// RunOnce applies the pure status transition to every election and
// persists the ones that moved. It keeps going past individual save
// failures so one bad row cannot stall the sweep.
func (s StatusSweep) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	elections, err := s.Elections.ListElections(ctx)
	if err != nil {
		logger.Error("status sweep list failed",
			"event", "status_sweep_list_failed",
			"module", "election-core/ballot-box",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	transitions := 0
	for _, election := range elections {
		synced, changed := election.SyncStatus(now)
		if !changed {
			continue
		}
		if err := s.Elections.SaveElection(ctx, synced); err != nil {
			logger.Error("status sweep save failed",
				"event", "status_sweep_save_failed",
				"module", "election-core/ballot-box",
				"layer", "worker",
				"election_id", election.ElectionID,
				"error", err.Error(),
			)
			continue
		}
		transitions++
		logger.Info("election status transitioned",
			"event", "status_sweep_transition",
			"module", "election-core/ballot-box",
			"layer", "worker",
			"election_id", election.ElectionID,
			"status", string(synced.Status),
		)
	}

	logger.Debug("status sweep cycle finished",
		"event", "status_sweep_finished",
		"module", "election-core/ballot-box",
		"layer", "worker",
		"elections", len(elections),
		"transitions", transitions,
	)
	return nil
}

// Run executes RunOnce on every tick until the context is cancelled.
// Cancellation is a clean shutdown, not an error.
func (s StatusSweep) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}
