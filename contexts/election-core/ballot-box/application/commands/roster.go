package commands

import (
	"context"
	"log/slog"
	"strings"

	application "safeballot/contexts/election-core/ballot-box/application"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
	"safeballot/contexts/election-core/ballot-box/ports"
)

// ImportRosterCommand registers voters as eligible for an election.
// Parsing of upload formats stays in the web layer; the core takes the
// resolved voter ids.
type ImportRosterCommand struct {
	Actor      entities.Actor
	ElectionID string
	VoterIDs   []string
}

type ImportRosterResult struct {
	Imported int
	Skipped  int
}

type RosterUseCase struct {
	Elections   ports.ElectionRepository
	Eligibility ports.EligibilityRepository
	Clock       ports.Clock
	Logger      *slog.Logger
}

// ImportRoster creates Eligible(has_voted=false) records. Importing a
// voter already on the roster is a no-op, so re-running an import is
// safe.
func (uc RosterUseCase) ImportRoster(ctx context.Context, cmd ImportRosterCommand) (ImportRosterResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if electionID == "" || len(cmd.VoterIDs) == 0 {
		return ImportRosterResult{}, domainerrors.ErrInvalidRosterInput
	}

	now := uc.Clock.Now().UTC()
	election, err := syncedElection(ctx, uc.Elections, electionID, now, logger)
	if err != nil {
		return ImportRosterResult{}, err
	}
	if !cmd.Actor.CanManage(election) {
		return ImportRosterResult{}, domainerrors.ErrForbidden
	}

	var result ImportRosterResult
	for _, raw := range cmd.VoterIDs {
		voterID := strings.TrimSpace(raw)
		if voterID == "" {
			result.Skipped++
			continue
		}
		created, err := uc.Eligibility.AddEligibleVoter(ctx, voterID, electionID, now)
		if err != nil {
			logger.Error("roster import write failed",
				"event", "roster_import_write_failed",
				"module", "election-core/ballot-box",
				"layer", "application",
				"election_id", electionID,
				"error", err.Error(),
			)
			return ImportRosterResult{}, err
		}
		if created {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	logger.Info("roster import finished",
		"event", "roster_import_finished",
		"module", "election-core/ballot-box",
		"layer", "application",
		"election_id", electionID,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}
