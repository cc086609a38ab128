package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "safeballot/contexts/election-core/ballot-box/application"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
	"safeballot/contexts/election-core/ballot-box/ports"
)

// CastVoteCommand is the write-model input for casting one ballot.
type CastVoteCommand struct {
	VoterID     string
	ElectionID  string
	CandidateID string
}

// CastVoteResult acknowledges a stored ballot without linking it back
// to the voter.
type CastVoteResult struct {
	ElectionID string
	CastAt     time.Time
}

// CastVoteUseCase enforces the cast-once guard: eligibility, the
// half-open voting window, candidate ownership, then encrypt-append-flip
// through the atomic ballot box.
type CastVoteUseCase struct {
	Elections   ports.ElectionRepository
	Candidates  ports.CandidateRepository
	Eligibility ports.EligibilityRepository
	BallotBox   ports.BallotBox
	Codec       ports.VoteCodec
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc CastVoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	electionID := strings.TrimSpace(cmd.ElectionID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	if voterID == "" || electionID == "" || candidateID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	now := uc.Clock.Now().UTC()
	election, err := syncedElection(ctx, uc.Elections, electionID, now, logger)
	if err != nil {
		return CastVoteResult{}, err
	}

	record, found, err := uc.Eligibility.GetEligibility(ctx, voterID, electionID)
	if err != nil {
		logger.Error("vote cast eligibility lookup failed",
			"event", "ballot_cast_eligibility_lookup_failed",
			"module", "election-core/ballot-box",
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}
	if !found {
		return CastVoteResult{}, domainerrors.ErrNotEligible
	}
	if record.HasVoted {
		return CastVoteResult{}, domainerrors.ErrAlreadyVoted
	}
	if !election.OpenForVoting(now) {
		return CastVoteResult{}, domainerrors.ErrElectionNotOpen
	}

	candidate, err := uc.Candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if candidate.ElectionID != electionID {
		return CastVoteResult{}, domainerrors.ErrCandidateNotFound
	}

	// Ciphertext is bound to the election id so it cannot be relinked
	// to another election later.
	ciphertext, err := uc.Codec.Encrypt(entities.CandidateChoice(candidateID), electionID)
	if err != nil {
		logger.Error("vote cast encryption failed",
			"event", "ballot_cast_encrypt_failed",
			"module", "election-core/ballot-box",
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return CastVoteResult{}, fmt.Errorf("encrypt ballot: %w", err)
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	ballot := entities.Ballot{
		BallotID:   ballotID,
		ElectionID: electionID,
		Ciphertext: ciphertext,
		CreatedAt:  now,
	}
	if err := uc.BallotBox.CastBallot(ctx, ballot, voterID); err != nil {
		return CastVoteResult{}, err
	}

	// Voter identity is deliberately not logged next to the ballot.
	logger.Info("ballot stored",
		"event", "ballot_cast_stored",
		"module", "election-core/ballot-box",
		"layer", "application",
		"election_id", electionID,
	)
	return CastVoteResult{ElectionID: electionID, CastAt: now}, nil
}

// syncedElection loads an election and applies the pure status sync,
// persisting the transition when one fired.
func syncedElection(
	ctx context.Context,
	repo ports.ElectionRepository,
	electionID string,
	now time.Time,
	logger *slog.Logger,
) (entities.Election, error) {
	election, err := repo.GetElection(ctx, electionID)
	if err != nil {
		return entities.Election{}, err
	}
	synced, changed := election.SyncStatus(now)
	if changed {
		if err := repo.SaveElection(ctx, synced); err != nil {
			logger.Error("election status sync persist failed",
				"event", "election_status_sync_failed",
				"module", "election-core/ballot-box",
				"layer", "application",
				"election_id", electionID,
				"error", err.Error(),
			)
			return entities.Election{}, err
		}
	}
	return synced, nil
}
