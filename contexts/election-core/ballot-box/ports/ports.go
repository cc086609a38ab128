package ports

import (
	"context"
	"time"

	"safeballot/contexts/election-core/ballot-box/domain/entities"
)

type ElectionRepository interface {
	SaveElection(ctx context.Context, election entities.Election) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	// DeleteElection cascades to candidates, ballots and eligibility
	// records owned by the election.
	DeleteElection(ctx context.Context, electionID string) error
}

type CandidateRepository interface {
	SaveCandidate(ctx context.Context, candidate entities.Candidate) error
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	ListCandidates(ctx context.Context, electionID string) ([]entities.Candidate, error)
	DeleteCandidate(ctx context.Context, candidateID string) error
}

type BallotRepository interface {
	// ListBallots returns ballots in append order.
	ListBallots(ctx context.Context, electionID string) ([]entities.Ballot, error)
	CountBallots(ctx context.Context, electionID string) (int, error)
}

type EligibilityRepository interface {
	// AddEligibleVoter is idempotent; it reports whether a record was
	// created (false when the voter was already on the roster).
	AddEligibleVoter(ctx context.Context, voterID string, electionID string, now time.Time) (bool, error)
	GetEligibility(ctx context.Context, voterID string, electionID string) (entities.EligibilityRecord, bool, error)
	CountEligible(ctx context.Context, electionID string) (int, error)
}

// BallotBox persists a cast: the ballot append and the has-voted flip
// happen in one atomic step. Implementations return ErrNotEligible when
// no eligibility record exists and ErrAlreadyVoted when the flag was
// already set, including when a concurrent cast won the flip.
type BallotBox interface {
	CastBallot(ctx context.Context, ballot entities.Ballot, voterID string) error
}

// VoteCodec seals and opens vote plaintexts. Associated data is the
// owning election id.
type VoteCodec interface {
	Encrypt(plaintext string, associatedData string) (string, error)
	Decrypt(token string, associatedData string) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
