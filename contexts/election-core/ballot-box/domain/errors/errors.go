package errors

import "errors"

var (
	ErrElectionNotFound      = errors.New("election not found")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrInvalidElectionInput  = errors.New("invalid election input")
	ErrInvalidCandidateInput = errors.New("invalid candidate input")
	ErrInvalidVoteInput      = errors.New("invalid vote input")
	ErrInvalidRosterInput    = errors.New("invalid roster input")

	ErrNotEligible     = errors.New("voter is not eligible for this election")
	ErrAlreadyVoted    = errors.New("voter has already voted in this election")
	ErrElectionNotOpen = errors.New("election is not open for voting")

	ErrResultsNotAvailable = errors.New("results are not available")

	ErrForbidden = errors.New("not allowed")

	ErrPublishKeyRequired = errors.New("publish key is required")
	ErrInvalidPublishKey  = errors.New("invalid publish key")
	ErrPublishKeyMismatch = errors.New("publish keys do not match")
	ErrPublishRateLimited = errors.New("too many failed publish attempts")
)
