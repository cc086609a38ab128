package queries

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"safeballot/contexts/election-core/ballot-box/adapters/memory"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	"safeballot/internal/platform/votecrypt"
)

type fixedClock struct {
	now time.Time
}

func (f *fixedClock) Now() time.Time { return f.now }

func newTestCodec(t *testing.T) *votecrypt.Codec {
	t.Helper()
	codec, err := votecrypt.New(bytes.Repeat([]byte{0x42}, votecrypt.KeySize))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return codec
}

// seedEndedElection stores an election whose voting window closed an
// hour before now, which is enough for results to become visible.
func seedEndedElection(t *testing.T, store *memory.Store, electionID string, now time.Time) entities.Election {
	t.Helper()
	election := entities.Election{
		ElectionID: electionID,
		Title:      "Board Election",
		StartTime:  now.Add(-3 * time.Hour),
		EndTime:    now.Add(-time.Hour),
		Status:     entities.ElectionStatusActive,
		CreatedBy:  "admin-1",
		CreatedAt:  now.Add(-4 * time.Hour),
		UpdatedAt:  now.Add(-4 * time.Hour),
	}
	if err := store.SaveElection(context.Background(), election); err != nil {
		t.Fatalf("seed election: %v", err)
	}
	return election
}

func seedCandidate(t *testing.T, store *memory.Store, electionID string, candidateID string, name string) {
	t.Helper()
	candidate := entities.Candidate{
		CandidateID: candidateID,
		ElectionID:  electionID,
		Name:        name,
	}
	if err := store.SaveCandidate(context.Background(), candidate); err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
}

var ballotSeq int

// castBallot registers the voter, encrypts the choice and drops it in
// the ballot box, mirroring what the cast use case persists.
func castBallot(t *testing.T, store *memory.Store, codec *votecrypt.Codec, electionID string, voterID string, candidateID string, now time.Time) {
	t.Helper()
	if _, err := store.AddEligibleVoter(context.Background(), voterID, electionID, now); err != nil {
		t.Fatalf("add voter: %v", err)
	}
	ciphertext, err := codec.Encrypt(entities.CandidateChoice(candidateID), electionID)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ballotSeq++
	ballot := entities.Ballot{
		BallotID:   fmt.Sprintf("ballot-%d", ballotSeq),
		ElectionID: electionID,
		Ciphertext: ciphertext,
		CreatedAt:  now,
	}
	if err := store.CastBallot(context.Background(), ballot, voterID); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
}

func newTallyUseCase(store *memory.Store, codec *votecrypt.Codec, clock *fixedClock) TallyUseCase {
	return TallyUseCase{
		Elections:   store,
		Candidates:  store,
		Ballots:     store,
		Eligibility: store,
		Codec:       codec,
		Clock:       clock,
	}
}
