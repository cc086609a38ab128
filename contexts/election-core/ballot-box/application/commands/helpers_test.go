package commands

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

func (f *fixedClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

type seqIDGen struct {
	n int
}

func (g *seqIDGen) NewID(_ context.Context) (string, error) {
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

func newTestCodec(t *testing.T) *votecrypt.Codec {
	t.Helper()
	codec, err := votecrypt.New(bytes.Repeat([]byte{0x11}, votecrypt.KeySize))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return codec
}

func seedActiveElection(t *testing.T, store *memory.Store, electionID string, now time.Time) entities.Election {
	t.Helper()
	election := entities.Election{
		ElectionID: electionID,
		Title:      "Board Election",
		StartTime:  now.Add(-time.Hour),
		EndTime:    now.Add(time.Hour),
		Status:     entities.ElectionStatusActive,
		CreatedBy:  "admin-1",
		CreatedAt:  now.Add(-2 * time.Hour),
		UpdatedAt:  now.Add(-2 * time.Hour),
	}
	if err := store.SaveElection(context.Background(), election); err != nil {
		t.Fatalf("seed election: %v", err)
	}
	return election
}

func seedCandidate(t *testing.T, store *memory.Store, electionID string, candidateID string, name string) entities.Candidate {
	t.Helper()
	candidate := entities.Candidate{
		CandidateID: candidateID,
		ElectionID:  electionID,
		Name:        name,
	}
	if err := store.SaveCandidate(context.Background(), candidate); err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return candidate
}

func seedVoter(t *testing.T, store *memory.Store, electionID string, voterID string, now time.Time) {
	t.Helper()
	if _, err := store.AddEligibleVoter(context.Background(), voterID, electionID, now); err != nil {
		t.Fatalf("seed voter: %v", err)
	}
}
