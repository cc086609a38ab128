package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
)

func TestCastBallotRequiresRosterEntry(t *testing.T) {
	store := NewStore()
	ballot := entities.Ballot{BallotID: "ballot-1", ElectionID: "election-1", Ciphertext: "aa"}

	err := store.CastBallot(context.Background(), ballot, "voter-1")
	if !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	if count, _ := store.CountBallots(context.Background(), "election-1"); count != 0 {
		t.Fatalf("expected no ballots, got %d", count)
	}
}

func TestCastBallotFlipsExactlyOnce(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	if _, err := store.AddEligibleVoter(context.Background(), "voter-1", "election-1", now); err != nil {
		t.Fatalf("add voter: %v", err)
	}

	first := entities.Ballot{BallotID: "ballot-1", ElectionID: "election-1", Ciphertext: "aa"}
	if err := store.CastBallot(context.Background(), first, "voter-1"); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}

	second := entities.Ballot{BallotID: "ballot-2", ElectionID: "election-1", Ciphertext: "bb"}
	err := store.CastBallot(context.Background(), second, "voter-1")
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if count, _ := store.CountBallots(context.Background(), "election-1"); count != 1 {
		t.Fatalf("expected 1 ballot, got %d", count)
	}
}

func TestCastBallotConcurrentVoters(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	const voters = 32
	for i := 0; i < voters; i++ {
		if _, err := store.AddEligibleVoter(context.Background(), fmt.Sprintf("voter-%d", i), "election-1", now); err != nil {
			t.Fatalf("add voter: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ballot := entities.Ballot{
				BallotID:   fmt.Sprintf("ballot-%d", i),
				ElectionID: "election-1",
				Ciphertext: "aa",
			}
			if err := store.CastBallot(context.Background(), ballot, fmt.Sprintf("voter-%d", i)); err != nil {
				t.Errorf("cast %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if count, _ := store.CountBallots(context.Background(), "election-1"); count != voters {
		t.Fatalf("expected %d ballots, got %d", voters, count)
	}
}

func TestListBallotsPreservesAppendOrder(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		voterID := fmt.Sprintf("voter-%d", i)
		if _, err := store.AddEligibleVoter(context.Background(), voterID, "election-1", now); err != nil {
			t.Fatalf("add voter: %v", err)
		}
		ballot := entities.Ballot{
			BallotID:   fmt.Sprintf("ballot-%d", i),
			ElectionID: "election-1",
			Ciphertext: "aa",
		}
		if err := store.CastBallot(context.Background(), ballot, voterID); err != nil {
			t.Fatalf("cast %d failed: %v", i, err)
		}
	}

	ballots, err := store.ListBallots(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, ballot := range ballots {
		if want := fmt.Sprintf("ballot-%d", i); ballot.BallotID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, ballot.BallotID)
		}
	}
}

func TestAddEligibleVoterIdempotent(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	created, err := store.AddEligibleVoter(context.Background(), "voter-1", "election-1", now)
	if err != nil || !created {
		t.Fatalf("first add: created=%v err=%v", created, err)
	}
	created, err = store.AddEligibleVoter(context.Background(), "voter-1", "election-1", now)
	if err != nil || created {
		t.Fatalf("second add: created=%v err=%v", created, err)
	}

	// The same voter can appear on two rosters independently.
	created, err = store.AddEligibleVoter(context.Background(), "voter-1", "election-2", now)
	if err != nil || !created {
		t.Fatalf("other election add: created=%v err=%v", created, err)
	}
}

func TestGetElectionReturnsCopy(t *testing.T) {
	store := NewStore()
	election := entities.Election{ElectionID: "election-1", Title: "Board Election"}
	if err := store.SaveElection(context.Background(), election); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.GetElection(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	loaded.Title = "mutated"

	again, err := store.GetElection(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Title != "Board Election" {
		t.Fatalf("store leaked a mutable reference: %q", again.Title)
	}
}

func TestNewIDIsUnique(t *testing.T) {
	store := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := store.NewID(context.Background())
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
