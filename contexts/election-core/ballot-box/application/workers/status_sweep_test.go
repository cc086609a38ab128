package workers

import (
	"context"
	"testing"
	"time"

	"safeballot/contexts/election-core/ballot-box/adapters/memory"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func TestRunOnceTransitionsElections(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	pendingDue := entities.Election{
		ElectionID: "due",
		Title:      "Due",
		StartTime:  now.Add(-time.Minute),
		EndTime:    now.Add(time.Hour),
		Status:     entities.ElectionStatusPending,
	}
	activeOver := entities.Election{
		ElectionID: "over",
		Title:      "Over",
		StartTime:  now.Add(-2 * time.Hour),
		EndTime:    now.Add(-time.Minute),
		Status:     entities.ElectionStatusActive,
	}
	untouched := entities.Election{
		ElectionID: "future",
		Title:      "Future",
		StartTime:  now.Add(time.Hour),
		EndTime:    now.Add(2 * time.Hour),
		Status:     entities.ElectionStatusPending,
	}
	for _, election := range []entities.Election{pendingDue, activeOver, untouched} {
		if err := store.SaveElection(context.Background(), election); err != nil {
			t.Fatalf("seed %s: %v", election.ElectionID, err)
		}
	}

	sweep := StatusSweep{Elections: store, Clock: fixedClock{now: now}}
	if err := sweep.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	assertStatus(t, store, "due", entities.ElectionStatusActive)
	assertStatus(t, store, "over", entities.ElectionStatusConcluded)
	assertStatus(t, store, "future", entities.ElectionStatusPending)

	concluded, err := store.GetElection(context.Background(), "over")
	if err != nil {
		t.Fatalf("get over: %v", err)
	}
	if concluded.PublishedAt == nil || !concluded.PublishedAt.Equal(now) {
		t.Fatalf("expected conclusion timestamp %s, got %v", now, concluded.PublishedAt)
	}
}

func TestRunOnceIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	election := entities.Election{
		ElectionID: "over",
		Title:      "Over",
		StartTime:  now.Add(-2 * time.Hour),
		EndTime:    now.Add(-time.Hour),
		Status:     entities.ElectionStatusActive,
	}
	if err := store.SaveElection(context.Background(), election); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sweep := StatusSweep{Elections: store, Clock: fixedClock{now: now}}
	if err := sweep.RunOnce(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	first, err := store.GetElection(context.Background(), "over")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	later := fixedClock{now: now.Add(time.Hour)}
	sweep.Clock = later
	if err := sweep.RunOnce(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	second, err := store.GetElection(context.Background(), "over")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !second.PublishedAt.Equal(*first.PublishedAt) {
		t.Fatalf("conclusion timestamp moved: %s then %s", first.PublishedAt, second.PublishedAt)
	}
}

func assertStatus(t *testing.T, store *memory.Store, electionID string, want entities.ElectionStatus) {
	t.Helper()
	election, err := store.GetElection(context.Background(), electionID)
	if err != nil {
		t.Fatalf("get %s: %v", electionID, err)
	}
	if election.Status != want {
		t.Fatalf("%s: expected %s, got %s", electionID, want, election.Status)
	}
}
