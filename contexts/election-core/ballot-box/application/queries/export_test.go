package queries

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"safeballot/contexts/election-core/ballot-box/adapters/memory"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
)

func TestExportCSVRowsAndOrdering(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t)

	seedEndedElection(t, store, "election-1", now)
	seedCandidate(t, store, "election-1", "candidate-a", "Alice")
	seedCandidate(t, store, "election-1", "candidate-b", "Bob")
	castBallot(t, store, codec, "election-1", "voter-1", "candidate-b", now.Add(-2*time.Hour))
	castBallot(t, store, codec, "election-1", "voter-2", "candidate-a", now.Add(-2*time.Hour))
	castBallot(t, store, codec, "election-1", "voter-3", "candidate-b", now.Add(-2*time.Hour))

	useCase := ExportUseCase{Tally: newTallyUseCase(store, codec, &fixedClock{now: now})}
	export, err := useCase.ExportCSV(context.Background(), "election-1", adminActor)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if export.Filename != "results_election-1.csv" {
		t.Fatalf("unexpected filename %q", export.Filename)
	}

	want := "choice,count\n" +
		"candidate:candidate-b,2\n" +
		"candidate:candidate-a,1\n"
	if string(export.Body) != want {
		t.Fatalf("unexpected csv body:\n%s", export.Body)
	}
}

func TestExportCSVIsByteStable(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t)

	seedEndedElection(t, store, "election-1", now)
	seedCandidate(t, store, "election-1", "candidate-a", "Alice")
	seedCandidate(t, store, "election-1", "candidate-b", "Bob")
	castBallot(t, store, codec, "election-1", "voter-1", "candidate-a", now.Add(-2*time.Hour))
	castBallot(t, store, codec, "election-1", "voter-2", "candidate-b", now.Add(-2*time.Hour))

	useCase := ExportUseCase{Tally: newTallyUseCase(store, codec, &fixedClock{now: now})}
	first, err := useCase.ExportCSV(context.Background(), "election-1", adminActor)
	if err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	second, err := useCase.ExportCSV(context.Background(), "election-1", adminActor)
	if err != nil {
		t.Fatalf("second export failed: %v", err)
	}
	if !bytes.Equal(first.Body, second.Body) {
		t.Fatalf("export not byte-stable:\n%s\n%s", first.Body, second.Body)
	}
}

func TestExportCSVInheritsVisibilityRules(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t)
	seedEndedElection(t, store, "election-1", now)

	useCase := ExportUseCase{Tally: newTallyUseCase(store, codec, &fixedClock{now: now})}
	_, err := useCase.ExportCSV(context.Background(), "election-1", entities.Actor{UserID: "stranger", Role: entities.RoleVoter})
	if !errors.Is(err, domainerrors.ErrResultsNotAvailable) {
		t.Fatalf("expected ErrResultsNotAvailable, got %v", err)
	}
}
