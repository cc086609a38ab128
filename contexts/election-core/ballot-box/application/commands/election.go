package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "safeballot/contexts/election-core/ballot-box/application"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
	"safeballot/contexts/election-core/ballot-box/ports"
)

type CreateElectionCommand struct {
	Actor       entities.Actor
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

// CreateElectionResult returns the stored election plus the generated
// publish key in plaintext. The key is shown exactly once; only its
// digest is persisted.
type CreateElectionResult struct {
	Election        entities.Election
	PublishKeyPlain string
}

type UpdateElectionCommand struct {
	Actor       entities.Actor
	ElectionID  string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

type CandidateCommand struct {
	Actor       entities.Actor
	ElectionID  string
	CandidateID string
	Name        string
	Bio         string
	PhotoURL    string
}

type RotatePublishKeyCommand struct {
	Actor      entities.Actor
	ElectionID string
	CurrentKey string
	NewKey     string
}

// ElectionAdminUseCase owns election and candidate administration.
// Voters never reach these commands; the transport layer resolves the
// actor role before calling in.
type ElectionAdminUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc ElectionAdminUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (CreateElectionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !cmd.Actor.IsAdmin() {
		return CreateElectionResult{}, domainerrors.ErrForbidden
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" || cmd.StartTime.IsZero() || cmd.EndTime.IsZero() || !cmd.StartTime.Before(cmd.EndTime) {
		return CreateElectionResult{}, domainerrors.ErrInvalidElectionInput
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateElectionResult{}, err
	}
	keyPlain, err := newPublishKey()
	if err != nil {
		return CreateElectionResult{}, err
	}

	now := uc.Clock.Now().UTC()
	election := entities.Election{
		ElectionID:     electionID,
		Title:          title,
		Description:    strings.TrimSpace(cmd.Description),
		StartTime:      cmd.StartTime.UTC(),
		EndTime:        cmd.EndTime.UTC(),
		Status:         entities.ElectionStatusPending,
		CreatedBy:      cmd.Actor.UserID,
		PublishKeyHash: HashPublishKey(keyPlain),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	election, _ = election.SyncStatus(now)
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return CreateElectionResult{}, err
	}
	logger.Info("election created",
		"event", "election_created",
		"module", "election-core/ballot-box",
		"layer", "application",
		"election_id", electionID,
	)
	return CreateElectionResult{Election: election, PublishKeyPlain: keyPlain}, nil
}

func (uc ElectionAdminUseCase) UpdateElection(ctx context.Context, cmd UpdateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.Election{}, err
	}
	if !cmd.Actor.CanManage(election) {
		return entities.Election{}, domainerrors.ErrForbidden
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" || cmd.StartTime.IsZero() || cmd.EndTime.IsZero() || !cmd.StartTime.Before(cmd.EndTime) {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}

	now := uc.Clock.Now().UTC()
	election.Title = title
	election.Description = strings.TrimSpace(cmd.Description)
	election.StartTime = cmd.StartTime.UTC()
	election.EndTime = cmd.EndTime.UTC()
	election.UpdatedAt = now
	// Editing the window can move an active election back to pending,
	// but never reopens a concluded one.
	election, _ = election.SyncStatus(now)
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election updated",
		"event", "election_updated",
		"module", "election-core/ballot-box",
		"layer", "application",
		"election_id", election.ElectionID,
	)
	return election, nil
}

func (uc ElectionAdminUseCase) DeleteElection(ctx context.Context, actor entities.Actor, electionID string) error {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return err
	}
	if !actor.CanManage(election) {
		return domainerrors.ErrForbidden
	}
	return uc.Elections.DeleteElection(ctx, election.ElectionID)
}

func (uc ElectionAdminUseCase) CreateCandidate(ctx context.Context, cmd CandidateCommand) (entities.Candidate, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.Candidate{}, err
	}
	if !cmd.Actor.CanManage(election) {
		return entities.Candidate{}, domainerrors.ErrForbidden
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Candidate{}, domainerrors.ErrInvalidCandidateInput
	}

	candidateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Candidate{}, err
	}
	now := uc.Clock.Now().UTC()
	candidate := entities.Candidate{
		CandidateID: candidateID,
		ElectionID:  election.ElectionID,
		Name:        name,
		Bio:         strings.TrimSpace(cmd.Bio),
		PhotoURL:    strings.TrimSpace(cmd.PhotoURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Candidates.SaveCandidate(ctx, candidate); err != nil {
		return entities.Candidate{}, err
	}
	return candidate, nil
}

func (uc ElectionAdminUseCase) UpdateCandidate(ctx context.Context, cmd CandidateCommand) (entities.Candidate, error) {
	candidate, err := uc.Candidates.GetCandidate(ctx, strings.TrimSpace(cmd.CandidateID))
	if err != nil {
		return entities.Candidate{}, err
	}
	if candidate.ElectionID != strings.TrimSpace(cmd.ElectionID) {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	election, err := uc.Elections.GetElection(ctx, candidate.ElectionID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if !cmd.Actor.CanManage(election) {
		return entities.Candidate{}, domainerrors.ErrForbidden
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Candidate{}, domainerrors.ErrInvalidCandidateInput
	}

	candidate.Name = name
	candidate.Bio = strings.TrimSpace(cmd.Bio)
	if photo := strings.TrimSpace(cmd.PhotoURL); photo != "" {
		candidate.PhotoURL = photo
	}
	candidate.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Candidates.SaveCandidate(ctx, candidate); err != nil {
		return entities.Candidate{}, err
	}
	return candidate, nil
}

func (uc ElectionAdminUseCase) DeleteCandidate(ctx context.Context, actor entities.Actor, electionID string, candidateID string) error {
	candidate, err := uc.Candidates.GetCandidate(ctx, strings.TrimSpace(candidateID))
	if err != nil {
		return err
	}
	if candidate.ElectionID != strings.TrimSpace(electionID) {
		return domainerrors.ErrCandidateNotFound
	}
	election, err := uc.Elections.GetElection(ctx, candidate.ElectionID)
	if err != nil {
		return err
	}
	if !actor.CanManage(election) {
		return domainerrors.ErrForbidden
	}
	return uc.Candidates.DeleteCandidate(ctx, candidate.CandidateID)
}

// RotatePublishKey replaces the publish-key digest after verifying the
// current key, and clears the rate-limit state.
func (uc ElectionAdminUseCase) RotatePublishKey(ctx context.Context, cmd RotatePublishKeyCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return err
	}
	if !cmd.Actor.CanManage(election) {
		return domainerrors.ErrForbidden
	}
	newKey := strings.TrimSpace(cmd.NewKey)
	if newKey == "" {
		return domainerrors.ErrPublishKeyRequired
	}
	if election.PublishKeyHash != "" &&
		HashPublishKey(strings.TrimSpace(cmd.CurrentKey)) != election.PublishKeyHash {
		return domainerrors.ErrInvalidPublishKey
	}

	election.PublishKeyHash = HashPublishKey(newKey)
	election.PublishAttempts = 0
	election.PublishBlockedUntil = nil
	election.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return err
	}
	logger.Info("publish key rotated",
		"event", "election_publish_key_rotated",
		"module", "election-core/ballot-box",
		"layer", "application",
		"election_id", election.ElectionID,
	)
	return nil
}

func newPublishKey() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate publish key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
