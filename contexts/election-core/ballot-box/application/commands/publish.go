package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "safeballot/contexts/election-core/ballot-box/application"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
	"safeballot/contexts/election-core/ballot-box/ports"
)

// PublishElectionCommand requests the open->concluded transition. Key
// is required for an early publish unless the caller is a superuser or
// the election already passed its end time. KeyConfirm is only read on
// first-time setup, when no digest is stored yet.
type PublishElectionCommand struct {
	Actor      entities.Actor
	ElectionID string
	Key        string
	KeyConfirm string
}

type PublishResult struct {
	ElectionID  string
	Status      entities.ElectionStatus
	PublishedAt time.Time
}

// PublishUseCase is the key-verified, rate-limited publish gate. The
// key defends against a single compromised admin session ending an
// election early; the lockout defends the key against brute force.
type PublishUseCase struct {
	Elections ports.ElectionRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc PublishUseCase) Publish(ctx context.Context, cmd PublishElectionCommand) (PublishResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if electionID == "" {
		return PublishResult{}, domainerrors.ErrElectionNotFound
	}

	now := uc.Clock.Now().UTC()
	election, err := syncedElection(ctx, uc.Elections, electionID, now, logger)
	if err != nil {
		return PublishResult{}, err
	}
	if !cmd.Actor.CanManage(election) {
		return PublishResult{}, domainerrors.ErrForbidden
	}

	if election.Status == entities.ElectionStatusConcluded {
		// Time-based sync already concluded it; record the actor once.
		if election.PublishedBy == "" {
			election.PublishedBy = cmd.Actor.UserID
			if err := uc.Elections.SaveElection(ctx, election); err != nil {
				return PublishResult{}, err
			}
		}
		return publishResult(election), nil
	}

	bypass := cmd.Actor.IsSuperAdmin() || !now.Before(election.EndTime)
	if !bypass {
		if remaining, locked := election.PublishLocked(now); locked {
			return PublishResult{}, fmt.Errorf("%w: retry in %s",
				domainerrors.ErrPublishRateLimited, remaining.Round(time.Second))
		}
		key := strings.TrimSpace(cmd.Key)
		if election.PublishKeyHash != "" {
			if key == "" {
				return PublishResult{}, domainerrors.ErrPublishKeyRequired
			}
			if HashPublishKey(key) != election.PublishKeyHash {
				failed := election.RegisterFailedPublishAttempt(now)
				if err := uc.Elections.SaveElection(ctx, failed); err != nil {
					return PublishResult{}, err
				}
				logger.Warn("publish key rejected",
					"event", "election_publish_key_rejected",
					"module", "election-core/ballot-box",
					"layer", "application",
					"election_id", electionID,
					"locked", failed.PublishBlockedUntil != nil,
				)
				return PublishResult{}, domainerrors.ErrInvalidPublishKey
			}
		} else {
			// First publish with no key on file: the admin sets one now.
			confirm := strings.TrimSpace(cmd.KeyConfirm)
			if key == "" || confirm == "" {
				return PublishResult{}, domainerrors.ErrPublishKeyRequired
			}
			if key != confirm {
				return PublishResult{}, domainerrors.ErrPublishKeyMismatch
			}
			election.PublishKeyHash = HashPublishKey(key)
		}
	}

	election = election.Conclude(now, cmd.Actor.UserID)
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return PublishResult{}, err
	}
	logger.Info("election published",
		"event", "election_published",
		"module", "election-core/ballot-box",
		"layer", "application",
		"election_id", electionID,
		"bypass", bypass,
	)
	return publishResult(election), nil
}

func publishResult(election entities.Election) PublishResult {
	result := PublishResult{
		ElectionID: election.ElectionID,
		Status:     election.Status,
	}
	if election.PublishedAt != nil {
		result.PublishedAt = *election.PublishedAt
	}
	return result
}

// HashPublishKey is the stored digest form of a publish key. Only the
// digest is persisted; the plaintext key lives with the administrator.
func HashPublishKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
