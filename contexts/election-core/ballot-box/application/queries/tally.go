package queries

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	application "safeballot/contexts/election-core/ballot-box/application"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
	"safeballot/contexts/election-core/ballot-box/ports"
)

// TallyUseCase decrypts and aggregates the ballots of a concluded
// election. Tallying is order-independent: the result is a pure
// multiset count over whatever ballots decrypt cleanly.
type TallyUseCase struct {
	Elections   ports.ElectionRepository
	Candidates  ports.CandidateRepository
	Ballots     ports.BallotRepository
	Eligibility ports.EligibilityRepository
	Codec       ports.VoteCodec
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (uc TallyUseCase) Tally(ctx context.Context, electionID string, actor entities.Actor) (entities.TallyResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID = strings.TrimSpace(electionID)

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	now := uc.Clock.Now().UTC()
	if !election.ResultsVisible(now) {
		return entities.TallyResult{}, domainerrors.ErrResultsNotAvailable
	}
	if err := uc.checkVisibility(ctx, election, actor); err != nil {
		return entities.TallyResult{}, err
	}

	ballots, err := uc.Ballots.ListBallots(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}

	counts := make(map[string]int)
	corrupted := 0
	for _, ballot := range ballots {
		plaintext, err := uc.Codec.Decrypt(ballot.Ciphertext, electionID)
		if err != nil {
			// One poisoned record must not deny results to everyone:
			// skip it, but keep it visible to operators.
			corrupted++
			logger.Warn("ballot skipped during tally",
				"event", "tally_ballot_skipped",
				"module", "election-core/ballot-box",
				"layer", "application",
				"election_id", electionID,
				"ballot_id", ballot.BallotID,
				"error", err.Error(),
			)
			continue
		}
		counts[plaintext]++
	}

	result := entities.TallyResult{
		ElectionID:       electionID,
		TotalBallots:     len(ballots),
		CorruptedBallots: corrupted,
	}
	for _, count := range counts {
		result.DecryptedVotes += count
	}

	eligible, err := uc.Eligibility.CountEligible(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	result.TotalEligible = eligible
	if eligible > 0 {
		result.TurnoutPercent = round2(float64(result.TotalBallots) / float64(eligible) * 100)
	}

	names, err := uc.candidateNames(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}

	maxCount := 0
	for choice, count := range counts {
		percentage := 0.0
		if result.DecryptedVotes > 0 {
			percentage = round2(float64(count) / float64(result.DecryptedVotes) * 100)
		}
		result.Results = append(result.Results, entities.ChoiceResult{
			Choice:     displayChoice(choice, names),
			RawChoice:  choice,
			Count:      count,
			Percentage: percentage,
		})
		if count > maxCount {
			maxCount = count
		}
	}
	sort.Slice(result.Results, func(i, j int) bool {
		if result.Results[i].Count == result.Results[j].Count {
			return result.Results[i].RawChoice < result.Results[j].RawChoice
		}
		return result.Results[i].Count > result.Results[j].Count
	})

	for _, row := range result.Results {
		if row.Count == maxCount && maxCount > 0 {
			result.Winners = append(result.Winners, row.RawChoice)
			result.WinnersDisplay = append(result.WinnersDisplay, row.Choice)
		}
	}
	sort.Strings(result.Winners)

	if len(result.Winners) == 1 {
		second := 0
		for _, row := range result.Results {
			if row.Count < maxCount && row.Count > second {
				second = row.Count
			}
		}
		result.MarginVotes = maxCount - second
		if result.DecryptedVotes > 0 {
			result.MarginPercent = round2(float64(result.MarginVotes) / float64(result.DecryptedVotes) * 100)
		}
	}

	return result, nil
}

// checkVisibility scopes results: superadmins see everything, owning
// admins their elections, voters only elections they are eligible for.
// Anything else reads as results-not-available rather than leaking the
// election's existence.
func (uc TallyUseCase) checkVisibility(ctx context.Context, election entities.Election, actor entities.Actor) error {
	if actor.CanManage(election) {
		return nil
	}
	_, eligible, err := uc.Eligibility.GetEligibility(ctx, actor.UserID, election.ElectionID)
	if err != nil {
		return err
	}
	if !eligible {
		return domainerrors.ErrResultsNotAvailable
	}
	return nil
}

func (uc TallyUseCase) candidateNames(ctx context.Context, electionID string) (map[string]string, error) {
	candidates, err := uc.Candidates.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(candidates))
	for _, candidate := range candidates {
		names[candidate.CandidateID] = candidate.Name
	}
	return names, nil
}

// displayChoice maps candidate:<id> tokens to display names. Unmapped
// ids (candidate deleted after voting) fall back to the raw token.
func displayChoice(choice string, names map[string]string) string {
	if id, ok := entities.ChoiceCandidateID(choice); ok {
		if name, ok := names[id]; ok {
			return name
		}
	}
	return choice
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
