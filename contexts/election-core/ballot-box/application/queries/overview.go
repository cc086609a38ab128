package queries

import (
	"context"
	"strings"

	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
	"safeballot/contexts/election-core/ballot-box/ports"
)

// ElectionOverview is the admin dashboard read model for one election.
type ElectionOverview struct {
	Election       entities.Election
	CandidateCount int
	EligibleVoters int
	BallotsCast    int
	TurnoutPercent float64
}

type OverviewUseCase struct {
	Elections   ports.ElectionRepository
	Candidates  ports.CandidateRepository
	Ballots     ports.BallotRepository
	Eligibility ports.EligibilityRepository
}

func (uc OverviewUseCase) ElectionOverview(ctx context.Context, electionID string, actor entities.Actor) (ElectionOverview, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return ElectionOverview{}, err
	}
	if !actor.CanManage(election) {
		return ElectionOverview{}, domainerrors.ErrForbidden
	}

	candidates, err := uc.Candidates.ListCandidates(ctx, election.ElectionID)
	if err != nil {
		return ElectionOverview{}, err
	}
	eligible, err := uc.Eligibility.CountEligible(ctx, election.ElectionID)
	if err != nil {
		return ElectionOverview{}, err
	}
	ballots, err := uc.Ballots.CountBallots(ctx, election.ElectionID)
	if err != nil {
		return ElectionOverview{}, err
	}

	overview := ElectionOverview{
		Election:       election,
		CandidateCount: len(candidates),
		EligibleVoters: eligible,
		BallotsCast:    ballots,
	}
	if eligible > 0 {
		overview.TurnoutPercent = round2(float64(ballots) / float64(eligible) * 100)
	}
	return overview, nil
}
