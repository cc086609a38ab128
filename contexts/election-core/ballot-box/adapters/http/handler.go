package httpadapter

import (
	"context"
	"log/slog"

	"safeballot/contexts/election-core/ballot-box/application/commands"
	"safeballot/contexts/election-core/ballot-box/application/queries"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	httptransport "safeballot/contexts/election-core/ballot-box/transport/http"
)

// Handler adapts transport DTOs onto module use cases. The web layer
// resolves the Actor before calling in; nothing here re-authenticates.
type Handler struct {
	Admin    commands.ElectionAdminUseCase
	Roster   commands.RosterUseCase
	Cast     commands.CastVoteUseCase
	Publish  commands.PublishUseCase
	Tally    queries.TallyUseCase
	Export   queries.ExportUseCase
	Overview queries.OverviewUseCase
	Logger   *slog.Logger
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	actor entities.Actor,
	req httptransport.CreateElectionRequest,
) (httptransport.CreateElectionResponse, error) {
	result, err := h.Admin.CreateElection(ctx, commands.CreateElectionCommand{
		Actor:       actor,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return httptransport.CreateElectionResponse{}, err
	}
	return httptransport.CreateElectionResponse{
		Election:   electionResponse(result.Election),
		PublishKey: result.PublishKeyPlain,
	}, nil
}

func (h Handler) UpdateElectionHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	req httptransport.UpdateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Admin.UpdateElection(ctx, commands.UpdateElectionCommand{
		Actor:       actor,
		ElectionID:  electionID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(election), nil
}

func (h Handler) DeleteElectionHandler(ctx context.Context, actor entities.Actor, electionID string) error {
	return h.Admin.DeleteElection(ctx, actor, electionID)
}

func (h Handler) CreateCandidateHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	req httptransport.CandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Admin.CreateCandidate(ctx, commands.CandidateCommand{
		Actor:      actor,
		ElectionID: electionID,
		Name:       req.Name,
		Bio:        req.Bio,
		PhotoURL:   req.PhotoURL,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return candidateResponse(candidate), nil
}

func (h Handler) UpdateCandidateHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	candidateID string,
	req httptransport.CandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Admin.UpdateCandidate(ctx, commands.CandidateCommand{
		Actor:       actor,
		ElectionID:  electionID,
		CandidateID: candidateID,
		Name:        req.Name,
		Bio:         req.Bio,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return candidateResponse(candidate), nil
}

func (h Handler) DeleteCandidateHandler(ctx context.Context, actor entities.Actor, electionID string, candidateID string) error {
	return h.Admin.DeleteCandidate(ctx, actor, electionID, candidateID)
}

func (h Handler) ListCandidatesHandler(ctx context.Context, electionID string) (httptransport.CandidateListResponse, error) {
	candidates, err := h.Admin.Candidates.ListCandidates(ctx, electionID)
	if err != nil {
		return httptransport.CandidateListResponse{}, err
	}
	resp := httptransport.CandidateListResponse{
		Items: make([]httptransport.CandidateResponse, 0, len(candidates)),
	}
	for _, candidate := range candidates {
		resp.Items = append(resp.Items, candidateResponse(candidate))
	}
	return resp, nil
}

func (h Handler) ImportRosterHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	req httptransport.ImportRosterRequest,
) (httptransport.ImportRosterResponse, error) {
	result, err := h.Roster.ImportRoster(ctx, commands.ImportRosterCommand{
		Actor:      actor,
		ElectionID: electionID,
		VoterIDs:   req.VoterIDs,
	})
	if err != nil {
		return httptransport.ImportRosterResponse{}, err
	}
	return httptransport.ImportRosterResponse{
		Imported: result.Imported,
		Skipped:  result.Skipped,
	}, nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Cast.CastVote(ctx, commands.CastVoteCommand{
		VoterID:     actor.UserID,
		ElectionID:  electionID,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		ElectionID: result.ElectionID,
		CastAt:     result.CastAt,
	}, nil
}

func (h Handler) PublishElectionHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	req httptransport.PublishElectionRequest,
) (httptransport.PublishElectionResponse, error) {
	result, err := h.Publish.Publish(ctx, commands.PublishElectionCommand{
		Actor:      actor,
		ElectionID: electionID,
		Key:        req.Key,
		KeyConfirm: req.KeyConfirm,
	})
	if err != nil {
		return httptransport.PublishElectionResponse{}, err
	}
	return httptransport.PublishElectionResponse{
		ElectionID:  result.ElectionID,
		Status:      string(result.Status),
		PublishedAt: result.PublishedAt,
	}, nil
}

func (h Handler) RotatePublishKeyHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	req httptransport.RotatePublishKeyRequest,
) error {
	return h.Admin.RotatePublishKey(ctx, commands.RotatePublishKeyCommand{
		Actor:      actor,
		ElectionID: electionID,
		CurrentKey: req.CurrentKey,
		NewKey:     req.NewKey,
	})
}

func (h Handler) TallyHandler(ctx context.Context, actor entities.Actor, electionID string) (httptransport.TallyResponse, error) {
	tally, err := h.Tally.Tally(ctx, electionID, actor)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	resp := httptransport.TallyResponse{
		ElectionID:       tally.ElectionID,
		TotalBallots:     tally.TotalBallots,
		DecryptedVotes:   tally.DecryptedVotes,
		CorruptedBallots: tally.CorruptedBallots,
		TotalEligible:    tally.TotalEligible,
		TurnoutPercent:   tally.TurnoutPercent,
		Winners:          tally.Winners,
		WinnersDisplay:   tally.WinnersDisplay,
		MarginVotes:      tally.MarginVotes,
		MarginPercent:    tally.MarginPercent,
		Results:          make([]httptransport.ChoiceResultItem, 0, len(tally.Results)),
	}
	for _, row := range tally.Results {
		resp.Results = append(resp.Results, httptransport.ChoiceResultItem{
			Choice:     row.Choice,
			RawChoice:  row.RawChoice,
			Count:      row.Count,
			Percentage: row.Percentage,
		})
	}
	return resp, nil
}

func (h Handler) ExportCSVHandler(ctx context.Context, actor entities.Actor, electionID string) (queries.CSVExport, error) {
	return h.Export.ExportCSV(ctx, electionID, actor)
}

func (h Handler) ElectionOverviewHandler(ctx context.Context, actor entities.Actor, electionID string) (httptransport.ElectionOverviewResponse, error) {
	overview, err := h.Overview.ElectionOverview(ctx, electionID, actor)
	if err != nil {
		return httptransport.ElectionOverviewResponse{}, err
	}
	return httptransport.ElectionOverviewResponse{
		Election:       electionResponse(overview.Election),
		CandidateCount: overview.CandidateCount,
		EligibleVoters: overview.EligibleVoters,
		BallotsCast:    overview.BallotsCast,
		TurnoutPercent: overview.TurnoutPercent,
	}, nil
}

func (h Handler) ListElectionsHandler(ctx context.Context) (httptransport.ElectionListResponse, error) {
	elections, err := h.Admin.Elections.ListElections(ctx)
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	resp := httptransport.ElectionListResponse{
		Items: make([]httptransport.ElectionResponse, 0, len(elections)),
	}
	for _, election := range elections {
		resp.Items = append(resp.Items, electionResponse(election))
	}
	return resp, nil
}

func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.Admin.Elections.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(election), nil
}

func electionResponse(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:  election.ElectionID,
		Title:       election.Title,
		Description: election.Description,
		StartTime:   election.StartTime,
		EndTime:     election.EndTime,
		Status:      string(election.Status),
		CreatedBy:   election.CreatedBy,
		PublishedAt: election.PublishedAt,
		PublishedBy: election.PublishedBy,
	}
}

func candidateResponse(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		CandidateID: candidate.CandidateID,
		ElectionID:  candidate.ElectionID,
		Name:        candidate.Name,
		Bio:         candidate.Bio,
		PhotoURL:    candidate.PhotoURL,
	}
}
