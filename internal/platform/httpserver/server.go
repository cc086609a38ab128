package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	ballotbox "safeballot/contexts/election-core/ballot-box"
	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"
	ballothttp "safeballot/contexts/election-core/ballot-box/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "safeballot/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	ballotBox ballotbox.Module
}

func New(ballotBoxModule ballotbox.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		ballotBox: ballotBoxModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /api/elections", s.handleListElections)
	s.mux.HandleFunc("POST /api/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /api/elections/{election_id}", s.handleGetElection)
	s.mux.HandleFunc("PUT /api/elections/{election_id}", s.handleUpdateElection)
	s.mux.HandleFunc("DELETE /api/elections/{election_id}", s.handleDeleteElection)

	s.mux.HandleFunc("GET /api/elections/{election_id}/candidates", s.handleListCandidates)
	s.mux.HandleFunc("POST /api/elections/{election_id}/candidates", s.handleCreateCandidate)
	s.mux.HandleFunc("PUT /api/elections/{election_id}/candidates/{candidate_id}", s.handleUpdateCandidate)
	s.mux.HandleFunc("DELETE /api/elections/{election_id}/candidates/{candidate_id}", s.handleDeleteCandidate)

	s.mux.HandleFunc("POST /api/elections/{election_id}/roster", s.handleImportRoster)
	s.mux.HandleFunc("POST /api/elections/{election_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/elections/{election_id}/results", s.handleTally)
	s.mux.HandleFunc("GET /api/elections/{election_id}/results.csv", s.handleExportCSV)
	s.mux.HandleFunc("POST /api/elections/{election_id}/publish", s.handlePublish)
	s.mux.HandleFunc("POST /api/elections/{election_id}/publish-key", s.handleRotatePublishKey)
	s.mux.HandleFunc("GET /api/elections/{election_id}/overview", s.handleOverview)
}

// resolveActor maps identity headers set by the upstream auth layer
// onto the module's explicit role enum, once per request.
func resolveActor(r *http.Request) (entities.Actor, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return entities.Actor{}, false
	}
	return entities.Actor{
		UserID: userID,
		Role:   entities.ParseRole(r.Header.Get("X-User-Role")),
	}, true
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballotBox.Handler.ListElectionsHandler(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballotBox.Handler.CreateElectionHandler(r.Context(), actor, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballotBox.Handler.GetElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.UpdateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballotBox.Handler.UpdateElectionHandler(r.Context(), actor, r.PathValue("election_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	if err := s.ballotBox.Handler.DeleteElectionHandler(r.Context(), actor, r.PathValue("election_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballotBox.Handler.ListCandidatesHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballotBox.Handler.CreateCandidateHandler(r.Context(), actor, r.PathValue("election_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballotBox.Handler.UpdateCandidateHandler(
		r.Context(),
		actor,
		r.PathValue("election_id"),
		r.PathValue("candidate_id"),
		req,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	err := s.ballotBox.Handler.DeleteCandidateHandler(
		r.Context(),
		actor,
		r.PathValue("election_id"),
		r.PathValue("candidate_id"),
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportRoster(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.ImportRosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballotBox.Handler.ImportRosterHandler(r.Context(), actor, r.PathValue("election_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballotBox.Handler.CastVoteHandler(r.Context(), actor, r.PathValue("election_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.ballotBox.Handler.TallyHandler(r.Context(), actor, r.PathValue("election_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	export, err := s.ballotBox.Handler.ExportCSVHandler(r.Context(), actor, r.PathValue("election_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Body)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.PublishElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballotBox.Handler.PublishElectionHandler(r.Context(), actor, r.PathValue("election_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRotatePublishKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.RotatePublishKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ballotBox.Handler.RotatePublishKeyHandler(r.Context(), actor, r.PathValue("election_id"), req); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.ballotBox.Handler.ElectionOverviewHandler(r.Context(), actor, r.PathValue("election_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrElectionNotFound):
		writeError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrCandidateNotFound):
		writeError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidElectionInput),
		errors.Is(err, domainerrors.ErrInvalidCandidateInput),
		errors.Is(err, domainerrors.ErrInvalidVoteInput),
		errors.Is(err, domainerrors.ErrInvalidRosterInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrNotEligible):
		writeError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrElectionNotOpen):
		writeError(w, http.StatusConflict, "election_not_open", err.Error())
	case errors.Is(err, domainerrors.ErrResultsNotAvailable):
		writeError(w, http.StatusForbidden, "results_not_available", err.Error())
	case errors.Is(err, domainerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrPublishKeyRequired),
		errors.Is(err, domainerrors.ErrPublishKeyMismatch):
		writeError(w, http.StatusBadRequest, "publish_key_invalid", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidPublishKey):
		writeError(w, http.StatusForbidden, "publish_key_rejected", err.Error())
	case errors.Is(err, domainerrors.ErrPublishRateLimited):
		writeError(w, http.StatusTooManyRequests, "publish_rate_limited", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ballothttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
