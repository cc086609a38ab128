package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ballotbox "safeballot/contexts/election-core/ballot-box"
	ballothttp "safeballot/contexts/election-core/ballot-box/transport/http"
	"safeballot/internal/platform/votecrypt"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	codec, err := votecrypt.New(bytes.Repeat([]byte{0x24}, votecrypt.KeySize))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := ballotbox.NewInMemoryModule(codec, logger)
	return New(module, logger, ":0")
}

func doJSON(t *testing.T, server *Server, method, path, userID, role string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
}

func createActiveElection(t *testing.T, server *Server) ballothttp.CreateElectionResponse {
	t.Helper()
	now := time.Now().UTC()
	rr := doJSON(t, server, http.MethodPost, "/api/elections", "admin-1", "admin", ballothttp.CreateElectionRequest{
		Title:     "Board Election",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create election: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp ballothttp.CreateElectionResponse
	decodeInto(t, rr, &resp)
	if resp.PublishKey == "" {
		t.Fatal("expected a one-time publish key in the create response")
	}
	return resp
}

func addCandidate(t *testing.T, server *Server, electionID, name string) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/elections/"+electionID+"/candidates", "admin-1", "admin",
		ballothttp.CandidateRequest{Name: name})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create candidate: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp ballothttp.CandidateResponse
	decodeInto(t, rr, &resp)
	return resp.CandidateID
}

func importRoster(t *testing.T, server *Server, electionID string, voters ...string) {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/elections/"+electionID+"/roster", "admin-1", "admin",
		ballothttp.ImportRosterRequest{VoterIDs: voters})
	if rr.Code != http.StatusOK {
		t.Fatalf("import roster: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateElectionRequiresIdentity(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/elections", "", "", ballothttp.CreateElectionRequest{
		Title:     "Board Election",
		StartTime: time.Now().UTC(),
		EndTime:   time.Now().UTC().Add(time.Hour),
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateElectionRequiresAdminRole(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/elections", "voter-1", "voter", ballothttp.CreateElectionRequest{
		Title:     "Board Election",
		StartTime: time.Now().UTC(),
		EndTime:   time.Now().UTC().Add(time.Hour),
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetElectionNotFound(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodGet, "/api/elections/missing", "voter-1", "voter", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVoteLifecycle(t *testing.T) {
	server := newTestServer(t)

	created := createActiveElection(t, server)
	electionID := created.Election.ElectionID
	alice := addCandidate(t, server, electionID, "Alice")
	addCandidate(t, server, electionID, "Bob")
	importRoster(t, server, electionID, "voter-1", "voter-2", "voter-3")

	votePath := "/api/elections/" + electionID + "/votes"
	rr := doJSON(t, server, http.MethodPost, votePath, "voter-1", "voter", ballothttp.CastVoteRequest{CandidateID: alice})
	if rr.Code != http.StatusCreated {
		t.Fatalf("cast: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, votePath, "voter-1", "voter", ballothttp.CastVoteRequest{CandidateID: alice})
	if rr.Code != http.StatusConflict {
		t.Fatalf("second cast: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	var errResp ballothttp.ErrorResponse
	decodeInto(t, rr, &errResp)
	if errResp.Code != "already_voted" {
		t.Fatalf("expected already_voted, got %q", errResp.Code)
	}

	rr = doJSON(t, server, http.MethodPost, votePath, "stranger", "voter", ballothttp.CastVoteRequest{CandidateID: alice})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("ineligible cast: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, votePath, "voter-2", "voter", ballothttp.CastVoteRequest{CandidateID: alice})
	if rr.Code != http.StatusCreated {
		t.Fatalf("cast voter-2: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	resultsPath := "/api/elections/" + electionID + "/results"
	rr = doJSON(t, server, http.MethodGet, resultsPath, "voter-1", "voter", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("results while open: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/elections/"+electionID+"/publish", "root", "superadmin",
		ballothttp.PublishElectionRequest{})
	if rr.Code != http.StatusOK {
		t.Fatalf("superadmin publish: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var published ballothttp.PublishElectionResponse
	decodeInto(t, rr, &published)
	if published.Status != "concluded" {
		t.Fatalf("expected concluded, got %q", published.Status)
	}

	rr = doJSON(t, server, http.MethodGet, resultsPath, "voter-1", "voter", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("results: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var tally ballothttp.TallyResponse
	decodeInto(t, rr, &tally)
	if tally.TotalBallots != 2 || tally.DecryptedVotes != 2 || tally.CorruptedBallots != 0 {
		t.Fatalf("unexpected tally counts: %+v", tally)
	}
	if len(tally.WinnersDisplay) != 1 || tally.WinnersDisplay[0] != "Alice" {
		t.Fatalf("expected Alice to win, got %v", tally.WinnersDisplay)
	}
}

func TestExportCSV(t *testing.T) {
	server := newTestServer(t)

	created := createActiveElection(t, server)
	electionID := created.Election.ElectionID
	alice := addCandidate(t, server, electionID, "Alice")
	importRoster(t, server, electionID, "voter-1")

	rr := doJSON(t, server, http.MethodPost, "/api/elections/"+electionID+"/votes", "voter-1", "voter",
		ballothttp.CastVoteRequest{CandidateID: alice})
	if rr.Code != http.StatusCreated {
		t.Fatalf("cast: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/api/elections/"+electionID+"/publish", "root", "superadmin",
		ballothttp.PublishElectionRequest{})
	if rr.Code != http.StatusOK {
		t.Fatalf("publish: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/elections/"+electionID+"/results.csv", "voter-1", "voter", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("csv: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv, got %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "results_"+electionID+".csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if lines[0] != "choice,count" {
		t.Fatalf("unexpected csv header %q", lines[0])
	}
	if len(lines) != 2 || !strings.Contains(lines[1], fmt.Sprintf("candidate:%s,1", alice)) {
		t.Fatalf("unexpected csv rows %v", lines)
	}
}

func TestCastVoteBeforeWindowOpens(t *testing.T) {
	server := newTestServer(t)

	now := time.Now().UTC()
	rr := doJSON(t, server, http.MethodPost, "/api/elections", "admin-1", "admin", ballothttp.CreateElectionRequest{
		Title:     "Future Election",
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(2 * time.Hour),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created ballothttp.CreateElectionResponse
	decodeInto(t, rr, &created)
	electionID := created.Election.ElectionID
	candidateID := addCandidate(t, server, electionID, "Alice")
	importRoster(t, server, electionID, "voter-1")

	rr = doJSON(t, server, http.MethodPost, "/api/elections/"+electionID+"/votes", "voter-1", "voter",
		ballothttp.CastVoteRequest{CandidateID: candidateID})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	var errResp ballothttp.ErrorResponse
	decodeInto(t, rr, &errResp)
	if errResp.Code != "election_not_open" {
		t.Fatalf("expected election_not_open, got %q", errResp.Code)
	}
}

func TestEarlyPublishKeyEnforcement(t *testing.T) {
	server := newTestServer(t)

	created := createActiveElection(t, server)
	electionID := created.Election.ElectionID
	publishPath := "/api/elections/" + electionID + "/publish"

	rr := doJSON(t, server, http.MethodPost, publishPath, "admin-1", "admin", ballothttp.PublishElectionRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing key: expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	for i := 0; i < 5; i++ {
		rr = doJSON(t, server, http.MethodPost, publishPath, "admin-1", "admin",
			ballothttp.PublishElectionRequest{Key: "wrong-key"})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("attempt %d: expected 403, got %d body=%s", i+1, rr.Code, rr.Body.String())
		}
	}

	rr = doJSON(t, server, http.MethodPost, publishPath, "admin-1", "admin",
		ballothttp.PublishElectionRequest{Key: created.PublishKey})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("locked: expected 429, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEarlyPublishWithCorrectKey(t *testing.T) {
	server := newTestServer(t)

	created := createActiveElection(t, server)
	electionID := created.Election.ElectionID

	rr := doJSON(t, server, http.MethodPost, "/api/elections/"+electionID+"/publish", "admin-1", "admin",
		ballothttp.PublishElectionRequest{Key: created.PublishKey})
	if rr.Code != http.StatusOK {
		t.Fatalf("publish: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp ballothttp.PublishElectionResponse
	decodeInto(t, rr, &resp)
	if resp.Status != "concluded" {
		t.Fatalf("expected concluded, got %q", resp.Status)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/elections/"+electionID, "voter-1", "voter", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var election ballothttp.ElectionResponse
	decodeInto(t, rr, &election)
	if election.Status != "concluded" || election.PublishedAt == nil {
		t.Fatalf("expected concluded with timestamp, got %+v", election)
	}
}

func TestOverviewForbiddenForVoters(t *testing.T) {
	server := newTestServer(t)

	created := createActiveElection(t, server)
	rr := doJSON(t, server, http.MethodGet, "/api/elections/"+created.Election.ElectionID+"/overview", "voter-1", "voter", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/elections/"+created.Election.ElectionID+"/overview", "admin-1", "admin", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}
