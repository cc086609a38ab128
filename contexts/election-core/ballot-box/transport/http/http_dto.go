package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type UpdateElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type ElectionResponse struct {
	ElectionID  string     `json:"election_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"created_by,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	PublishedBy string     `json:"published_by,omitempty"`
}

// CreateElectionResponse carries the one-time plaintext publish key the
// administrator must store; only its digest survives server-side.
type CreateElectionResponse struct {
	Election   ElectionResponse `json:"election"`
	PublishKey string           `json:"publish_key"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
}

type CandidateRequest struct {
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type CandidateResponse struct {
	CandidateID string `json:"candidate_id"`
	ElectionID  string `json:"election_id"`
	Name        string `json:"name"`
	Bio         string `json:"bio,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

type CandidateListResponse struct {
	Items []CandidateResponse `json:"items"`
}

type ImportRosterRequest struct {
	VoterIDs []string `json:"voter_ids"`
}

type ImportRosterResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

type CastVoteResponse struct {
	ElectionID string    `json:"election_id"`
	CastAt     time.Time `json:"cast_at"`
}

type PublishElectionRequest struct {
	Key        string `json:"key,omitempty"`
	KeyConfirm string `json:"key_confirm,omitempty"`
}

type PublishElectionResponse struct {
	ElectionID  string    `json:"election_id"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
}

type RotatePublishKeyRequest struct {
	CurrentKey string `json:"current_key"`
	NewKey     string `json:"new_key"`
}

type ChoiceResultItem struct {
	Choice     string  `json:"choice"`
	RawChoice  string  `json:"raw_choice"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type TallyResponse struct {
	ElectionID       string             `json:"election_id"`
	TotalBallots     int                `json:"total_ballots"`
	DecryptedVotes   int                `json:"decrypted_votes"`
	CorruptedBallots int                `json:"corrupted_ballots"`
	TotalEligible    int                `json:"total_eligible"`
	TurnoutPercent   float64            `json:"turnout_percent"`
	Results          []ChoiceResultItem `json:"results"`
	Winners          []string           `json:"winners"`
	WinnersDisplay   []string           `json:"winners_display"`
	MarginVotes      int                `json:"margin_votes"`
	MarginPercent    float64            `json:"margin_percent"`
}

type ElectionOverviewResponse struct {
	Election       ElectionResponse `json:"election"`
	CandidateCount int              `json:"candidate_count"`
	EligibleVoters int              `json:"eligible_voters"`
	BallotsCast    int              `json:"ballots_cast"`
	TurnoutPercent float64          `json:"turnout_percent"`
}
