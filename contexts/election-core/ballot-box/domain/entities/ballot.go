package entities

import (
	"strings"
	"time"
)

// Candidate belongs to exactly one election and is deleted with it.
type Candidate struct {
	CandidateID string
	ElectionID  string
	Name        string
	Bio         string
	PhotoURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ballot is one stored, encrypted vote. It carries no voter identity;
// only the eligibility record remembers that a vote occurred. Ballots
// are immutable once created.
type Ballot struct {
	BallotID   string
	ElectionID string
	Ciphertext string
	CreatedAt  time.Time
}

// EligibilityRecord tracks cast status per (voter, election). The pair
// is unique at the storage layer; HasVoted flips false->true exactly
// once and never resets.
type EligibilityRecord struct {
	VoterID    string
	ElectionID string
	HasVoted   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const choicePrefix = "candidate:"

// CandidateChoice formats the vote plaintext for a candidate.
func CandidateChoice(candidateID string) string {
	return choicePrefix + candidateID
}

// ChoiceCandidateID extracts the candidate id from a decrypted choice.
// The second return is false for plaintexts not in candidate:<id> form;
// such values are still tallied under their raw string.
func ChoiceCandidateID(choice string) (string, bool) {
	if !strings.HasPrefix(choice, choicePrefix) {
		return "", false
	}
	id := choice[len(choicePrefix):]
	if id == "" {
		return "", false
	}
	return id, true
}
