package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing tests and dev mode. One mutex
// guards everything, which makes CastBallot's append-and-flip trivially
// atomic.
type Store struct {
	mu sync.RWMutex

	elections   map[string]entities.Election
	candidates  map[string]entities.Candidate
	ballots     map[string][]entities.Ballot
	eligibility map[string]entities.EligibilityRecord
}

func NewStore() *Store {
	return &Store{
		elections:   make(map[string]entities.Election),
		candidates:  make(map[string]entities.Candidate),
		ballots:     make(map[string][]entities.Ballot),
		eligibility: make(map[string]entities.EligibilityRecord),
	}
}

func eligibilityKey(voterID string, electionID string) string {
	return strings.TrimSpace(voterID) + "\x00" + strings.TrimSpace(electionID)
}

func (s *Store) SaveElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[election.ElectionID] = election
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		items = append(items, election)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) DeleteElection(_ context.Context, electionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID = strings.TrimSpace(electionID)
	if _, ok := s.elections[electionID]; !ok {
		return domainerrors.ErrElectionNotFound
	}
	delete(s.elections, electionID)
	delete(s.ballots, electionID)
	for id, candidate := range s.candidates {
		if candidate.ElectionID == electionID {
			delete(s.candidates, id)
		}
	}
	for key, record := range s.eligibility {
		if record.ElectionID == electionID {
			delete(s.eligibility, key)
		}
	}
	return nil
}

func (s *Store) SaveCandidate(_ context.Context, candidate entities.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[candidate.CandidateID] = candidate
	return nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *Store) ListCandidates(_ context.Context, electionID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	electionID = strings.TrimSpace(electionID)
	var items []entities.Candidate
	for _, candidate := range s.candidates {
		if candidate.ElectionID == electionID {
			items = append(items, candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CandidateID < items[j].CandidateID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) DeleteCandidate(_ context.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidateID = strings.TrimSpace(candidateID)
	if _, ok := s.candidates[candidateID]; !ok {
		return domainerrors.ErrCandidateNotFound
	}
	delete(s.candidates, candidateID)
	return nil
}

func (s *Store) ListBallots(_ context.Context, electionID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.ballots[strings.TrimSpace(electionID)]
	items := make([]entities.Ballot, len(stored))
	copy(items, stored)
	return items, nil
}

func (s *Store) CountBallots(_ context.Context, electionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ballots[strings.TrimSpace(electionID)]), nil
}

func (s *Store) AddEligibleVoter(_ context.Context, voterID string, electionID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := eligibilityKey(voterID, electionID)
	if _, ok := s.eligibility[key]; ok {
		return false, nil
	}
	s.eligibility[key] = entities.EligibilityRecord{
		VoterID:    strings.TrimSpace(voterID),
		ElectionID: strings.TrimSpace(electionID),
		HasVoted:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return true, nil
}

func (s *Store) GetEligibility(_ context.Context, voterID string, electionID string) (entities.EligibilityRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.eligibility[eligibilityKey(voterID, electionID)]
	return record, ok, nil
}

func (s *Store) CountEligible(_ context.Context, electionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	electionID = strings.TrimSpace(electionID)
	count := 0
	for _, record := range s.eligibility {
		if record.ElectionID == electionID {
			count++
		}
	}
	return count, nil
}

// CastBallot appends the ballot and flips has_voted inside one critical
// section: concurrent casts by the same voter serialize on the store
// lock and the loser observes the flipped flag.
func (s *Store) CastBallot(_ context.Context, ballot entities.Ballot, voterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := eligibilityKey(voterID, ballot.ElectionID)
	record, ok := s.eligibility[key]
	if !ok {
		return domainerrors.ErrNotEligible
	}
	if record.HasVoted {
		return domainerrors.ErrAlreadyVoted
	}
	s.ballots[ballot.ElectionID] = append(s.ballots[ballot.ElectionID], ballot)
	record.HasVoted = true
	record.UpdatedAt = ballot.CreatedAt
	s.eligibility[key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
