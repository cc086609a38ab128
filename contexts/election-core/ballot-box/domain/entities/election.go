package entities

import "time"

type ElectionStatus string

const (
	ElectionStatusPending   ElectionStatus = "pending"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusConcluded ElectionStatus = "concluded"
)

const (
	// PublishMaxAttempts is the number of consecutive failed publish-key
	// attempts tolerated before the election locks out.
	PublishMaxAttempts = 5

	// PublishLockout is how long the publish gate stays locked after the
	// attempt budget is exhausted.
	PublishLockout = 10 * time.Minute
)

// Election is the root aggregate. Status is a pure function of
// (now, start, end, explicit publish action); voters never mutate it.
type Election struct {
	ElectionID  string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Status      ElectionStatus
	CreatedBy   string

	// Publish gate state. PublishKeyHash is the SHA-256 hex digest of
	// the publish key; empty until a key is set.
	PublishKeyHash      string
	PublishAttempts     int
	PublishBlockedUntil *time.Time
	PublishedAt         *time.Time
	PublishedBy         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncStatus realigns Status with the time window. It is idempotent and
// safe to apply at the top of every entry point. Conclusion at end time
// is irreversible; the pending/active edge follows edits to StartTime
// while the election has not concluded.
func (e Election) SyncStatus(now time.Time) (Election, bool) {
	if e.Status != ElectionStatusConcluded && !now.Before(e.EndTime) {
		concluded := now
		e.Status = ElectionStatusConcluded
		e.PublishedAt = &concluded
		e.PublishAttempts = 0
		e.PublishBlockedUntil = nil
		e.UpdatedAt = now
		return e, true
	}
	if e.Status == ElectionStatusPending && !now.Before(e.StartTime) && now.Before(e.EndTime) {
		e.Status = ElectionStatusActive
		e.UpdatedAt = now
		return e, true
	}
	if e.Status == ElectionStatusActive && now.Before(e.StartTime) {
		e.Status = ElectionStatusPending
		e.UpdatedAt = now
		return e, true
	}
	return e, false
}

// OpenForVoting reports whether ballots are accepted at now. The window
// is half-open: a cast at exactly EndTime is rejected.
func (e Election) OpenForVoting(now time.Time) bool {
	return e.Status != ElectionStatusConcluded && !now.Before(e.StartTime) && now.Before(e.EndTime)
}

// ResultsVisible reports whether the tally may be computed at now.
func (e Election) ResultsVisible(now time.Time) bool {
	return e.Status == ElectionStatusConcluded || !now.Before(e.EndTime)
}

// PublishLocked reports whether the publish gate is in a rate-limit
// lockout at now, and the remaining cooldown when it is.
func (e Election) PublishLocked(now time.Time) (time.Duration, bool) {
	if e.PublishBlockedUntil == nil || !now.Before(*e.PublishBlockedUntil) {
		return 0, false
	}
	return e.PublishBlockedUntil.Sub(now), true
}

// RegisterFailedPublishAttempt advances the rate-limit state after a
// wrong publish key. Reaching the attempt budget starts the lockout and
// resets the counter.
func (e Election) RegisterFailedPublishAttempt(now time.Time) Election {
	e.PublishAttempts++
	if e.PublishAttempts >= PublishMaxAttempts {
		blocked := now.Add(PublishLockout)
		e.PublishBlockedUntil = &blocked
		e.PublishAttempts = 0
	}
	e.UpdatedAt = now
	return e
}

// Conclude finalizes the election through the publish gate.
func (e Election) Conclude(now time.Time, publishedBy string) Election {
	published := now
	e.Status = ElectionStatusConcluded
	e.PublishedAt = &published
	e.PublishedBy = publishedBy
	e.PublishAttempts = 0
	e.PublishBlockedUntil = nil
	e.UpdatedAt = now
	return e
}
