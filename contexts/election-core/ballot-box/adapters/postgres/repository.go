package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"safeballot/contexts/election-core/ballot-box/domain/entities"
	domainerrors "safeballot/contexts/election-core/ballot-box/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the schema, including the unique
// (voter_id, election_id) index that backs the cast-once guard.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&electionModel{},
		&candidateModel{},
		&ballotModel{},
		&voterStatusModel{},
	)
}

func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":                 row.Title,
			"description":           row.Description,
			"start_time":            row.StartTime,
			"end_time":              row.EndTime,
			"status":                row.Status,
			"publish_key_hash":      row.PublishKeyHash,
			"publish_attempts":      row.PublishAttempts,
			"publish_blocked_until": row.PublishBlockedUntil,
			"published_at":          row.PublishedAt,
			"published_by":          row.PublishedBy,
			"updated_at":            row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ballot_repo_save_election_failed", create.Error,
			"election_id", strings.TrimSpace(election.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("ballot_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ballot_repo_list_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteElection(ctx context.Context, electionID string) error {
	electionID = strings.TrimSpace(electionID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("election_id = ?", electionID).Delete(&ballotModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("election_id = ?", electionID).Delete(&candidateModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("election_id = ?", electionID).Delete(&voterStatusModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", electionID).Delete(&electionModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrElectionNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) {
			return err
		}
		return r.logError("ballot_repo_delete_election_failed", err, "election_id", electionID)
	}
	return nil
}

func (r *Repository) SaveCandidate(ctx context.Context, candidate entities.Candidate) error {
	row := candidateModelFromEntity(candidate)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       row.Name,
			"bio":        row.Bio,
			"photo_url":  row.PhotoURL,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ballot_repo_save_candidate_failed", create.Error,
			"candidate_id", strings.TrimSpace(candidate.CandidateID),
		)
	}
	return nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.logError("ballot_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCandidates(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ballot_repo_list_candidates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteCandidate(ctx context.Context, candidateID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(candidateID)).
		Delete(&candidateModel{})
	if result.Error != nil {
		return r.logError("ballot_repo_delete_candidate_failed", result.Error,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCandidateNotFound
	}
	return nil
}

func (r *Repository) ListBallots(ctx context.Context, electionID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ballot_repo_list_ballots_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountBallots(ctx context.Context, electionID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("ballot_repo_count_ballots_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return int(count), nil
}

func (r *Repository) AddEligibleVoter(ctx context.Context, voterID string, electionID string, now time.Time) (bool, error) {
	row := voterStatusModel{
		VoterID:    strings.TrimSpace(voterID),
		ElectionID: strings.TrimSpace(electionID),
		HasVoted:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "voter_id"}, {Name: "election_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return false, nil
		}
		return false, r.logError("ballot_repo_add_eligible_failed", create.Error,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) GetEligibility(ctx context.Context, voterID string, electionID string) (entities.EligibilityRecord, bool, error) {
	var row voterStatusModel
	err := r.db.WithContext(ctx).
		Where("voter_id = ? AND election_id = ?", strings.TrimSpace(voterID), strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EligibilityRecord{}, false, nil
		}
		return entities.EligibilityRecord{}, false, r.logError("ballot_repo_get_eligibility_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CountEligible(ctx context.Context, electionID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&voterStatusModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("ballot_repo_count_eligible_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return int(count), nil
}

// CastBallot runs the ballot append and the has-voted flip in one
// transaction. The flip is a conditional update keyed on the old flag
// value; zero affected rows means another cast won the race, and the
// rollback removes the appended ballot so no orphan row survives.
func (r *Repository) CastBallot(ctx context.Context, ballot entities.Ballot, voterID string) error {
	voterID = strings.TrimSpace(voterID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record voterStatusModel
		err := tx.
			Where("voter_id = ? AND election_id = ?", voterID, ballot.ElectionID).
			First(&record).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotEligible
			}
			return err
		}
		if record.HasVoted {
			return domainerrors.ErrAlreadyVoted
		}

		row := ballotModelFromEntity(ballot)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		flip := tx.Model(&voterStatusModel{}).
			Where("voter_id = ? AND election_id = ? AND has_voted = ?", voterID, ballot.ElectionID, false).
			Updates(map[string]any{
				"has_voted":  true,
				"updated_at": ballot.CreatedAt,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return domainerrors.ErrAlreadyVoted
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotEligible) || errors.Is(err, domainerrors.ErrAlreadyVoted) {
			return err
		}
		return r.logError("ballot_repo_cast_failed", err,
			"election_id", strings.TrimSpace(ballot.ElectionID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "election-core/ballot-box",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("ballot box repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type electionModel struct {
	ID                  string     `gorm:"column:id;primaryKey"`
	Title               string     `gorm:"column:title"`
	Description         string     `gorm:"column:description"`
	StartTime           time.Time  `gorm:"column:start_time"`
	EndTime             time.Time  `gorm:"column:end_time"`
	Status              string     `gorm:"column:status"`
	CreatedBy           string     `gorm:"column:created_by"`
	PublishKeyHash      string     `gorm:"column:publish_key_hash"`
	PublishAttempts     int        `gorm:"column:publish_attempts"`
	PublishBlockedUntil *time.Time `gorm:"column:publish_blocked_until"`
	PublishedAt         *time.Time `gorm:"column:published_at"`
	PublishedBy         string     `gorm:"column:published_by"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	return electionModel{
		ID:                  strings.TrimSpace(election.ElectionID),
		Title:               election.Title,
		Description:         election.Description,
		StartTime:           election.StartTime,
		EndTime:             election.EndTime,
		Status:              string(election.Status),
		CreatedBy:           election.CreatedBy,
		PublishKeyHash:      election.PublishKeyHash,
		PublishAttempts:     election.PublishAttempts,
		PublishBlockedUntil: election.PublishBlockedUntil,
		PublishedAt:         election.PublishedAt,
		PublishedBy:         election.PublishedBy,
		CreatedAt:           election.CreatedAt,
		UpdatedAt:           election.UpdatedAt,
	}
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:          m.ID,
		Title:               m.Title,
		Description:         m.Description,
		StartTime:           m.StartTime,
		EndTime:             m.EndTime,
		Status:              entities.ElectionStatus(m.Status),
		CreatedBy:           m.CreatedBy,
		PublishKeyHash:      m.PublishKeyHash,
		PublishAttempts:     m.PublishAttempts,
		PublishBlockedUntil: m.PublishBlockedUntil,
		PublishedAt:         m.PublishedAt,
		PublishedBy:         m.PublishedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

type candidateModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id;index"`
	Name       string    `gorm:"column:name"`
	Bio        string    `gorm:"column:bio"`
	PhotoURL   string    `gorm:"column:photo_url"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	return candidateModel{
		ID:         strings.TrimSpace(candidate.CandidateID),
		ElectionID: strings.TrimSpace(candidate.ElectionID),
		Name:       candidate.Name,
		Bio:        candidate.Bio,
		PhotoURL:   candidate.PhotoURL,
		CreatedAt:  candidate.CreatedAt,
		UpdatedAt:  candidate.UpdatedAt,
	}
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: m.ID,
		ElectionID:  m.ElectionID,
		Name:        m.Name,
		Bio:         m.Bio,
		PhotoURL:    m.PhotoURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type ballotModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id;index"`
	Ciphertext string    `gorm:"column:ciphertext"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:         strings.TrimSpace(ballot.BallotID),
		ElectionID: strings.TrimSpace(ballot.ElectionID),
		Ciphertext: ballot.Ciphertext,
		CreatedAt:  ballot.CreatedAt,
	}
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:   m.ID,
		ElectionID: m.ElectionID,
		Ciphertext: m.Ciphertext,
		CreatedAt:  m.CreatedAt,
	}
}

type voterStatusModel struct {
	VoterID    string    `gorm:"column:voter_id;primaryKey;uniqueIndex:idx_voter_election"`
	ElectionID string    `gorm:"column:election_id;primaryKey;uniqueIndex:idx_voter_election"`
	HasVoted   bool      `gorm:"column:has_voted"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (voterStatusModel) TableName() string {
	return "voter_status"
}

func (m voterStatusModel) toEntity() entities.EligibilityRecord {
	return entities.EligibilityRecord{
		VoterID:    m.VoterID,
		ElectionID: m.ElectionID,
		HasVoted:   m.HasVoted,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
