package repository

import (
	"context"
	"errors"
	"time"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimParams drives the atomic select-and-mark-in-progress step.
type ClaimParams struct {
	CampaignID    string
	CallerID      string
	ScriptVersion int
	Now           time.Time
}

// OutcomeParams finalizes an in-progress attempt.
type OutcomeParams struct {
	CampaignID     string
	ContactID      string
	CallerID       string
	Status         domain.AttemptStatus
	Satisfaction   int
	Comment        string
	DurationMillis int64
	Now            time.Time
}

// TrashParams withdraws a contact from a campaign (opt-out). The in-progress
// attempt is left as-is; exclusion is enforced by the trashed flag.
type TrashParams struct {
	CampaignID     string
	ContactID      string
	CallerID       string
	DurationMillis int64
	Now            time.Time
}

type EnrollmentRepository interface {
	Create(ctx context.Context, campaignID, contactID string) (*domain.Enrollment, error)
	GetByCampaignAndContact(ctx context.Context, campaignID, contactID string) (*domain.Enrollment, error)
	ClaimNextEligible(ctx context.Context, params ClaimParams) (*domain.Enrollment, error)
	FinalizeOutcome(ctx context.Context, params OutcomeParams) (*domain.Enrollment, error)
	TrashAndRelease(ctx context.Context, params TrashParams) error
	ReclaimStale(ctx context.Context, cutoff time.Time, now time.Time, limit int) (int, error)
	History(ctx context.Context, enrollmentID string) ([]domain.Attempt, error)
	Progress(ctx context.Context, campaignID string) (*domain.Progress, error)
}

type GormEnrollmentRepo struct {
	db *gorm.DB
}

func NewGormEnrollmentRepo(db *gorm.DB) *GormEnrollmentRepo {
	return &GormEnrollmentRepo{db: db}
}

func (r *GormEnrollmentRepo) Create(ctx context.Context, campaignID, contactID string) (*domain.Enrollment, error) {
	model := EnrollmentModel{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		ContactID:  contactID,
		Status:     domain.StatusNotCalled,
		AttemptSeq: 1,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "contact_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrConflict
	}

	return enrollmentModelToDomain(&model), nil
}

func (r *GormEnrollmentRepo) GetByCampaignAndContact(ctx context.Context, campaignID, contactID string) (*domain.Enrollment, error) {
	var model EnrollmentModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND contact_id = ?", campaignID, contactID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return enrollmentModelToDomain(&model), nil
}

// ClaimNextEligible picks the lowest-contact eligible enrollment and marks it
// IN_PROGRESS for the caller in one transaction. SKIP LOCKED keeps concurrent
// claimants off the same row; the conditional update re-checks eligibility so
// two callers can never both claim one contact. A prior terminal attempt is
// archived into the history ring before the new one starts.
func (r *GormEnrollmentRepo) ClaimNextEligible(ctx context.Context, params ClaimParams) (*domain.Enrollment, error) {
	cutoff := params.Now.Add(-domain.RetryCooldown)

	var claimed *EnrollmentModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model EnrollmentModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("campaign_id = ? AND trashed = false", params.CampaignID).
			Where("status = ? OR (status = ? AND ended_at <= ?)", domain.StatusNotCalled, domain.StatusNotAnswered, cutoff).
			Order("contact_id ASC").
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoClientAvailable
		}
		if err != nil {
			return err
		}

		if model.Status.IsTerminal() {
			if err := archiveAttempt(tx, &model); err != nil {
				return err
			}
		}

		updates := map[string]any{
			"status":         domain.StatusInProgress,
			"caller_id":      params.CallerID,
			"script_version": params.ScriptVersion,
			"started_at":     params.Now,
			"ended_at":       nil,
			"satisfaction":   nil,
			"comment":        "",
		}
		if model.Status.IsTerminal() {
			updates["attempt_seq"] = gorm.Expr("attempt_seq + 1")
		}

		result := tx.Model(&EnrollmentModel{}).
			Where("id = ? AND trashed = false", model.ID).
			Where("status = ? OR (status = ? AND ended_at <= ?)", domain.StatusNotCalled, domain.StatusNotAnswered, cutoff).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrConflict
		}

		callerResult := tx.Model(&CallerModel{}).
			Where("id = ?", params.CallerID).
			Update("current_contact_id", model.ContactID)
		if callerResult.Error != nil {
			return callerResult.Error
		}
		if callerResult.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		if err := tx.First(&model, "id = ?", model.ID).Error; err != nil {
			return err
		}
		claimed = &model
		return nil
	})
	if err != nil {
		return nil, err
	}

	return enrollmentModelToDomain(claimed), nil
}

// FinalizeOutcome commits a terminal attempt state, the caller's ledger
// entry, and the cleared current-contact reference in one transaction.
func (r *GormEnrollmentRepo) FinalizeOutcome(ctx context.Context, params OutcomeParams) (*domain.Enrollment, error) {
	startedAt := params.Now.Add(-time.Duration(params.DurationMillis) * time.Millisecond)

	var finalized *EnrollmentModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&EnrollmentModel{}).
			Where("campaign_id = ? AND contact_id = ?", params.CampaignID, params.ContactID).
			Where("status = ? AND caller_id = ?", domain.StatusInProgress, params.CallerID).
			Updates(map[string]any{
				"status":       params.Status,
				"started_at":   startedAt,
				"ended_at":     params.Now,
				"satisfaction": params.Satisfaction,
				"comment":      params.Comment,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if err := appendLedger(tx, params.CallerID, params.ContactID, params.CampaignID, params.DurationMillis); err != nil {
			return err
		}
		if err := releaseCaller(tx, params.CallerID, params.ContactID); err != nil {
			return err
		}

		var model EnrollmentModel
		err := tx.
			Where("campaign_id = ? AND contact_id = ?", params.CampaignID, params.ContactID).
			First(&model).Error
		if err != nil {
			return err
		}
		finalized = &model
		return nil
	})
	if err != nil {
		return nil, err
	}

	return enrollmentModelToDomain(finalized), nil
}

func (r *GormEnrollmentRepo) TrashAndRelease(ctx context.Context, params TrashParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&EnrollmentModel{}).
			Where("campaign_id = ? AND contact_id = ?", params.CampaignID, params.ContactID).
			Where("status = ? AND caller_id = ? AND trashed = false", domain.StatusInProgress, params.CallerID).
			Updates(map[string]any{
				"trashed":    true,
				"trashed_at": params.Now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if err := appendLedger(tx, params.CallerID, params.ContactID, params.CampaignID, params.DurationMillis); err != nil {
			return err
		}
		return releaseCaller(tx, params.CallerID, params.ContactID)
	})
}

// ReclaimStale ages out abandoned IN_PROGRESS attempts: anything started
// before the cutoff becomes NOT_ANSWERED and the holding caller is released.
func (r *GormEnrollmentRepo) ReclaimStale(ctx context.Context, cutoff time.Time, now time.Time, limit int) (int, error) {
	reclaimed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var models []EnrollmentModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND started_at <= ?", domain.StatusInProgress, cutoff).
			Order("started_at ASC").
			Limit(limit).
			Find(&models).Error
		if err != nil {
			return err
		}

		for i := range models {
			model := &models[i]

			result := tx.Model(&EnrollmentModel{}).
				Where("id = ? AND status = ?", model.ID, domain.StatusInProgress).
				Updates(map[string]any{
					"status":       domain.StatusNotAnswered,
					"ended_at":     now,
					"satisfaction": domain.SatisfactionNotAnswered,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}

			if model.CallerID != nil {
				if err := releaseCaller(tx, *model.CallerID, model.ContactID); err != nil {
					return err
				}
			}
			reclaimed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return reclaimed, nil
}

// History returns the archived entries plus the latest attempt, oldest
// first, never more than MaxAttemptHistory entries.
func (r *GormEnrollmentRepo) History(ctx context.Context, enrollmentID string) ([]domain.Attempt, error) {
	var current EnrollmentModel
	err := r.db.WithContext(ctx).First(&current, "id = ?", enrollmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var models []AttemptModel
	err = r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	history := make([]domain.Attempt, 0, len(models)+1)
	for i := range models {
		history = append(history, *attemptModelToDomain(&models[i]))
	}
	history = append(history, enrollmentModelToDomain(&current).LatestAttempt())

	return history, nil
}

func (r *GormEnrollmentRepo) Progress(ctx context.Context, campaignID string) (*domain.Progress, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&EnrollmentModel{}).
		Where("campaign_id = ?", campaignID).
		Count(&total).Error
	if err != nil {
		return nil, err
	}

	var answered int64
	err = r.db.WithContext(ctx).
		Model(&EnrollmentModel{}).
		Where("campaign_id = ?", campaignID).
		Where(
			"status = ? OR EXISTS (SELECT 1 FROM attempts WHERE attempts.enrollment_id = enrollments.id AND attempts.status = ?)",
			domain.StatusCalled, domain.StatusCalled,
		).
		Count(&answered).Error
	if err != nil {
		return nil, err
	}

	return &domain.Progress{
		CampaignID: campaignID,
		Answered:   answered,
		Total:      total,
	}, nil
}

// archiveAttempt snapshots the enrollment's terminal attempt into the
// attempts table and trims the ring so archived entries plus the live one
// never exceed MaxAttemptHistory.
func archiveAttempt(tx *gorm.DB, model *EnrollmentModel) error {
	snapshot := AttemptModel{
		ID:            uuid.NewString(),
		EnrollmentID:  model.ID,
		Seq:           model.AttemptSeq,
		Status:        model.Status,
		CallerID:      model.CallerID,
		ScriptVersion: model.ScriptVersion,
		StartedAt:     model.StartedAt,
		EndedAt:       model.EndedAt,
		Satisfaction:  model.Satisfaction,
		Comment:       model.Comment,
	}
	if err := tx.Create(&snapshot).Error; err != nil {
		return err
	}

	return tx.
		Where("enrollment_id = ? AND seq < ?", model.ID, oldestRetainedSeq(model.AttemptSeq)).
		Delete(&AttemptModel{}).Error
}

// oldestRetainedSeq is the lowest archived seq kept after the attempt with
// archivedSeq lands in the attempts table. Everything below it is pruned so
// archived rows plus the live enrollment row total MaxAttemptHistory.
func oldestRetainedSeq(archivedSeq int) int {
	return archivedSeq - (domain.MaxAttemptHistory - 2)
}

func appendLedger(tx *gorm.DB, callerID, contactID, campaignID string, durationMillis int64) error {
	entry := LedgerEntryModel{
		ID:             uuid.NewString(),
		CallerID:       callerID,
		ContactID:      contactID,
		CampaignID:     campaignID,
		DurationMillis: durationMillis,
	}
	return tx.Create(&entry).Error
}

func releaseCaller(tx *gorm.DB, callerID, contactID string) error {
	result := tx.Model(&CallerModel{}).
		Where("id = ? AND current_contact_id = ?", callerID, contactID).
		Update("current_contact_id", nil)
	return result.Error
}
