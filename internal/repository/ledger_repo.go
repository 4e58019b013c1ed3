package repository

import (
	"context"

	"github.com/callcore/campaign-engine/internal/domain"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	ListByCaller(ctx context.Context, callerID string, limit int) ([]domain.LedgerEntry, error)
}

type GormLedgerRepo struct {
	db *gorm.DB
}

func NewGormLedgerRepo(db *gorm.DB) *GormLedgerRepo {
	return &GormLedgerRepo{db: db}
}

// ListByCaller returns the caller's most recent call-time entries. Writes
// happen inside the outcome transaction in the enrollment repository; the
// ledger itself is append-only.
func (r *GormLedgerRepo) ListByCaller(ctx context.Context, callerID string, limit int) ([]domain.LedgerEntry, error) {
	if limit < 1 {
		limit = 50
	}

	var models []LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("caller_id = ?", callerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LedgerEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *ledgerModelToDomain(&models[i]))
	}

	return entries, nil
}
