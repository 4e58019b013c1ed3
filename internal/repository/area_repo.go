package repository

import (
	"context"
	"errors"
	"time"

	"github.com/callcore/campaign-engine/internal/domain"
	"gorm.io/gorm"
)

type AreaRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Area, error)
	CacheCurrentCampaign(ctx context.Context, areaID, campaignID string, at time.Time) error
	InvalidateCurrentCampaign(ctx context.Context, areaID string) error
}

type GormAreaRepo struct {
	db *gorm.DB
}

func NewGormAreaRepo(db *gorm.DB) *GormAreaRepo {
	return &GormAreaRepo{db: db}
}

func (r *GormAreaRepo) GetByID(ctx context.Context, id string) (*domain.Area, error) {
	var model AreaModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return areaModelToDomain(&model), nil
}

// CacheCurrentCampaign memoizes the resolved campaign on the area record.
// Concurrent resolvers may race here; any value that satisfied the window
// predicate at cache time is acceptable, so last write wins.
func (r *GormAreaRepo) CacheCurrentCampaign(ctx context.Context, areaID, campaignID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&AreaModel{}).
		Where("id = ?", areaID).
		Updates(map[string]any{
			"current_campaign_id":  campaignID,
			"campaign_resolved_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormAreaRepo) InvalidateCurrentCampaign(ctx context.Context, areaID string) error {
	result := r.db.WithContext(ctx).
		Model(&AreaModel{}).
		Where("id = ?", areaID).
		Updates(map[string]any{
			"current_campaign_id":  nil,
			"campaign_resolved_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
