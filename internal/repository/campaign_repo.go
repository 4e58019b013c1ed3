package repository

import (
	"context"
	"errors"
	"time"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	FindActiveByArea(ctx context.Context, areaID string, at time.Time) (*domain.Campaign, error)
	AddScriptVersion(ctx context.Context, campaignID, body string) (*domain.ScriptVersion, error)
	LatestScript(ctx context.Context, campaignID string) (*domain.ScriptVersion, error)
	ScriptByVersion(ctx context.Context, campaignID string, version int) (*domain.ScriptVersion, error)
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

// Create inserts a campaign after checking the area overlap rule: no two
// campaigns in one area may have intersecting time windows.
func (r *GormCampaignRepo) Create(ctx context.Context, campaign *domain.Campaign) error {
	model := campaignModelFromDomain(campaign)
	if model.ID == "" {
		model.ID = uuid.NewString()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := tx.Model(&CampaignModel{}).
			Where("area_id = ?", model.AreaID).
			Where("date_start <= ? AND date_end >= ?", model.DateEnd, model.DateStart).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return domain.ErrConflict
		}

		return tx.Create(model).Error
	})
	if err != nil {
		return err
	}

	if campaign != nil {
		*campaign = *campaignModelToDomain(model)
	}
	return nil
}

func (r *GormCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}

func (r *GormCampaignRepo) FindActiveByArea(ctx context.Context, areaID string, at time.Time) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).
		Where("area_id = ? AND date_start <= ? AND date_end >= ?", areaID, at, at).
		Order("date_start ASC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}

// AddScriptVersion appends a new script revision. Scripts are never mutated
// in place; the version counter advances inside the transaction.
func (r *GormCampaignRepo) AddScriptVersion(ctx context.Context, campaignID, body string) (*domain.ScriptVersion, error) {
	var model ScriptVersionModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int
		err := tx.Model(&ScriptVersionModel{}).
			Where("campaign_id = ?", campaignID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&latest).Error
		if err != nil {
			return err
		}

		model = ScriptVersionModel{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			Version:    latest + 1,
			Body:       body,
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return nil, err
	}

	return scriptModelToDomain(&model), nil
}

func (r *GormCampaignRepo) LatestScript(ctx context.Context, campaignID string) (*domain.ScriptVersion, error) {
	var model ScriptVersionModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("version DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return scriptModelToDomain(&model), nil
}

func (r *GormCampaignRepo) ScriptByVersion(ctx context.Context, campaignID string, version int) (*domain.ScriptVersion, error) {
	var model ScriptVersionModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND version = ?", campaignID, version).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return scriptModelToDomain(&model), nil
}
