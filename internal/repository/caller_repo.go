package repository

import (
	"context"
	"errors"

	"github.com/callcore/campaign-engine/internal/domain"
	"gorm.io/gorm"
)

type CallerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Caller, error)
	GetByPhoneAndArea(ctx context.Context, phone, areaID string) (*domain.Caller, error)
}

type GormCallerRepo struct {
	db *gorm.DB
}

func NewGormCallerRepo(db *gorm.DB) *GormCallerRepo {
	return &GormCallerRepo{db: db}
}

func (r *GormCallerRepo) GetByID(ctx context.Context, id string) (*domain.Caller, error) {
	var model CallerModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return callerModelToDomain(&model), nil
}

func (r *GormCallerRepo) GetByPhoneAndArea(ctx context.Context, phone, areaID string) (*domain.Caller, error) {
	var model CallerModel
	err := r.db.WithContext(ctx).
		Where("phone = ? AND area_id = ?", phone, areaID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return callerModelToDomain(&model), nil
}
