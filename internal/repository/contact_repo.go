package repository

import (
	"context"
	"errors"

	"github.com/callcore/campaign-engine/internal/domain"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	GetByPhoneAndArea(ctx context.Context, phone, areaID string) (*domain.Contact, error)
}

type GormContactRepo struct {
	db *gorm.DB
}

func NewGormContactRepo(db *gorm.DB) *GormContactRepo {
	return &GormContactRepo{db: db}
}

func (r *GormContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	model := contactModelFromDomain(contact)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if contact != nil {
		*contact = *contactModelToDomain(model)
	}
	return nil
}

func (r *GormContactRepo) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var model ContactModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return contactModelToDomain(&model), nil
}

func (r *GormContactRepo) GetByPhoneAndArea(ctx context.Context, phone, areaID string) (*domain.Contact, error) {
	var model ContactModel
	err := r.db.WithContext(ctx).
		Where("phone = ? AND area_id = ?", phone, areaID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return contactModelToDomain(&model), nil
}
