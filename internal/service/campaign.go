package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/repository"
)

// CampaignService manages campaign setup: creation, contact enrollment and
// script revisions. These are back-office writes, not caller operations.
type CampaignService struct {
	campaigns   repository.CampaignRepository
	contacts    repository.ContactRepository
	enrollments repository.EnrollmentRepository
	resolver    *CampaignResolver
	logger      *zap.Logger
}

func NewCampaignService(
	campaigns repository.CampaignRepository,
	contacts repository.ContactRepository,
	enrollments repository.EnrollmentRepository,
	resolver *CampaignResolver,
	logger *zap.Logger,
) (*CampaignService, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if contacts == nil {
		return nil, fmt.Errorf("contact repository is required")
	}
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment repository is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("campaign resolver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignService{
		campaigns:   campaigns,
		contacts:    contacts,
		enrollments: enrollments,
		resolver:    resolver,
		logger:      logger,
	}, nil
}

// CreateCampaign inserts a campaign, optionally with its first script
// version. The repository rejects windows overlapping another campaign in
// the same area.
func (s *CampaignService) CreateCampaign(ctx context.Context, campaign *domain.Campaign, scriptBody string) (*domain.Campaign, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := campaign.Validate(); err != nil {
		return nil, err
	}
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	if strings.TrimSpace(scriptBody) != "" {
		if _, err := s.campaigns.AddScriptVersion(ctx, campaign.ID, scriptBody); err != nil {
			return nil, fmt.Errorf("campaign created but script rejected: %w", err)
		}
	}

	// Refresh the area's cached campaign so the next assignment sees the
	// new window without waiting for a cache miss.
	if _, err := s.resolver.ForceRescan(ctx, campaign.AreaID); err != nil && !errors.Is(err, domain.ErrNoCurrentCampaign) {
		s.logger.Warn("campaign cache rescan failed after create",
			zap.String("areaId", campaign.AreaID),
			zap.Error(err),
		)
	}

	s.logger.Info("campaign created",
		zap.String("campaignId", campaign.ID),
		zap.String("areaId", campaign.AreaID),
	)
	return campaign, nil
}

// EnrollContact registers a contact into a campaign, creating the contact
// record if the phone is new to the area. Re-enrolling is idempotent.
func (s *CampaignService) EnrollContact(ctx context.Context, campaignID string, contact *domain.Contact) (*domain.Enrollment, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	normalized, err := domain.NormalizePhone(contact.Phone)
	if err != nil {
		return nil, err
	}
	contact.Phone = normalized

	if contact.AreaID == "" {
		contact.AreaID = campaign.AreaID
	}
	if contact.AreaID != campaign.AreaID {
		return nil, fmt.Errorf("%w: contact belongs to area %s, campaign to %s", domain.ErrValidation, contact.AreaID, campaign.AreaID)
	}

	existing, err := s.contacts.GetByPhoneAndArea(ctx, contact.Phone, contact.AreaID)
	switch {
	case err == nil:
		contact = existing
	case errors.Is(err, domain.ErrNotFound):
		if strings.TrimSpace(contact.Name) == "" {
			return nil, fmt.Errorf("%w: contact name is required", domain.ErrValidation)
		}
		contact.ID = uuid.NewString()
		if err := s.contacts.Create(ctx, contact); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	enrollment, err := s.enrollments.Create(ctx, campaignID, contact.ID)
	if errors.Is(err, domain.ErrConflict) {
		return s.enrollments.GetByCampaignAndContact(ctx, campaignID, contact.ID)
	}
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// AddScript appends a new script version. Versions are immutable; editing a
// script always produces the next version number.
func (s *CampaignService) AddScript(ctx context.Context, campaignID, body string) (*domain.ScriptVersion, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: script body is required", domain.ErrValidation)
	}

	if _, err := s.campaigns.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	return s.campaigns.AddScriptVersion(ctx, campaignID, body)
}
