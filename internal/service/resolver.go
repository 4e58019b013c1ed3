package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/repository"
)

// CampaignResolver finds the campaign currently in progress for an area.
// The area row memoizes the last resolution; the campaign table stays the
// source of truth, so a stale or missing cache entry only costs a rescan.
type CampaignResolver struct {
	areas     repository.AreaRepository
	campaigns repository.CampaignRepository
	logger    *zap.Logger

	now func() time.Time
}

func NewCampaignResolver(
	areas repository.AreaRepository,
	campaigns repository.CampaignRepository,
	logger *zap.Logger,
) (*CampaignResolver, error) {
	if areas == nil {
		return nil, fmt.Errorf("area repository is required")
	}
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignResolver{
		areas:     areas,
		campaigns: campaigns,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Resolve returns the campaign whose window contains now for the area.
// A cached campaign whose window has since closed is treated as a miss:
// the cache is invalidated and the campaign table rescanned.
func (s *CampaignResolver) Resolve(ctx context.Context, areaID string) (*domain.Campaign, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	now := s.now().UTC()

	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, err
	}

	if area.CurrentCampaignID != nil && *area.CurrentCampaignID != "" {
		campaign, err := s.campaigns.GetByID(ctx, *area.CurrentCampaignID)
		if err == nil && campaign.ActiveAt(now) {
			return campaign, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		if invErr := s.areas.InvalidateCurrentCampaign(ctx, areaID); invErr != nil {
			s.logger.Warn("failed to invalidate cached campaign",
				zap.String("areaId", areaID),
				zap.Error(invErr),
			)
		}
	}

	return s.rescan(ctx, areaID, now)
}

// ForceRescan drops the cached campaign and resolves from the campaign
// table. Used after campaign writes so the next assignment sees the change.
func (s *CampaignResolver) ForceRescan(ctx context.Context, areaID string) (*domain.Campaign, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.areas.InvalidateCurrentCampaign(ctx, areaID); err != nil {
		s.logger.Warn("failed to invalidate cached campaign",
			zap.String("areaId", areaID),
			zap.Error(err),
		)
	}

	return s.rescan(ctx, areaID, s.now().UTC())
}

func (s *CampaignResolver) rescan(ctx context.Context, areaID string, now time.Time) (*domain.Campaign, error) {
	campaign, err := s.campaigns.FindActiveByArea(ctx, areaID, now)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoCurrentCampaign
	}
	if err != nil {
		return nil, err
	}

	// Best-effort memoization. Concurrent resolvers land on the same
	// campaign anyway because windows in an area never overlap.
	if err := s.areas.CacheCurrentCampaign(ctx, areaID, campaign.ID, now); err != nil {
		s.logger.Warn("failed to cache resolved campaign",
			zap.String("areaId", areaID),
			zap.String("campaignId", campaign.ID),
			zap.Error(err),
		)
	}

	return campaign, nil
}
