package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/repository"
)

const defaultLedgerLimit = 50

// ProgressService serves read-only campaign state for callers: how far the
// current campaign has come, and the caller's own call-time ledger.
type ProgressService struct {
	credentials *CredentialService
	resolver    *CampaignResolver
	enrollments repository.EnrollmentRepository
	ledger      repository.LedgerRepository
	logger      *zap.Logger
}

func NewProgressService(
	credentials *CredentialService,
	resolver *CampaignResolver,
	enrollments repository.EnrollmentRepository,
	ledger repository.LedgerRepository,
	logger *zap.Logger,
) (*ProgressService, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential service is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("campaign resolver is required")
	}
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment repository is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProgressService{
		credentials: credentials,
		resolver:    resolver,
		enrollments: enrollments,
		ledger:      ledger,
		logger:      logger,
	}, nil
}

// GetProgress returns answered/total counts for the area's current campaign.
// A contact counts as answered once any of its attempts finished CALLED,
// even when a later attempt did not.
func (s *ProgressService) GetProgress(ctx context.Context, phone, pin, areaID string) (*domain.Progress, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.credentials.Validate(ctx, phone, pin, areaID); err != nil {
		return nil, err
	}

	campaign, err := s.resolver.Resolve(ctx, areaID)
	if err != nil {
		return nil, err
	}

	return s.enrollments.Progress(ctx, campaign.ID)
}

// CallLedger returns the caller's most recent call-time entries.
func (s *ProgressService) CallLedger(ctx context.Context, phone, pin, areaID string, limit int) ([]domain.LedgerEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = defaultLedgerLimit
	}

	caller, err := s.credentials.Validate(ctx, phone, pin, areaID)
	if err != nil {
		return nil, err
	}

	return s.ledger.ListByCaller(ctx, caller.ID, limit)
}
