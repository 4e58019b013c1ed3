package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/observability"
	"github.com/callcore/campaign-engine/internal/repository"
)

// maxClaimRetries bounds how many lost claim races one request absorbs
// before reporting the pool as contended-empty.
const maxClaimRetries = 3

// Assignment is the unit handed to a caller: who to call, what to read.
type Assignment struct {
	Caller        *domain.Caller
	Campaign      *domain.Campaign
	Contact       *domain.Contact
	Script        *domain.ScriptVersion
	AlreadyInCall bool
}

// AssignmentService hands out contacts to authenticated callers. Selection
// and marking happen atomically in the enrollment repository; this layer
// sequences credential checks, campaign resolution and the one-outstanding-
// assignment rule.
type AssignmentService struct {
	credentials *CredentialService
	resolver    *CampaignResolver
	enrollments repository.EnrollmentRepository
	contacts    repository.ContactRepository
	campaigns   repository.CampaignRepository
	metrics     *observability.Metrics
	logger      *zap.Logger

	now func() time.Time
}

func NewAssignmentService(
	credentials *CredentialService,
	resolver *CampaignResolver,
	enrollments repository.EnrollmentRepository,
	contacts repository.ContactRepository,
	campaigns repository.CampaignRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*AssignmentService, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential service is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("campaign resolver is required")
	}
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment repository is required")
	}
	if contacts == nil {
		return nil, fmt.Errorf("contact repository is required")
	}
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AssignmentService{
		credentials: credentials,
		resolver:    resolver,
		enrollments: enrollments,
		contacts:    contacts,
		campaigns:   campaigns,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// RequestAssignment authenticates the caller, resolves the area's current
// campaign and returns a contact to call. A caller with an outstanding
// assignment gets that same assignment back, never a second one.
func (s *AssignmentService) RequestAssignment(ctx context.Context, phone, pin, areaID string) (*Assignment, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	caller, err := s.credentials.Validate(ctx, phone, pin, areaID)
	if err != nil {
		return nil, err
	}

	campaign, err := s.resolver.Resolve(ctx, areaID)
	if err != nil {
		if errors.Is(err, domain.ErrNoCurrentCampaign) {
			s.metrics.IncAssignmentDenied("no_current_campaign")
		}
		return nil, err
	}

	if caller.InCall() {
		return s.outstandingAssignment(ctx, caller, campaign)
	}

	script, err := s.campaigns.LatestScript(ctx, campaign.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("campaign %s has no script: %w", campaign.ID, domain.ErrNotFound)
		}
		return nil, err
	}

	claimed, err := s.claimWithRetry(ctx, repository.ClaimParams{
		CampaignID:    campaign.ID,
		CallerID:      caller.ID,
		ScriptVersion: script.Version,
		Now:           s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoClientAvailable) {
			s.metrics.IncAssignmentDenied("no_client_available")
		}
		return nil, err
	}

	contact, err := s.contacts.GetByID(ctx, claimed.ContactID)
	if err != nil {
		return nil, fmt.Errorf("claimed contact %s cannot be loaded: %w", claimed.ContactID, err)
	}

	caller.CurrentContactID = &claimed.ContactID
	s.metrics.IncAssignmentIssued(campaign.ID)
	s.logger.Info("assignment issued",
		zap.String("callerId", caller.ID),
		zap.String("campaignId", campaign.ID),
		zap.String("contactId", contact.ID),
		zap.Int("scriptVersion", script.Version),
	)

	return &Assignment{
		Caller:   caller,
		Campaign: campaign,
		Contact:  contact,
		Script:   script,
	}, nil
}

// outstandingAssignment rebuilds the response for a caller whose previous
// assignment was never closed. The script version is the one pinned at
// claim time, not the latest.
func (s *AssignmentService) outstandingAssignment(ctx context.Context, caller *domain.Caller, campaign *domain.Campaign) (*Assignment, error) {
	contactID := *caller.CurrentContactID

	enrollment, err := s.enrollments.GetByCampaignAndContact(ctx, campaign.ID, contactID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("caller holds a contact with no attempt state",
			zap.String("callerId", caller.ID),
			zap.String("campaignId", campaign.ID),
			zap.String("contactId", contactID),
		)
		return nil, domain.ErrInternalInconsistency
	}
	if err != nil {
		return nil, err
	}

	if enrollment.Status != domain.StatusInProgress || enrollment.CallerID == nil || *enrollment.CallerID != caller.ID {
		s.logger.Error("caller assignment state diverged from enrollment",
			zap.String("callerId", caller.ID),
			zap.String("contactId", contactID),
			zap.String("enrollmentStatus", enrollment.Status.String()),
		)
		return nil, domain.ErrInternalInconsistency
	}

	contact, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}

	script, err := s.campaigns.ScriptByVersion(ctx, campaign.ID, enrollment.ScriptVersion)
	if err != nil {
		return nil, err
	}

	return &Assignment{
		Caller:        caller,
		Campaign:      campaign,
		Contact:       contact,
		Script:        script,
		AlreadyInCall: true,
	}, nil
}

func (s *AssignmentService) claimWithRetry(ctx context.Context, params repository.ClaimParams) (*domain.Enrollment, error) {
	var lastErr error
	for attempt := 0; attempt < maxClaimRetries; attempt++ {
		claimed, err := s.enrollments.ClaimNextEligible(ctx, params)
		if err == nil {
			return claimed, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("claim lost race, retrying",
			zap.String("campaignId", params.CampaignID),
			zap.String("callerId", params.CallerID),
			zap.Int("attempt", attempt+1),
		)
	}

	// Every retry found a row and lost it to a concurrent claimant. The
	// pool is effectively drained for this request.
	s.logger.Warn("claim retries exhausted",
		zap.String("campaignId", params.CampaignID),
		zap.String("callerId", params.CallerID),
		zap.Error(lastErr),
	)
	return nil, domain.ErrNoClientAvailable
}
