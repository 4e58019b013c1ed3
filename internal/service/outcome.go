package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/observability"
	"github.com/callcore/campaign-engine/internal/queue"
	"github.com/callcore/campaign-engine/internal/repository"
)

// OutcomeRequest carries one reported call result. Credentials ride along
// because call operations are stateless.
type OutcomeRequest struct {
	Phone          string
	PIN            string
	AreaID         string
	ContactID      string
	Satisfaction   int
	Comment        string
	DurationMillis int64
}

// OutcomeResult is the committed state after recording an outcome.
type OutcomeResult struct {
	Status     domain.AttemptStatus
	OptOut     bool
	Enrollment *domain.Enrollment
}

// OutcomeService finalizes in-progress attempts. The state change, the
// caller's ledger entry and the caller release commit atomically in the
// enrollment repository; event publication happens after commit and never
// fails the request.
type OutcomeService struct {
	credentials *CredentialService
	resolver    *CampaignResolver
	enrollments repository.EnrollmentRepository
	publisher   queue.Publisher
	metrics     *observability.Metrics
	logger      *zap.Logger

	now func() time.Time
}

func NewOutcomeService(
	credentials *CredentialService,
	resolver *CampaignResolver,
	enrollments repository.EnrollmentRepository,
	publisher queue.Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*OutcomeService, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential service is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("campaign resolver is required")
	}
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OutcomeService{
		credentials: credentials,
		resolver:    resolver,
		enrollments: enrollments,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// RecordOutcome commits the result of the caller's outstanding call. A
// satisfaction of SatisfactionOptOut withdraws the contact from the campaign
// instead of finalizing the attempt.
func (s *OutcomeService) RecordOutcome(ctx context.Context, req OutcomeRequest) (*OutcomeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := domain.ValidateSatisfaction(req.Satisfaction); err != nil {
		return nil, err
	}
	if req.DurationMillis < 0 || req.DurationMillis > domain.MaxCallDurationMillis {
		return nil, fmt.Errorf("%w: durationMillis must be between 0 and %d", domain.ErrValidation, domain.MaxCallDurationMillis)
	}
	// Blank comments persist as the empty string.
	req.Comment = strings.TrimSpace(req.Comment)

	caller, err := s.credentials.Validate(ctx, req.Phone, req.PIN, req.AreaID)
	if err != nil {
		return nil, err
	}

	campaign, err := s.resolver.Resolve(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}

	if !caller.InCall() {
		return nil, domain.ErrNotInCall
	}
	if req.ContactID != "" && req.ContactID != *caller.CurrentContactID {
		return nil, domain.ErrCallerMismatch
	}
	contactID := *caller.CurrentContactID
	now := s.now().UTC()

	result := &OutcomeResult{}
	if req.Satisfaction == domain.SatisfactionOptOut {
		err = s.enrollments.TrashAndRelease(ctx, repository.TrashParams{
			CampaignID:     campaign.ID,
			ContactID:      contactID,
			CallerID:       caller.ID,
			DurationMillis: req.DurationMillis,
			Now:            now,
		})
		if err != nil {
			return nil, mapOutcomeConflict(err)
		}
		result.Status = domain.StatusInProgress
		result.OptOut = true

		s.logger.Info("contact opted out",
			zap.String("callerId", caller.ID),
			zap.String("campaignId", campaign.ID),
			zap.String("contactId", contactID),
		)
	} else {
		status := domain.TerminalStatusFor(req.Satisfaction)
		enrollment, err := s.enrollments.FinalizeOutcome(ctx, repository.OutcomeParams{
			CampaignID:     campaign.ID,
			ContactID:      contactID,
			CallerID:       caller.ID,
			Status:         status,
			Satisfaction:   req.Satisfaction,
			Comment:        req.Comment,
			DurationMillis: req.DurationMillis,
			Now:            now,
		})
		if err != nil {
			return nil, mapOutcomeConflict(err)
		}
		result.Status = status
		result.Enrollment = enrollment
	}

	s.metrics.IncOutcomeRecorded(result.Status.String())
	s.metrics.ObserveCallDuration(result.Status.String(), time.Duration(req.DurationMillis)*time.Millisecond)

	correlationID, _ := observability.CorrelationIDFromContext(ctx)
	s.publishOutcome(ctx, queue.OutcomeMessage{
		CampaignID:     campaign.ID,
		ContactID:      contactID,
		CallerID:       caller.ID,
		Status:         result.Status,
		Satisfaction:   req.Satisfaction,
		DurationMillis: req.DurationMillis,
		OptOut:         result.OptOut,
		OccurredAt:     now,
		CorrelationID:  correlationID,
	})

	return result, nil
}

// publishOutcome pushes the recorded outcome onto the reporting queue. The
// database commit already happened; a broker outage costs an event, not the
// outcome itself.
func (s *OutcomeService) publishOutcome(ctx context.Context, msg queue.OutcomeMessage) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, queue.OutcomeQueue, msg); err != nil {
		s.metrics.IncOutcomeEventPushed("error")
		s.logger.Error("failed to publish outcome event",
			zap.String("campaignId", msg.CampaignID),
			zap.String("contactId", msg.ContactID),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncOutcomeEventPushed("ok")
}

// mapOutcomeConflict turns a lost conditional update into the caller-facing
// error: the attempt was already closed (reaper or a duplicate report).
func mapOutcomeConflict(err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return domain.ErrNotInCall
	}
	return err
}
