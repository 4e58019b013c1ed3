package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/repository"
)

// CredentialService authenticates callers on every call operation. There is
// no session state; each request carries phone, PIN and area.
type CredentialService struct {
	callers repository.CallerRepository
	logger  *zap.Logger
}

func NewCredentialService(callers repository.CallerRepository, logger *zap.Logger) (*CredentialService, error) {
	if callers == nil {
		return nil, fmt.Errorf("caller repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CredentialService{
		callers: callers,
		logger:  logger,
	}, nil
}

// Validate resolves the caller behind a phone/PIN/area triple. Any failure
// collapses to ErrInvalidCredential so a probe cannot tell a wrong PIN from
// an unknown phone.
func (s *CredentialService) Validate(ctx context.Context, phone, pin, areaID string) (*domain.Caller, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if pin == "" || areaID == "" {
		return nil, domain.ErrInvalidCredential
	}

	normalized, err := domain.NormalizePhone(phone)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}

	caller, err := s.callers.GetByPhoneAndArea(ctx, normalized, areaID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(caller.PINHash), []byte(pin)); err != nil {
		s.logger.Debug("pin check failed",
			zap.String("callerId", caller.ID),
			zap.String("areaId", areaID),
		)
		return nil, domain.ErrInvalidCredential
	}

	return caller, nil
}
