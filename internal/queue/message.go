package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/callcore/campaign-engine/internal/domain"
)

// OutcomeMessage is the broker payload describing one recorded call outcome.
type OutcomeMessage struct {
	CampaignID     string               `json:"campaignId"`
	ContactID      string               `json:"contactId"`
	CallerID       string               `json:"callerId"`
	Status         domain.AttemptStatus `json:"status"`
	Satisfaction   int                  `json:"satisfaction"`
	DurationMillis int64                `json:"durationMillis"`
	OptOut         bool                 `json:"optOut"`
	OccurredAt     time.Time            `json:"occurredAt"`
	CorrelationID  string               `json:"correlationId,omitempty"`
}

func (m OutcomeMessage) Validate() error {
	if strings.TrimSpace(m.CampaignID) == "" {
		return fmt.Errorf("campaignId is required")
	}
	if strings.TrimSpace(m.ContactID) == "" {
		return fmt.Errorf("contactId is required")
	}
	if strings.TrimSpace(m.CallerID) == "" {
		return fmt.Errorf("callerId is required")
	}
	if !m.OptOut && !m.Status.IsTerminal() {
		return fmt.Errorf("status %q is not terminal", m.Status)
	}
	if err := domain.ValidateSatisfaction(m.Satisfaction); err != nil {
		return fmt.Errorf("invalid satisfaction: %d", m.Satisfaction)
	}
	return nil
}
