package provider

import (
	"context"

	"github.com/callcore/campaign-engine/internal/queue"
)

// Notifier is the outbound port pushing recorded outcomes to downstream
// systems (a CRM, a reporting sink).
type Notifier interface {
	Push(ctx context.Context, event queue.OutcomeMessage) (*DeliveryResponse, error)
}

// DeliveryResponse stores push call metadata for audit and logging.
type DeliveryResponse struct {
	StatusCode int
	Body       string
	ReceiptID  string
}
