package queue

import "context"

// Publisher publishes outcome events to the broker.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg OutcomeMessage) error
	Close() error
}

// MessageHandler handles a consumed outcome event.
type MessageHandler func(ctx context.Context, msg OutcomeMessage) error

// Consumer consumes outcome events from the broker.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

const (
	// OutcomeQueue carries recorded call outcomes to downstream consumers.
	OutcomeQueue = "outcomes"

	dlxExchangeName = "campaign.dlx"
)

// DLQName returns the dead-letter queue for a work queue, e.g. dlq.outcomes.
func DLQName(queue string) string {
	return "dlq." + queue
}
