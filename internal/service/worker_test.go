package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/provider"
	"github.com/callcore/campaign-engine/internal/queue"
)

type fakeNotifier struct {
	pushFn func(ctx context.Context, event queue.OutcomeMessage) (*provider.DeliveryResponse, error)
}

func (f *fakeNotifier) Push(ctx context.Context, event queue.OutcomeMessage) (*provider.DeliveryResponse, error) {
	if f.pushFn == nil {
		return &provider.DeliveryResponse{StatusCode: http.StatusAccepted}, nil
	}
	return f.pushFn(ctx, event)
}

func testEvent() queue.OutcomeMessage {
	return queue.OutcomeMessage{
		CampaignID:     "camp-1",
		ContactID:      "contact-1",
		CallerID:       "caller-1",
		Status:         domain.StatusCalled,
		Satisfaction:   1,
		DurationMillis: 30_000,
		OccurredAt:     time.Now().UTC(),
	}
}

func TestNewReportingWorkerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewReportingWorker(nil, &fakeNotifier{}, 1, nil, zap.NewNop()); err == nil {
		t.Fatal("expected error when consumer is nil")
	}
	if _, err := NewReportingWorker(&fakeConsumer{}, nil, 1, nil, zap.NewNop()); err == nil {
		t.Fatal("expected error when notifier is nil")
	}

	worker, err := NewReportingWorker(&fakeConsumer{}, &fakeNotifier{}, 0, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReportingWorker() error = %v", err)
	}
	if worker.concurrency != minWorkerConcurrency {
		t.Fatalf("concurrency = %d, want %d", worker.concurrency, minWorkerConcurrency)
	}
}

func TestProcessEventPushesOutcome(t *testing.T) {
	t.Parallel()

	var pushed *queue.OutcomeMessage
	notifier := &fakeNotifier{
		pushFn: func(ctx context.Context, event queue.OutcomeMessage) (*provider.DeliveryResponse, error) {
			pushed = &event
			return &provider.DeliveryResponse{StatusCode: http.StatusAccepted, ReceiptID: "r-1"}, nil
		},
	}

	worker, err := NewReportingWorker(&fakeConsumer{}, notifier, 1, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReportingWorker() error = %v", err)
	}

	event := testEvent()
	if err := worker.processEvent(context.Background(), event); err != nil {
		t.Fatalf("processEvent() unexpected error: %v", err)
	}
	if pushed == nil || pushed.ContactID != event.ContactID {
		t.Fatalf("pushed = %+v, want event for %q", pushed, event.ContactID)
	}
}

func TestProcessEventTransientFailureRequeues(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{
		pushFn: func(ctx context.Context, event queue.OutcomeMessage) (*provider.DeliveryResponse, error) {
			return nil, &provider.Error{StatusCode: http.StatusServiceUnavailable, Message: "crm down", Transient: true}
		},
	}

	worker, err := NewReportingWorker(&fakeConsumer{}, notifier, 1, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReportingWorker() error = %v", err)
	}

	if err := worker.processEvent(context.Background(), testEvent()); err == nil {
		t.Fatal("expected an error so the delivery is requeued")
	}
}

func TestProcessEventPermanentFailureAcks(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{
		pushFn: func(ctx context.Context, event queue.OutcomeMessage) (*provider.DeliveryResponse, error) {
			return nil, &provider.Error{StatusCode: http.StatusBadRequest, Message: "rejected", Transient: false}
		},
	}

	worker, err := NewReportingWorker(&fakeConsumer{}, notifier, 1, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReportingWorker() error = %v", err)
	}

	if err := worker.processEvent(context.Background(), testEvent()); err != nil {
		t.Fatalf("processEvent() = %v, want nil so the poison event is dropped", err)
	}
}

func TestReportingWorkerStartConsumesOutcomeQueue(t *testing.T) {
	t.Parallel()

	consumed := make(chan string, 4)
	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, handler queue.MessageHandler) error {
			consumed <- queueName
			<-ctx.Done()
			return nil
		},
	}

	worker, err := NewReportingWorker(consumer, &fakeNotifier{}, 2, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReportingWorker() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Start(ctx)
	}()

	for i := 0; i < 2; i++ {
		select {
		case name := <-consumed:
			if name != queue.OutcomeQueue {
				t.Fatalf("queue = %q, want %q", name, queue.OutcomeQueue)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not start consuming")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestReportingWorkerStartPropagatesConsumerError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("channel closed")
	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, handler queue.MessageHandler) error {
			return wantErr
		},
	}

	worker, err := NewReportingWorker(consumer, &fakeNotifier{}, 1, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReportingWorker() error = %v", err)
	}

	if err := worker.Start(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Start() error = %v, want %v", err, wantErr)
	}
}
