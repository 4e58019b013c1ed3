package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/callcore/campaign-engine/internal/observability"
	"github.com/callcore/campaign-engine/internal/provider"
	"github.com/callcore/campaign-engine/internal/queue"
)

const minWorkerConcurrency = 1

// ReportingWorker drains the outcome queue and pushes each event to the
// downstream CRM. Transient push failures requeue the event; permanent ones
// are dropped with a log line so one poison event cannot jam the queue.
type ReportingWorker struct {
	consumer    queue.Consumer
	notifier    provider.Notifier
	metrics     *observability.Metrics
	logger      *zap.Logger
	concurrency int
}

func NewReportingWorker(
	consumer queue.Consumer,
	notifier provider.Notifier,
	concurrency int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*ReportingWorker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReportingWorker{
		consumer:    consumer,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes the outcome queue until context cancellation.
func (w *ReportingWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("reporting worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queue.OutcomeQueue),
			)

			err := w.consumer.Consume(groupCtx, queue.OutcomeQueue, w.processEvent)
			if err != nil {
				w.logger.Error("reporting worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("reporting worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (w *ReportingWorker) processEvent(ctx context.Context, msg queue.OutcomeMessage) error {
	started := time.Now()

	resp, err := w.notifier.Push(ctx, msg)
	if err != nil {
		if provider.IsTransient(err) {
			w.logger.Warn("outcome push failed, will retry",
				zap.String("campaignId", msg.CampaignID),
				zap.String("contactId", msg.ContactID),
				zap.Error(err),
			)
			return fmt.Errorf("transient push failure: %w", err)
		}

		// Permanent failure: ack and move on. The outcome is already
		// committed in the database; only the downstream copy is lost.
		w.logger.Error("outcome push rejected, dropping event",
			zap.String("campaignId", msg.CampaignID),
			zap.String("contactId", msg.ContactID),
			zap.Error(err),
		)
		return nil
	}

	w.logger.Debug("outcome pushed",
		zap.String("campaignId", msg.CampaignID),
		zap.String("contactId", msg.ContactID),
		zap.Int("status", resp.StatusCode),
		zap.String("receiptId", resp.ReceiptID),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}
