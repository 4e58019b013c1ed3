package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/observability"
	"github.com/callcore/campaign-engine/internal/repository"
)

const (
	defaultReapInterval = time.Minute
	defaultMaxCallAge   = 30 * time.Minute
	defaultReapLimit    = 100
)

// Reaper ages out abandoned calls. An attempt stuck IN_PROGRESS past the
// maximum call age becomes NOT_ANSWERED and its contact returns to the
// eligible pool, so a crashed caller app cannot strand a contact.
type Reaper struct {
	enrollments repository.EnrollmentRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
	interval    time.Duration
	maxCallAge  time.Duration
	limit       int

	now func() time.Time
}

func NewReaper(
	enrollments repository.EnrollmentRepository,
	interval time.Duration,
	maxCallAge time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*Reaper, error) {
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment repository is required")
	}
	if interval <= 0 {
		interval = defaultReapInterval
	}
	if maxCallAge <= 0 {
		maxCallAge = defaultMaxCallAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reaper{
		enrollments: enrollments,
		metrics:     metrics,
		logger:      logger,
		interval:    interval,
		maxCallAge:  maxCallAge,
		limit:       defaultReapLimit,
		now:         time.Now,
	}, nil
}

func (r *Reaper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial sweep so attempts stranded across a restart do not
	// wait for the first ticker edge.
	if err := r.sweep(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("reaper initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("reaper sweep failed", zap.Error(err))
			}
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) error {
	now := r.now().UTC()
	cutoff := now.Add(-r.maxCallAge)

	reclaimed, err := r.enrollments.ReclaimStale(ctx, cutoff, now, r.limit)
	if err != nil {
		return err
	}

	if reclaimed > 0 {
		r.metrics.AddAttemptsReclaimed(reclaimed)
		r.logger.Info("reclaimed stale attempts",
			zap.Int("count", reclaimed),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}
