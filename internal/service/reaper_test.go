package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewReaperValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewReaper(nil, 0, 0, nil, zap.NewNop()); err == nil {
		t.Fatal("expected error when enrollment repository is nil")
	}
}

func TestNewReaperDefaults(t *testing.T) {
	t.Parallel()

	reaper, err := NewReaper(&fakeEnrollmentRepo{}, 0, 0, nil, nil)
	if err != nil {
		t.Fatalf("NewReaper() error = %v", err)
	}
	if reaper.interval != defaultReapInterval {
		t.Fatalf("interval = %s, want %s", reaper.interval, defaultReapInterval)
	}
	if reaper.maxCallAge != defaultMaxCallAge {
		t.Fatalf("maxCallAge = %s, want %s", reaper.maxCallAge, defaultMaxCallAge)
	}
}

func TestReaperSweepUsesCallAgeCutoff(t *testing.T) {
	t.Parallel()

	fixedNow := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 30 * time.Minute

	var gotCutoff, gotNow time.Time
	enrollments := &fakeEnrollmentRepo{
		reclaimStaleFn: func(ctx context.Context, cutoff, now time.Time, limit int) (int, error) {
			gotCutoff = cutoff
			gotNow = now
			if limit != defaultReapLimit {
				t.Errorf("limit = %d, want %d", limit, defaultReapLimit)
			}
			return 2, nil
		},
	}

	reaper, err := NewReaper(enrollments, time.Minute, maxAge, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReaper() error = %v", err)
	}
	reaper.now = func() time.Time { return fixedNow }

	if err := reaper.sweep(context.Background()); err != nil {
		t.Fatalf("sweep() unexpected error: %v", err)
	}

	if want := fixedNow.Add(-maxAge); !gotCutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", gotCutoff, want)
	}
	if !gotNow.Equal(fixedNow) {
		t.Fatalf("now = %s, want %s", gotNow, fixedNow)
	}
}

func TestReaperSweepPropagatesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("database down")
	enrollments := &fakeEnrollmentRepo{
		reclaimStaleFn: func(ctx context.Context, cutoff, now time.Time, limit int) (int, error) {
			return 0, wantErr
		},
	}

	reaper, err := NewReaper(enrollments, time.Minute, time.Hour, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReaper() error = %v", err)
	}

	if err := reaper.sweep(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
}

func TestReaperStartRunsInitialSweepAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	sweeps := make(chan struct{}, 4)
	enrollments := &fakeEnrollmentRepo{
		reclaimStaleFn: func(ctx context.Context, cutoff, now time.Time, limit int) (int, error) {
			select {
			case sweeps <- struct{}{}:
			default:
			}
			return 0, nil
		},
	}

	reaper, err := NewReaper(enrollments, time.Hour, time.Hour, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReaper() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- reaper.Start(ctx)
	}()

	select {
	case <-sweeps:
	case <-time.After(2 * time.Second):
		t.Fatal("initial sweep did not run")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after cancellation")
	}
}
