package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseAttemptStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    AttemptStatus
		wantErr bool
	}{
		{name: "valid uppercase", input: "CALLED", want: StatusCalled},
		{name: "valid lowercase with spaces", input: " in_progress ", want: StatusInProgress},
		{name: "invalid", input: "ringing", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAttemptStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseAttemptStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseAttemptStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseAttemptStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateSatisfaction(t *testing.T) {
	t.Parallel()

	for _, code := range []int{-2, -1, 0, 1, 2} {
		if err := ValidateSatisfaction(code); err != nil {
			t.Fatalf("ValidateSatisfaction(%d) unexpected error = %v", code, err)
		}
	}
	for _, code := range []int{-3, 3, 10} {
		if err := ValidateSatisfaction(code); !errors.Is(err, ErrValidation) {
			t.Fatalf("ValidateSatisfaction(%d) error = %v, want ErrValidation", code, err)
		}
	}
}

func TestTerminalStatusFor(t *testing.T) {
	t.Parallel()

	if got := TerminalStatusFor(SatisfactionNotAnswered); got != StatusNotAnswered {
		t.Fatalf("TerminalStatusFor(0) = %s, want NOT_ANSWERED", got)
	}
	for _, code := range []int{-1, 1, 2} {
		if got := TerminalStatusFor(code); got != StatusCalled {
			t.Fatalf("TerminalStatusFor(%d) = %s, want CALLED", code, got)
		}
	}
}

func TestEnrollmentEligibleAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	endedAt := func(ago time.Duration) *time.Time {
		ts := now.Add(-ago)
		return &ts
	}

	tests := []struct {
		name       string
		enrollment Enrollment
		want       bool
	}{
		{
			name:       "not called is eligible",
			enrollment: Enrollment{Status: StatusNotCalled},
			want:       true,
		},
		{
			name:       "in progress is not eligible",
			enrollment: Enrollment{Status: StatusInProgress, StartedAt: endedAt(time.Minute)},
			want:       false,
		},
		{
			name:       "called is not eligible",
			enrollment: Enrollment{Status: StatusCalled, EndedAt: endedAt(24 * time.Hour)},
			want:       false,
		},
		{
			name:       "not answered one second before cooldown",
			enrollment: Enrollment{Status: StatusNotAnswered, EndedAt: endedAt(2*time.Hour + 59*time.Minute + 59*time.Second)},
			want:       false,
		},
		{
			name:       "not answered exactly at cooldown",
			enrollment: Enrollment{Status: StatusNotAnswered, EndedAt: endedAt(3 * time.Hour)},
			want:       true,
		},
		{
			name:       "not answered past cooldown",
			enrollment: Enrollment{Status: StatusNotAnswered, EndedAt: endedAt(5 * time.Hour)},
			want:       true,
		},
		{
			name:       "not answered without end time",
			enrollment: Enrollment{Status: StatusNotAnswered},
			want:       false,
		},
		{
			name:       "trashed is never eligible",
			enrollment: Enrollment{Status: StatusNotCalled, Trashed: true},
			want:       false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.enrollment.EligibleAt(now); got != tt.want {
				t.Fatalf("EligibleAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
