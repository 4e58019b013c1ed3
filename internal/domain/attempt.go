package domain

import (
	"fmt"
	"strings"
	"time"
)

// AttemptStatus represents the lifecycle state of a call attempt.
type AttemptStatus string

const (
	StatusNotCalled   AttemptStatus = "NOT_CALLED"
	StatusInProgress  AttemptStatus = "IN_PROGRESS"
	StatusCalled      AttemptStatus = "CALLED"
	StatusNotAnswered AttemptStatus = "NOT_ANSWERED"
)

func (s AttemptStatus) String() string { return string(s) }

func (s AttemptStatus) IsValid() bool {
	switch s {
	case StatusNotCalled, StatusInProgress, StatusCalled, StatusNotAnswered:
		return true
	}
	return false
}

// IsTerminal reports whether the status closes an attempt.
func (s AttemptStatus) IsTerminal() bool {
	return s == StatusCalled || s == StatusNotAnswered
}

func ParseAttemptStatusFromString(s string) (AttemptStatus, error) {
	st := AttemptStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid attempt status %q", ErrValidation, s)
	}
	return st, nil
}

// Satisfaction codes reported with an outcome.
const (
	// SatisfactionOptOut withdraws the contact from the campaign.
	SatisfactionOptOut = -2
	// SatisfactionNotAnswered means the call was not picked up.
	SatisfactionNotAnswered = 0

	MinSatisfaction = -2
	MaxSatisfaction = 2
)

// ValidateSatisfaction checks the reported satisfaction code range.
func ValidateSatisfaction(code int) error {
	if code < MinSatisfaction || code > MaxSatisfaction {
		return fmt.Errorf("%w: satisfaction must be between %d and %d (got %d)", ErrValidation, MinSatisfaction, MaxSatisfaction, code)
	}
	return nil
}

// TerminalStatusFor maps a non-opt-out satisfaction code to the terminal
// status the attempt finalizes as.
func TerminalStatusFor(satisfaction int) AttemptStatus {
	if satisfaction == SatisfactionNotAnswered {
		return StatusNotAnswered
	}
	return StatusCalled
}

const (
	// MaxAttemptHistory bounds per-campaign attempt entries per contact.
	// The history is a fixed-capacity ring: the oldest entry is dropped
	// when a fifth would be recorded.
	MaxAttemptHistory = 4

	// RetryCooldown is how long a NOT_ANSWERED contact stays ineligible.
	RetryCooldown = 3 * time.Hour

	// MaxCallDurationMillis caps a reported call duration (20 minutes).
	MaxCallDurationMillis int64 = 1_200_000
)

// Attempt is an archived attempt entry. The latest attempt for a contact in
// a campaign lives on the Enrollment; archived entries are immutable history.
type Attempt struct {
	ID            string
	EnrollmentID  string
	Seq           int
	Status        AttemptStatus
	CallerID      *string
	ScriptVersion int
	StartedAt     *time.Time
	EndedAt       *time.Time
	Satisfaction  *int
	Comment       string
	CreatedAt     time.Time
}
