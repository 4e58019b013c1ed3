package domain

import "time"

// Enrollment is the per-contact, per-campaign call state. Its attempt fields
// hold the latest attempt; older attempts are archived as Attempt entries.
// Exactly this latest entry drives the contact's eligibility.
type Enrollment struct {
	ID         string
	CampaignID string
	ContactID  string

	Status        AttemptStatus
	CallerID      *string
	ScriptVersion int
	StartedAt     *time.Time
	EndedAt       *time.Time
	Satisfaction  *int
	Comment       string

	// AttemptSeq counts attempts started against this enrollment. The
	// archived ring keeps at most MaxAttemptHistory-1 prior entries.
	AttemptSeq int

	// Trashed marks an opt-out. Trashed contacts are permanently excluded
	// from assignment in this campaign.
	Trashed   bool
	TrashedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EligibleAt reports whether the contact may be handed to a caller at the
// given instant: never called yet, or not answered and past the cooldown.
func (e *Enrollment) EligibleAt(now time.Time) bool {
	if e == nil || e.Trashed {
		return false
	}
	switch e.Status {
	case StatusNotCalled:
		return true
	case StatusNotAnswered:
		return e.EndedAt != nil && !e.EndedAt.After(now.Add(-RetryCooldown))
	}
	return false
}

// LatestAttempt renders the enrollment's current state as an attempt entry,
// the shape used when archiving it into the history ring.
func (e *Enrollment) LatestAttempt() Attempt {
	return Attempt{
		EnrollmentID:  e.ID,
		Seq:           e.AttemptSeq,
		Status:        e.Status,
		CallerID:      e.CallerID,
		ScriptVersion: e.ScriptVersion,
		StartedAt:     e.StartedAt,
		EndedAt:       e.EndedAt,
		Satisfaction:  e.Satisfaction,
		Comment:       e.Comment,
	}
}
