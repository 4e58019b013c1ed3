package domain

import "time"

// Caller is an agent making calls, owned by one area. CurrentContactID is
// set only while the contact's latest attempt is IN_PROGRESS and is only
// ever mutated by the caller's own request stream.
type Caller struct {
	ID               string
	AreaID           string
	Phone            string
	Name             string
	PINHash          string
	CurrentContactID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InCall reports whether the caller holds an outstanding assignment.
func (c *Caller) InCall() bool {
	return c != nil && c.CurrentContactID != nil && *c.CurrentContactID != ""
}

// LedgerEntry is one append-only record of call time spent by a caller.
type LedgerEntry struct {
	ID             string
	CallerID       string
	ContactID      string
	CampaignID     string
	DurationMillis int64
	CreatedAt      time.Time
}
