package domain

import "time"

// Contact is a person to be called, owned by exactly one area. Its
// per-campaign attempt state lives on Enrollment records.
type Contact struct {
	ID          string
	AreaID      string
	Phone       string
	Name        string
	Institution string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Area is the administrative tenant boundary. It caches the campaign
// currently in progress as a best-effort memoization, not a source of truth.
type Area struct {
	ID                 string
	Name               string
	CurrentCampaignID  *string
	CampaignResolvedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
