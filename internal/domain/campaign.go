package domain

import (
	"fmt"
	"strings"
	"time"
)

// Campaign is a time-boxed calling effort owned by one area. Its script is a
// versioned, append-only list; edits add a new version, never mutate one.
type Campaign struct {
	ID        string
	AreaID    string
	Name      string
	DateStart time.Time
	DateEnd   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Campaign) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: campaign is required", ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: campaign name is required", ErrValidation)
	}
	if strings.TrimSpace(c.AreaID) == "" {
		return fmt.Errorf("%w: campaign area is required", ErrValidation)
	}
	if c.DateStart.IsZero() || c.DateEnd.IsZero() {
		return fmt.Errorf("%w: campaign time window is required", ErrValidation)
	}
	if c.DateEnd.Before(c.DateStart) {
		return fmt.Errorf("%w: campaign dateEnd precedes dateStart", ErrValidation)
	}
	return nil
}

// ActiveAt reports whether the campaign window contains the instant.
func (c *Campaign) ActiveAt(at time.Time) bool {
	if c == nil {
		return false
	}
	return !at.Before(c.DateStart) && !at.After(c.DateEnd)
}

// Overlaps reports whether two campaign windows intersect. No two campaigns
// in the same area may overlap.
func (c *Campaign) Overlaps(other *Campaign) bool {
	if c == nil || other == nil {
		return false
	}
	return !c.DateEnd.Before(other.DateStart) && !other.DateEnd.Before(c.DateStart)
}

// ScriptVersion is one immutable revision of a campaign script.
type ScriptVersion struct {
	ID         string
	CampaignID string
	Version    int
	Body       string
	CreatedAt  time.Time
}

func (s *ScriptVersion) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: script is required", ErrValidation)
	}
	if strings.TrimSpace(s.Body) == "" {
		return fmt.Errorf("%w: script body is required", ErrValidation)
	}
	return nil
}

// Progress is the aggregate campaign state used for dashboards and export
// filters: contacts with at least one CALLED entry versus total enrolled.
type Progress struct {
	CampaignID string
	Answered   int64
	Total      int64
}
