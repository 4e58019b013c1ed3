package repository

import (
	"time"

	"github.com/callcore/campaign-engine/internal/domain"
)

// AreaModel is the persistence model for the areas table.
type AreaModel struct {
	ID                 string  `gorm:"type:uuid;primaryKey"`
	Name               string  `gorm:"type:varchar(120);not null"`
	CurrentCampaignID  *string `gorm:"type:uuid"`
	CampaignResolvedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (AreaModel) TableName() string {
	return "areas"
}

// CallerModel is the persistence model for the callers table.
type CallerModel struct {
	ID               string  `gorm:"type:uuid;primaryKey"`
	AreaID           string  `gorm:"type:uuid;not null"`
	Phone            string  `gorm:"type:varchar(20);not null"`
	Name             string  `gorm:"type:varchar(120);not null"`
	PINHash          string  `gorm:"column:pin_hash;type:varchar(72);not null"`
	CurrentContactID *string `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (CallerModel) TableName() string {
	return "callers"
}

// ContactModel is the persistence model for the contacts table.
type ContactModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	AreaID      string `gorm:"type:uuid;not null"`
	Phone       string `gorm:"type:varchar(20);not null"`
	Name        string `gorm:"type:varchar(120);not null"`
	Institution string `gorm:"type:varchar(120)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ContactModel) TableName() string {
	return "contacts"
}

// CampaignModel is the persistence model for the campaigns table.
type CampaignModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	AreaID    string    `gorm:"type:uuid;not null"`
	Name      string    `gorm:"type:varchar(120);not null"`
	DateStart time.Time `gorm:"type:timestamptz;not null"`
	DateEnd   time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// ScriptVersionModel is the persistence model for campaign_scripts.
type ScriptVersionModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	CampaignID string `gorm:"type:uuid;not null"`
	Version    int    `gorm:"not null"`
	Body       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

func (ScriptVersionModel) TableName() string {
	return "campaign_scripts"
}

// EnrollmentModel is the persistence model for enrollments. It carries the
// latest attempt state inline; older attempts live in the attempts table.
type EnrollmentModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	CampaignID string `gorm:"type:uuid;not null"`
	ContactID  string `gorm:"type:uuid;not null"`

	Status        domain.AttemptStatus `gorm:"type:varchar(20);not null"`
	CallerID      *string              `gorm:"type:uuid"`
	ScriptVersion int                  `gorm:"not null;default:0"`
	StartedAt     *time.Time
	EndedAt       *time.Time
	Satisfaction  *int   `gorm:"type:int"`
	Comment       string `gorm:"type:text;not null;default:''"`

	AttemptSeq int  `gorm:"not null;default:1"`
	Trashed    bool `gorm:"not null;default:false"`
	TrashedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EnrollmentModel) TableName() string {
	return "enrollments"
}

// AttemptModel is the persistence model for archived attempts.
type AttemptModel struct {
	ID            string               `gorm:"type:uuid;primaryKey"`
	EnrollmentID  string               `gorm:"type:uuid;not null"`
	Seq           int                  `gorm:"not null"`
	Status        domain.AttemptStatus `gorm:"type:varchar(20);not null"`
	CallerID      *string              `gorm:"type:uuid"`
	ScriptVersion int                  `gorm:"not null;default:0"`
	StartedAt     *time.Time
	EndedAt       *time.Time
	Satisfaction  *int   `gorm:"type:int"`
	Comment       string `gorm:"type:text;not null;default:''"`
	CreatedAt     time.Time
}

func (AttemptModel) TableName() string {
	return "attempts"
}

// LedgerEntryModel is the persistence model for the call_ledger table.
type LedgerEntryModel struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	CallerID       string `gorm:"type:uuid;not null"`
	ContactID      string `gorm:"type:uuid;not null"`
	CampaignID     string `gorm:"type:uuid;not null"`
	DurationMillis int64  `gorm:"not null"`
	CreatedAt      time.Time
}

func (LedgerEntryModel) TableName() string {
	return "call_ledger"
}

func areaModelToDomain(m *AreaModel) *domain.Area {
	if m == nil {
		return nil
	}

	return &domain.Area{
		ID:                 m.ID,
		Name:               m.Name,
		CurrentCampaignID:  m.CurrentCampaignID,
		CampaignResolvedAt: m.CampaignResolvedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func callerModelToDomain(m *CallerModel) *domain.Caller {
	if m == nil {
		return nil
	}

	return &domain.Caller{
		ID:               m.ID,
		AreaID:           m.AreaID,
		Phone:            m.Phone,
		Name:             m.Name,
		PINHash:          m.PINHash,
		CurrentContactID: m.CurrentContactID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func contactModelFromDomain(c *domain.Contact) *ContactModel {
	if c == nil {
		return nil
	}

	return &ContactModel{
		ID:          c.ID,
		AreaID:      c.AreaID,
		Phone:       c.Phone,
		Name:        c.Name,
		Institution: c.Institution,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func contactModelToDomain(m *ContactModel) *domain.Contact {
	if m == nil {
		return nil
	}

	return &domain.Contact{
		ID:          m.ID,
		AreaID:      m.AreaID,
		Phone:       m.Phone,
		Name:        m.Name,
		Institution: m.Institution,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:        c.ID,
		AreaID:    c.AreaID,
		Name:      c.Name,
		DateStart: c.DateStart,
		DateEnd:   c.DateEnd,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:        m.ID,
		AreaID:    m.AreaID,
		Name:      m.Name,
		DateStart: m.DateStart,
		DateEnd:   m.DateEnd,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func scriptModelToDomain(m *ScriptVersionModel) *domain.ScriptVersion {
	if m == nil {
		return nil
	}

	return &domain.ScriptVersion{
		ID:         m.ID,
		CampaignID: m.CampaignID,
		Version:    m.Version,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}

func enrollmentModelToDomain(m *EnrollmentModel) *domain.Enrollment {
	if m == nil {
		return nil
	}

	return &domain.Enrollment{
		ID:            m.ID,
		CampaignID:    m.CampaignID,
		ContactID:     m.ContactID,
		Status:        m.Status,
		CallerID:      m.CallerID,
		ScriptVersion: m.ScriptVersion,
		StartedAt:     m.StartedAt,
		EndedAt:       m.EndedAt,
		Satisfaction:  m.Satisfaction,
		Comment:       m.Comment,
		AttemptSeq:    m.AttemptSeq,
		Trashed:       m.Trashed,
		TrashedAt:     m.TrashedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func attemptModelToDomain(m *AttemptModel) *domain.Attempt {
	if m == nil {
		return nil
	}

	return &domain.Attempt{
		ID:            m.ID,
		EnrollmentID:  m.EnrollmentID,
		Seq:           m.Seq,
		Status:        m.Status,
		CallerID:      m.CallerID,
		ScriptVersion: m.ScriptVersion,
		StartedAt:     m.StartedAt,
		EndedAt:       m.EndedAt,
		Satisfaction:  m.Satisfaction,
		Comment:       m.Comment,
		CreatedAt:     m.CreatedAt,
	}
}

func ledgerModelToDomain(m *LedgerEntryModel) *domain.LedgerEntry {
	if m == nil {
		return nil
	}

	return &domain.LedgerEntry{
		ID:             m.ID,
		CallerID:       m.CallerID,
		ContactID:      m.ContactID,
		CampaignID:     m.CampaignID,
		DurationMillis: m.DurationMillis,
		CreatedAt:      m.CreatedAt,
	}
}
