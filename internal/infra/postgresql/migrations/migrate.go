package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/callcore/campaign-engine/internal/repository"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_areas",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.AreaModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.AreaModel{})
			},
		},
		{
			ID: "000002_create_callers",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.CallerModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_callers_phone_area ON callers (phone, area_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CallerModel{})
			},
		},
		{
			ID: "000003_create_contacts",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ContactModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_phone_area ON contacts (phone, area_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ContactModel{})
			},
		},
		{
			ID: "000004_create_campaigns",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.CampaignModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_campaigns_area_window ON campaigns (area_id, date_start, date_end)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CampaignModel{})
			},
		},
		{
			ID: "000005_create_campaign_scripts",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ScriptVersionModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_campaign_scripts_version ON campaign_scripts (campaign_id, version)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ScriptVersionModel{})
			},
		},
		{
			ID: "000006_create_enrollments",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.EnrollmentModel{}); err != nil {
					return err
				}
				indexes := []string{
					// Backs the idempotent enroll upsert.
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_campaign_contact ON enrollments (campaign_id, contact_id)`,
					// Backs the eligible-row scan in claim order.
					`CREATE INDEX IF NOT EXISTS idx_enrollments_eligible ON enrollments (campaign_id, contact_id) WHERE trashed = false AND status IN ('NOT_CALLED', 'NOT_ANSWERED')`,
					// Backs the stale-attempt sweep.
					`CREATE INDEX IF NOT EXISTS idx_enrollments_in_progress ON enrollments (started_at) WHERE status = 'IN_PROGRESS'`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.EnrollmentModel{})
			},
		},
		{
			ID: "000007_create_attempts",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.AttemptModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_enrollment_seq ON attempts (enrollment_id, seq)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.AttemptModel{})
			},
		},
		{
			ID: "000008_create_call_ledger",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.LedgerEntryModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_call_ledger_caller_created ON call_ledger (caller_id, created_at DESC)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.LedgerEntryModel{})
			},
		},
	})

	return m.Migrate()
}
