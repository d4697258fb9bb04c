package migrations

import (
	"gorm.io/gorm"
)

// Migration002ArtifactIndexes speeds up the expiry sweep and per-kind stats.
type Migration002ArtifactIndexes struct{}

func (m *Migration002ArtifactIndexes) Version() string {
	return "002_artifact_indexes"
}

func (m *Migration002ArtifactIndexes) Description() string {
	return "Index artifacts by expiry and kind"
}

func (m *Migration002ArtifactIndexes) Up(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_artifacts_expires_at ON artifacts(expires_at)`).Error; err != nil {
		return err
	}
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(kind)`).Error
}

func (m *Migration002ArtifactIndexes) Down(db *gorm.DB) error {
	if err := db.Exec(`DROP INDEX IF EXISTS idx_artifacts_kind`).Error; err != nil {
		return err
	}
	return db.Exec(`DROP INDEX IF EXISTS idx_artifacts_expires_at`).Error
}
