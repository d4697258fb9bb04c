package migrations

import (
	"gorm.io/gorm"
)

// Migration001Artifacts creates the generated-artifact table.
type Migration001Artifacts struct{}

func (m *Migration001Artifacts) Version() string {
	return "001_artifacts"
}

func (m *Migration001Artifacts) Description() string {
	return "Create artifacts table for generated trip maps"
}

func (m *Migration001Artifacts) Up(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS artifacts (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			kind VARCHAR(64) NOT NULL,
			path TEXT NOT NULL,
			content_type VARCHAR(128),
			created_at DATETIME NOT NULL,
			expires_at DATETIME,
			metadata JSON
		)
	`).Error
}

func (m *Migration001Artifacts) Down(db *gorm.DB) error {
	return db.Exec(`DROP TABLE IF EXISTS artifacts`).Error
}
