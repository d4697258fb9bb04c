package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/storage/migrations"
)

// Artifact is the persisted form of a generated file (trip maps today).
type Artifact struct {
	ID          string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null"        json:"name"`
	Kind        string         `gorm:"index;not null"              json:"kind"`
	Path        string         `gorm:"not null"                    json:"path"`
	ContentType string         `                                   json:"content_type"`
	CreatedAt   time.Time      `                                   json:"created_at"`
	ExpiresAt   *time.Time     `gorm:"index"                       json:"expires_at,omitempty"`
	Metadata    datatypes.JSON `                                   json:"metadata,omitempty"`
}

func (Artifact) TableName() string {
	return "artifacts"
}

// Open connects to SQLite at dsn and applies pending migrations.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, platformerrors.New(platformerrors.KindStorage, "storage.open", "sqlite dsn required")
	}
	if !isMemoryDSN(dsn) {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.open", "failed to create data directory", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.open", "failed to open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.open", "failed to access connection pool", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate registers and runs the schema migrations.
func Migrate(db *gorm.DB) error {
	manager := NewMigrationManager(db)
	manager.AddMigration(&migrations.Migration001Artifacts{})
	manager.AddMigration(&migrations.Migration002ArtifactIndexes{})
	return manager.RunMigrations()
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}
