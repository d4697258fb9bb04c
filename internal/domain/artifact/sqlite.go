package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a SQLite-backed artifact store over a migrated handle.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "artifact.sqlite.new", "sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Put(ctx context.Context, rec Record) error {
	const op = "artifact.sqlite.put"
	if rec.Name == "" {
		return platformerrors.New(platformerrors.KindStorage, op, "artifact name required")
	}

	var meta []byte
	if len(rec.Metadata) > 0 {
		var err error
		if meta, err = sonic.Marshal(rec.Metadata); err != nil {
			return platformerrors.Wrap(platformerrors.KindStorage, op, "failed to encode metadata", err)
		}
	}

	row := storage.Artifact{
		ID:          rec.ID,
		Name:        rec.Name,
		Kind:        rec.Kind,
		Path:        rec.Path,
		ContentType: rec.ContentType,
		CreatedAt:   rec.CreatedAt,
		Metadata:    meta,
	}
	if !rec.ExpiresAt.IsZero() {
		exp := rec.ExpiresAt
		row.ExpiresAt = &exp
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, op, "failed to save artifact", err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, name string) (Record, error) {
	const op = "artifact.sqlite.get"

	var row storage.Artifact
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, notFound(op, name)
	}
	if err != nil {
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to load artifact", err)
	}

	rec := fromRow(row)
	if rec.Expired(time.Now()) {
		return Record{}, notFound(op, name)
	}
	return rec, nil
}

func (s *sqliteStore) Remove(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&storage.Artifact{}).Error; err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "artifact.sqlite.remove", "failed to delete artifact", err)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context) ([]Record, error) {
	var rows []storage.Artifact
	err := s.db.WithContext(ctx).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.sqlite.list", "failed to list artifacts", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *sqliteStore) Expired(ctx context.Context, now time.Time) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&storage.Artifact{}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.sqlite.expired", "failed to query expired artifacts", err)
	}
	return names, nil
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total, active int64
	db := s.db.WithContext(ctx).Model(&storage.Artifact{})
	if err := db.Count(&total).Error; err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.sqlite.stats", "failed to count artifacts", err)
	}
	err := s.db.WithContext(ctx).Model(&storage.Artifact{}).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Count(&active).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.sqlite.stats", "failed to count artifacts", err)
	}
	return map[string]any{
		"type":   DriverSQLite,
		"total":  total,
		"active": active,
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func fromRow(row storage.Artifact) Record {
	rec := Record{
		ID:          row.ID,
		Name:        row.Name,
		Kind:        row.Kind,
		Path:        row.Path,
		ContentType: row.ContentType,
		CreatedAt:   row.CreatedAt,
	}
	if row.ExpiresAt != nil {
		rec.ExpiresAt = *row.ExpiresAt
	}
	if len(row.Metadata) > 0 {
		var meta map[string]any
		if err := sonic.Unmarshal(row.Metadata, &meta); err == nil {
			rec.Metadata = meta
		}
	}
	return rec
}
