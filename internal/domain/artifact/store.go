// Package artifact manages request-scoped generated files (trip maps) and
// their lifetime.
package artifact

import (
	"context"
	"time"
)

// Record describes one generated file.
type Record struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	Path        string         `json:"path"`
	ContentType string         `json:"content_type"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists artifact records. Get returns a not_found error for unknown
// or expired names.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, name string) (Record, error)
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]Record, error)
	// Expired returns the names of records whose expiry is at or before now.
	Expired(ctx context.Context, now time.Time) ([]string, error)
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the store selection parameters.
type Config struct {
	Driver string
	Redis  *RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
