package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"adventure-server-go/internal/domain/eventbus"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

// Manager writes artifact files under one directory and tracks them in a Store.
type Manager struct {
	store  Store
	dir    string
	ttl    time.Duration
	bus    eventbus.Publisher
	logger *utils.Logger
	now    func() time.Time
}

type ManagerOptions struct {
	Store  Store
	Dir    string
	TTL    time.Duration
	Bus    eventbus.Publisher
	Logger *utils.Logger
}

// SaveRequest is the content of a new artifact.
type SaveRequest struct {
	Kind        string
	Extension   string
	ContentType string
	Content     []byte
	Metadata    map[string]any
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	const op = "artifact.new_manager"
	if opts.Store == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, op, "artifact store is required")
	}
	if opts.Dir == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, op, "artifact directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to create artifact directory", err)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		store:  opts.Store,
		dir:    opts.Dir,
		ttl:    ttl,
		bus:    opts.Bus,
		logger: opts.Logger,
		now:    time.Now,
	}, nil
}

// Save writes the content under a fresh uuid name and registers it.
func (m *Manager) Save(ctx context.Context, req SaveRequest) (Record, error) {
	const op = "artifact.save"

	id := uuid.NewString()
	ext := req.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := id + ext
	path := filepath.Join(m.dir, name)

	tmp, err := os.CreateTemp(m.dir, ".tmp-"+id+"-*")
	if err != nil {
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to create artifact file", err)
	}
	if _, err := tmp.Write(req.Content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to write artifact file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to write artifact file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to place artifact file", err)
	}

	now := m.now()
	rec := Record{
		ID:          id,
		Name:        name,
		Kind:        req.Kind,
		Path:        path,
		ContentType: req.ContentType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
		Metadata:    req.Metadata,
	}
	if err := m.store.Put(ctx, rec); err != nil {
		m.removeFile(path)
		return Record{}, err
	}

	m.publish(eventbus.EventArtifactCreated, rec)
	return rec, nil
}

// Open resolves a live artifact by name. Unknown, expired or missing files
// are not_found errors.
func (m *Manager) Open(ctx context.Context, name string) (Record, error) {
	const op = "artifact.open"
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return Record{}, notFound(op, name)
	}

	rec, err := m.store.Get(ctx, name)
	if err != nil {
		return Record{}, err
	}
	if rec.Expired(m.now()) {
		return Record{}, notFound(op, name)
	}
	if _, err := os.Stat(rec.Path); err != nil {
		if os.IsNotExist(err) {
			return Record{}, notFound(op, name)
		}
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to stat artifact", err)
	}

	m.publish(eventbus.EventArtifactServed, rec)
	return rec, nil
}

// Sweep deletes expired artifacts and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) (removed int, err error) {
	ctx, end := observability.StartSpan(ctx, "artifact", "sweep")
	defer func() { end(err) }()

	names, err := m.store.Expired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		m.removeFile(filepath.Join(m.dir, name))
		if err := m.store.Remove(ctx, name); err != nil {
			m.logger.WarnTag("ARTIFACT", "failed to drop record %s: %v", name, err)
			continue
		}
		removed++
		m.publish(eventbus.EventArtifactExpired, Record{Name: name, Path: filepath.Join(m.dir, name)})
	}
	if removed > 0 {
		observability.RecordMetric(ctx, "artifacts_swept", float64(removed), nil)
	}
	return removed, nil
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
				m.logger.WarnTag("ARTIFACT", "sweep failed: %v", err)
			} else if n > 0 {
				m.logger.InfoTag("ARTIFACT", "swept %d expired artifacts", n)
			}
		}
	}
}

// Stats reports store statistics for the health endpoint.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats["ttl_seconds"] = int(m.ttl.Seconds())
	return stats, nil
}

// Close releases the underlying store.
func (m *Manager) Close(ctx context.Context) error {
	return m.store.Close(ctx)
}

func (m *Manager) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.WarnTag("ARTIFACT", "failed to remove %s: %v", path, err)
	}
}

func (m *Manager) publish(topic string, rec Record) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(topic, eventbus.ArtifactEventData{
		ID:        rec.ID,
		Name:      rec.Name,
		Kind:      rec.Kind,
		Path:      rec.Path,
		ExpiresAt: rec.ExpiresAt,
	})
}
