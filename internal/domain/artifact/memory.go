package artifact

import (
	"context"
	"sort"
	"sync"
	"time"

	platformerrors "adventure-server-go/internal/platform/errors"
)

type memoryStore struct {
	items map[string]Record
	mutex sync.RWMutex
}

// NewMemory builds an in-process artifact store.
func NewMemory() Store {
	return &memoryStore{items: make(map[string]Record)}
}

func (s *memoryStore) Put(_ context.Context, rec Record) error {
	if rec.Name == "" {
		return platformerrors.New(platformerrors.KindStorage, "artifact.memory.put", "artifact name required")
	}
	s.mutex.Lock()
	s.items[rec.Name] = rec
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, name string) (Record, error) {
	s.mutex.RLock()
	rec, ok := s.items[name]
	s.mutex.RUnlock()
	if !ok || rec.Expired(time.Now()) {
		return Record{}, notFound("artifact.memory.get", name)
	}
	return rec, nil
}

func (s *memoryStore) Remove(_ context.Context, name string) error {
	s.mutex.Lock()
	delete(s.items, name)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]Record, error) {
	now := time.Now()
	s.mutex.RLock()
	out := make([]Record, 0, len(s.items))
	for _, rec := range s.items {
		if !rec.Expired(now) {
			out = append(out, rec)
		}
	}
	s.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) Expired(_ context.Context, now time.Time) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var names []string
	for name, rec := range s.items {
		if rec.Expired(now) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	active := 0
	for _, rec := range s.items {
		if !rec.Expired(now) {
			active++
		}
	}
	return map[string]any{
		"type":   DriverMemory,
		"total":  len(s.items),
		"active": active,
	}, nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
