// Package persist saves and loads registry snapshots under string names.
package persist

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/DangerosoDavo/simstore"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists under a name.
var ErrSnapshotNotFound = eris.New("persist: snapshot not found")

// Store keeps encoded registry snapshots.
type Store interface {
	Save(ctx context.Context, name string, snapshot []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	// List returns the stored snapshot names in no particular order.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Checkpoint serializes r and saves it under name.
func Checkpoint(ctx context.Context, s Store, name string, r *simstore.Registry) error {
	bz, err := r.Serialize()
	if err != nil {
		return eris.Wrapf(err, "failed to checkpoint %q", name)
	}
	if err := s.Save(ctx, name, bz); err != nil {
		return eris.Wrapf(err, "failed to checkpoint %q", name)
	}
	zerolog.Ctx(ctx).Debug().Str("snapshot", name).Int("bytes", len(bz)).Int("entities", r.Len()).Msg("checkpoint saved")
	return nil
}

// Restore loads the snapshot saved under name and deserializes it into r.
func Restore(ctx context.Context, s Store, name string, r *simstore.Registry) error {
	bz, err := s.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := r.Deserialize(bz); err != nil {
		return eris.Wrapf(err, "failed to restore %q", name)
	}
	zerolog.Ctx(ctx).Debug().Str("snapshot", name).Int("entities", r.Len()).Msg("checkpoint restored")
	return nil
}

// MemoryStore keeps snapshots in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, name string, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[name] = append([]byte(nil), snapshot...)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bz, ok := m.snapshots[name]
	if !ok {
		return nil, eris.Wrapf(ErrSnapshotNotFound, "%q", name)
	}
	return append([]byte(nil), bz...), nil
}

func (m *MemoryStore) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.snapshots))
	for name := range m.snapshots {
		names = append(names, name)
	}
	return names, nil
}

func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, name)
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
