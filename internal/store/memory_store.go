package store

import (
	"context"
	"sync"

	"assistant/internal/types"
)

// MemoryStore keeps raw encoded values so it round-trips exactly like the
// persistent backends, including discarding malformed data.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot []byte
	pending  []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetRaw seeds raw stored bytes, e.g. to simulate another writer.
func (s *MemoryStore) SetRaw(snapshot, pending []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.pending = pending
}

func (s *MemoryStore) LoadSnapshot(ctx context.Context) (*types.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, nil
	}
	snapshot, ok := decodeSnapshot(s.snapshot)
	if !ok {
		s.snapshot = nil
		return nil, nil
	}
	return snapshot, nil
}

func (s *MemoryStore) SaveSnapshot(ctx context.Context, snapshot *types.SessionSnapshot) error {
	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = raw
	return nil
}

func (s *MemoryStore) ClearSnapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	return nil
}

func (s *MemoryStore) LoadPendingStream(ctx context.Context) (*types.StreamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, nil
	}
	session, ok := decodePendingStream(s.pending)
	if !ok {
		s.pending = nil
		return nil, nil
	}
	return session, nil
}

func (s *MemoryStore) SavePendingStream(ctx context.Context, session types.StreamSession) error {
	raw, err := encodePendingStream(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = raw
	return nil
}

func (s *MemoryStore) ClearPendingStream(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

func (s *MemoryStore) Backend() string {
	return "memory"
}

func (s *MemoryStore) Close() error {
	return nil
}
