package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"assistant/internal/types"
)

const (
	snapshotFileName      = "session.json"
	pendingStreamFileName = "pending_stream.json"
)

type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) LoadSnapshot(ctx context.Context) (*types.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(snapshotFileName)
	raw, err := readFile(path)
	if err != nil || raw == nil {
		return nil, err
	}
	snapshot, ok := decodeSnapshot(raw)
	if !ok {
		return nil, removeFile(path)
	}
	return snapshot, nil
}

func (s *FileStore) SaveSnapshot(ctx context.Context, snapshot *types.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot == nil {
		return errors.New("snapshot is required")
	}
	return writeJSONAtomic(s.path(snapshotFileName), snapshot)
}

func (s *FileStore) ClearSnapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.path(snapshotFileName))
}

func (s *FileStore) LoadPendingStream(ctx context.Context) (*types.StreamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(pendingStreamFileName)
	raw, err := readFile(path)
	if err != nil || raw == nil {
		return nil, err
	}
	session, ok := decodePendingStream(raw)
	if !ok {
		return nil, removeFile(path)
	}
	return session, nil
}

func (s *FileStore) SavePendingStream(ctx context.Context, session types.StreamSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !session.Valid() {
		return errInvalidPendingStream
	}
	return writeJSONAtomic(s.path(pendingStreamFileName), session)
}

func (s *FileStore) ClearPendingStream(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.path(pendingStreamFileName))
}

func (s *FileStore) Backend() string {
	return BackendFile
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}
