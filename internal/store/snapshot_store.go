package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"assistant/internal/types"
)

const (
	BackendFile  = "file"
	BackendBbolt = "bbolt"
)

// SnapshotStore persists the client cache and the pending stream marker.
// Both are best-effort caches: absent or malformed data loads as nil with no
// error, and malformed data is removed on the way.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*types.SessionSnapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *types.SessionSnapshot) error
	ClearSnapshot(ctx context.Context) error
	LoadPendingStream(ctx context.Context) (*types.StreamSession, error)
	SavePendingStream(ctx context.Context, session types.StreamSession) error
	ClearPendingStream(ctx context.Context) error
	Backend() string
	Close() error
}

var errInvalidPendingStream = errors.New("pending stream requires stream id and reference")

type StoreConfig struct {
	Backend string
	// Path is the bbolt database file or, for the file backend, the
	// directory holding the JSON documents.
	Path string
}

func Open(cfg StoreConfig) (SnapshotStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendBbolt:
		return NewBboltStore(cfg.Path)
	case BackendFile:
		return NewFileStore(cfg.Path)
	default:
		return nil, errors.New("unknown storage backend: " + cfg.Backend)
	}
}

func decodeSnapshot(raw []byte) (*types.SessionSnapshot, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var snapshot types.SessionSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, false
	}
	return &snapshot, true
}

func decodePendingStream(raw []byte) (*types.StreamSession, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var session types.StreamSession
	if err := json.Unmarshal(raw, &session); err != nil || !session.Valid() {
		return nil, false
	}
	return &session, true
}

func encodeSnapshot(snapshot *types.SessionSnapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, errors.New("snapshot is required")
	}
	return json.Marshal(snapshot)
}

func encodePendingStream(session types.StreamSession) ([]byte, error) {
	if !session.Valid() {
		return nil, errInvalidPendingStream
	}
	return json.Marshal(session)
}
