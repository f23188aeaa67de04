package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"assistant/internal/types"
)

var (
	bucketSession    = []byte("session")
	keySnapshot      = []byte("snapshot")
	keyPendingStream = []byte("pending_stream")
)

type BboltStore struct {
	db *bolt.DB
}

func NewBboltStore(path string) (*BboltStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltStore{db: db}, nil
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
}

func (s *BboltStore) LoadSnapshot(ctx context.Context) (*types.SessionSnapshot, error) {
	raw, err := s.get(keySnapshot)
	if err != nil || raw == nil {
		return nil, err
	}
	snapshot, ok := decodeSnapshot(raw)
	if !ok {
		return nil, s.delete(keySnapshot)
	}
	return snapshot, nil
}

func (s *BboltStore) SaveSnapshot(ctx context.Context, snapshot *types.SessionSnapshot) error {
	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return s.put(keySnapshot, raw)
}

func (s *BboltStore) ClearSnapshot(ctx context.Context) error {
	return s.delete(keySnapshot)
}

func (s *BboltStore) LoadPendingStream(ctx context.Context) (*types.StreamSession, error) {
	raw, err := s.get(keyPendingStream)
	if err != nil || raw == nil {
		return nil, err
	}
	session, ok := decodePendingStream(raw)
	if !ok {
		return nil, s.delete(keyPendingStream)
	}
	return session, nil
}

func (s *BboltStore) SavePendingStream(ctx context.Context, session types.StreamSession) error {
	raw, err := encodePendingStream(session)
	if err != nil {
		return err
	}
	return s.put(keyPendingStream, raw)
}

func (s *BboltStore) ClearPendingStream(ctx context.Context) error {
	return s.delete(keyPendingStream)
}

func (s *BboltStore) Backend() string {
	return BackendBbolt
}

func (s *BboltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BboltStore) get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return nil
		}
		if raw := b.Get(key); len(raw) > 0 {
			out = append([]byte(nil), raw...)
		}
		return nil
	})
	return out, err
}

func (s *BboltStore) put(key, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return errors.New("session bucket missing")
		}
		return b.Put(key, value)
	})
}

func (s *BboltStore) delete(key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return nil
		}
		return b.Delete(key)
	})
}
