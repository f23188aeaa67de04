package main

import (
	"context"
	"time"

	"assistant/internal/client"
	"assistant/internal/config"
	"assistant/internal/journal"
	"assistant/internal/logging"
	"assistant/internal/store"
	"assistant/internal/types"
)

const defaultRequestTimeout = 30 * time.Second

type clientFactory func(cfg config.Config, logger logging.Logger) (commandClient, error)

type storeFactory func(cfg config.Config) (store.SnapshotStore, error)

// commandClient is the backend surface the commands use: everything the
// journal session needs plus search.
type commandClient interface {
	journal.API
	SearchJournals(ctx context.Context, query string, limit int) ([]types.JournalEntry, error)
}

func newBackendClient(cfg config.Config, logger logging.Logger) (commandClient, error) {
	cookiePath, err := config.CookiePath()
	if err != nil {
		return nil, err
	}
	backend, err := client.New(client.Options{
		BaseURL:     cfg.BaseURL(),
		CookiePath:  cookiePath,
		Timeout:     defaultRequestTimeout,
		Logger:      logger,
		StreamDebug: cfg.StreamDebugEnabled(),
	})
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func openSnapshotStore(cfg config.Config) (store.SnapshotStore, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	return store.Open(store.StoreConfig{
		Backend: cfg.StorageBackend(),
		Path:    path,
	})
}
