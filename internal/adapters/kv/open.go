package kv

import (
	"context"

	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/core/ports"
	"go.trai.ch/zerr"
)

// Open creates the store selected by settings, wrapped in Serialized.
func Open(ctx context.Context, settings domain.Settings) (ports.KVStore, error) {
	var (
		store ports.KVStore
		err   error
	)

	switch settings.Backend {
	case domain.BackendFile, "":
		store, err = NewFileStore(settings.DataDir)
	case domain.BackendSQLite:
		store, err = NewSQLiteStore(ctx, domain.DefaultSQLitePath(settings.DataDir))
	case domain.BackendMemory:
		store = NewMemoryStore()
	default:
		return nil, zerr.With(domain.ErrUnknownBackend, "backend", string(settings.Backend))
	}
	if err != nil {
		return nil, err
	}

	return NewSerialized(store), nil
}
