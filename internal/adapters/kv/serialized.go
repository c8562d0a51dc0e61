package kv

import (
	"context"
	"sync"

	"go.trai.ch/mealbook/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Serialized wraps a store so operations on the same key never overlap.
// Waiters are admitted in arrival order.
type Serialized struct {
	inner ports.KVStore

	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

// NewSerialized wraps inner.
func NewSerialized(inner ports.KVStore) *Serialized {
	return &Serialized{
		inner: inner,
		sems:  make(map[string]*semaphore.Weighted),
	}
}

func (s *Serialized) acquire(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	sem, ok := s.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.sems[key] = sem
	}
	s.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "waiting for key"), "key", key)
	}
	return func() { sem.Release(1) }, nil
}

// Get implements ports.KVStore.
func (s *Serialized) Get(ctx context.Context, key string) ([]byte, bool, error) {
	release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, false, err
	}
	defer release()
	return s.inner.Get(ctx, key)
}

// Set implements ports.KVStore.
func (s *Serialized) Set(ctx context.Context, key string, value []byte) error {
	release, err := s.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return s.inner.Set(ctx, key, value)
}

// Remove implements ports.KVStore.
func (s *Serialized) Remove(ctx context.Context, key string) error {
	release, err := s.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return s.inner.Remove(ctx, key)
}

// Close implements ports.KVStore.
func (s *Serialized) Close() error {
	return s.inner.Close()
}
