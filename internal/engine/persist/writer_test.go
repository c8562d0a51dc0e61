package persist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mealbook/internal/core/ports/mocks"
	"go.trai.ch/mealbook/internal/engine/persist"
	"go.uber.org/mock/gomock"
)

type call struct {
	remove  bool
	payload string
}

// gatedStore records calls and blocks each one until released.
type gatedStore struct {
	mu      sync.Mutex
	calls   []call
	data    map[string][]byte
	started chan struct{}
	gate    chan struct{}

	ctxHasDeadline bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		data:    make(map[string][]byte),
		started: make(chan struct{}, 16),
		gate:    make(chan struct{}),
	}
}

func (s *gatedStore) wait(ctx context.Context) {
	_, ok := ctx.Deadline()
	s.mu.Lock()
	s.ctxHasDeadline = ok
	s.mu.Unlock()
	s.started <- struct{}{}
	<-s.gate
}

func (s *gatedStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *gatedStore) Set(ctx context.Context, key string, value []byte) error {
	s.wait(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{payload: string(value)})
	s.data[key] = value
	return nil
}

func (s *gatedStore) Remove(ctx context.Context, key string) error {
	s.wait(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{remove: true})
	delete(s.data, key)
	return nil
}

func (s *gatedStore) Close() error { return nil }

func (s *gatedStore) release() { close(s.gate) }

func (s *gatedStore) snapshot() ([]call, map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		data[k] = v
	}
	return append([]call(nil), s.calls...), data
}

func TestWriter_CoalescesPendingWrites(t *testing.T) {
	store := newGatedStore()
	w := persist.NewWriter(store)

	w.Submit("meals", []byte("a"))
	<-store.started

	w.Submit("meals", []byte("b"))
	w.Submit("meals", []byte("c"))
	store.release()

	require.NoError(t, w.Flush(t.Context()))

	calls, data := store.snapshot()
	assert.Equal(t, []call{{payload: "a"}, {payload: "c"}}, calls)
	assert.Equal(t, "c", string(data["meals"]))
}

func TestWriter_RemoveAfterSaveLeavesKeyAbsent(t *testing.T) {
	store := newGatedStore()
	w := persist.NewWriter(store)

	w.Submit("meals", []byte("a"))
	<-store.started

	w.Submit("meals", []byte("b"))
	w.SubmitRemove("meals")
	store.release()

	require.NoError(t, w.Flush(t.Context()))

	calls, data := store.snapshot()
	assert.Equal(t, []call{{payload: "a"}, {remove: true}}, calls)
	assert.NotContains(t, data, "meals")
}

func TestWriter_SkipsIdenticalPayload(t *testing.T) {
	store := newGatedStore()
	store.release()
	w := persist.NewWriter(store)

	w.Submit("meals", []byte("same"))
	require.NoError(t, w.Flush(t.Context()))
	w.Submit("meals", []byte("same"))
	require.NoError(t, w.Flush(t.Context()))

	calls, _ := store.snapshot()
	assert.Len(t, calls, 1)

	w.SubmitRemove("meals")
	require.NoError(t, w.Flush(t.Context()))
	w.Submit("meals", []byte("same"))
	require.NoError(t, w.Flush(t.Context()))

	calls, data := store.snapshot()
	assert.Len(t, calls, 3)
	assert.Equal(t, "same", string(data["meals"]))
}

func TestWriter_KeysAreIndependent(t *testing.T) {
	store := newGatedStore()
	store.release()
	w := persist.NewWriter(store)

	w.Submit("a", []byte("1"))
	w.Submit("b", []byte("2"))
	require.NoError(t, w.Flush(t.Context()))

	_, data := store.snapshot()
	assert.Equal(t, "1", string(data["a"]))
	assert.Equal(t, "2", string(data["b"]))
}

func TestWriter_SubmitCopiesPayload(t *testing.T) {
	store := newGatedStore()
	store.release()
	w := persist.NewWriter(store)

	payload := []byte("abc")
	w.Submit("meals", payload)
	payload[0] = 'x'
	require.NoError(t, w.Flush(t.Context()))

	_, data := store.snapshot()
	assert.Equal(t, "abc", string(data["meals"]))
}

func TestWriter_AppliesTimeout(t *testing.T) {
	store := newGatedStore()
	store.release()
	w := persist.NewWriter(store, persist.WithTimeout(time.Second))

	w.Submit("meals", []byte("a"))
	require.NoError(t, w.Flush(t.Context()))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.True(t, store.ctxHasDeadline)
}

func TestWriter_ReportsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKVStore(ctrl)
	store.EXPECT().Set(gomock.Any(), "meals", []byte("a")).Return(errors.New("disk full"))

	var (
		mu     sync.Mutex
		gotKey string
		gotErr error
	)
	w := persist.NewWriter(store, persist.WithErrorHandler(func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		gotKey, gotErr = key, err
	}))

	w.Submit("meals", []byte("a"))
	err := w.Flush(t.Context())
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")

	mu.Lock()
	assert.Equal(t, "meals", gotKey)
	assert.ErrorContains(t, gotErr, "disk full")
	mu.Unlock()

	assert.NoError(t, w.Flush(t.Context()), "errors are reported once")
}

func TestWriter_RetriesSamePayloadAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKVStore(ctrl)
	gomock.InOrder(
		store.EXPECT().Set(gomock.Any(), "meals", []byte("a")).Return(nil),
		store.EXPECT().Set(gomock.Any(), "meals", []byte("b")).Return(errors.New("locked")),
		store.EXPECT().Set(gomock.Any(), "meals", []byte("a")).Return(nil),
	)

	w := persist.NewWriter(store)
	w.Submit("meals", []byte("a"))
	require.NoError(t, w.Flush(t.Context()))
	w.Submit("meals", []byte("b"))
	require.Error(t, w.Flush(t.Context()))
	w.Submit("meals", []byte("a"))
	require.NoError(t, w.Flush(t.Context()))
}

func TestWriter_FlushHonorsContext(t *testing.T) {
	store := newGatedStore()
	w := persist.NewWriter(store)

	w.Submit("meals", []byte("a"))
	<-store.started

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err := w.Flush(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "flush interrupted")

	store.release()
	require.NoError(t, w.Flush(t.Context()))
}

func TestWriter_FlushWithoutWrites(t *testing.T) {
	w := persist.NewWriter(newGatedStore())
	assert.NoError(t, w.Flush(t.Context()))
}
