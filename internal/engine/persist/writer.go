// Package persist implements the asynchronous write path from the meal
// repository to a key-value store.
package persist

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ErrorHandler receives failures of background store operations.
type ErrorHandler func(key string, err error)

// Option configures a Writer.
type Option func(*Writer)

// WithTimeout bounds every individual store call.
func WithTimeout(d time.Duration) Option {
	return func(w *Writer) {
		w.timeout = d
	}
}

// WithErrorHandler sets the callback invoked when a store operation fails.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *Writer) {
		w.onError = h
	}
}

type op struct {
	remove  bool
	payload []byte
	sum     uint64
}

type slot struct {
	pending *op
	running bool
	idle    chan struct{}
	lastSum uint64
	hasSum  bool
}

// Writer applies store operations in the background.
// Operations on one key run one at a time in submission order. Operations
// submitted while another is in flight are coalesced so only the newest
// one is applied next.
type Writer struct {
	store   ports.KVStore
	timeout time.Duration
	onError ErrorHandler

	mu    sync.Mutex
	slots map[string]*slot
	err   error
}

// NewWriter creates a Writer on top of store.
func NewWriter(store ports.KVStore, opts ...Option) *Writer {
	w := &Writer{
		store:   store,
		timeout: domain.DefaultWriteTimeout,
		slots:   make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit schedules payload to be written under key. It never blocks on I/O.
func (w *Writer) Submit(key string, payload []byte) {
	w.enqueue(key, &op{payload: slices.Clone(payload), sum: xxhash.Sum64(payload)})
}

// SubmitRemove schedules removal of key. Earlier pending writes for the key
// are superseded.
func (w *Writer) SubmitRemove(key string) {
	w.enqueue(key, &op{remove: true})
}

func (w *Writer) enqueue(key string, o *op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.slots[key]
	if !ok {
		s = &slot{}
		w.slots[key] = s
	}
	s.pending = o

	if s.running {
		return
	}
	s.running = true
	s.idle = make(chan struct{})
	go w.drain(key, s)
}

func (w *Writer) drain(key string, s *slot) {
	for {
		w.mu.Lock()
		o := s.pending
		if o == nil {
			s.running = false
			close(s.idle)
			w.mu.Unlock()
			return
		}
		s.pending = nil
		unchanged := !o.remove && s.hasSum && s.lastSum == o.sum
		w.mu.Unlock()

		if unchanged {
			continue
		}

		err := w.apply(key, o)

		w.mu.Lock()
		switch {
		case err != nil:
			s.hasSum = false
			if w.err == nil {
				w.err = err
			}
		case o.remove:
			s.hasSum = false
		default:
			s.lastSum, s.hasSum = o.sum, true
		}
		w.mu.Unlock()

		if err != nil && w.onError != nil {
			w.onError(key, err)
		}
	}
}

func (w *Writer) apply(key string, o *op) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if o.remove {
		if err := w.store.Remove(ctx, key); err != nil {
			return zerr.With(err, "key", key)
		}
		return nil
	}
	if err := w.store.Set(ctx, key, o.payload); err != nil {
		return zerr.With(err, "key", key)
	}
	return nil
}

// Flush waits until every operation submitted so far has been applied.
// It returns the first store failure recorded since the previous Flush.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	waits := make([]chan struct{}, 0, len(w.slots))
	for _, s := range w.slots {
		if s.running {
			waits = append(waits, s.idle)
		}
	}
	w.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, idle := range waits {
		g.Go(func() error {
			select {
			case <-idle:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return zerr.Wrap(err, "flush interrupted")
	}

	w.mu.Lock()
	err := w.err
	w.err = nil
	w.mu.Unlock()
	return err
}
