package kv

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	fileExt         = ".json"
	lockExt         = ".lock"
	tmpExt          = ".tmp"
	lockTimeout     = 3 * time.Second
	lockRetryPeriod = 100 * time.Millisecond
)

// FileStore stores every key as <dir>/<key>.json.
// Each key is guarded by an advisory lock on a .lock sidecar so several
// processes can share a data directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "dir", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file holding key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Get implements ports.KVStore.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	unlock, err := s.lock(ctx, key)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	//nolint:gosec // Key is validated to be a plain file name inside the data directory
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return data, true, nil
}

// Set implements ports.KVStore. The file is replaced atomically.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	unlock, err := s.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	path := s.Path(key)
	tmp := path + tmpExt
	if err := os.WriteFile(tmp, value, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", key)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", key)
	}
	return nil
}

// Remove implements ports.KVStore.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	unlock, err := s.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreRemoveFailed.Error()), "key", key)
	}
	return nil
}

// Close implements ports.KVStore.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) lock(ctx context.Context, key string) (func(), error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	fl := flock.New(filepath.Join(s.dir, key+lockExt))
	locked, err := fl.TryLockContext(ctx, lockRetryPeriod)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreLockFailed.Error()), "key", key)
	}
	if !locked {
		return nil, zerr.With(domain.ErrStoreLockFailed, "key", key)
	}
	return func() { _ = fl.Unlock() }, nil
}
