package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// FileStore holds the credential document in a single shared JSON file.
// Writers coordinate through an advisory exclusive lock on a sibling
// .lock file; the lock inode stays stable across the atomic
// temp-and-rename replacement of the document itself.
type FileStore struct {
	path string
	lock *flock.Flock
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *FileStore) List(ctx context.Context, provider string) ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	records, err := recordsFromDoc(data, provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	return records, nil
}

func (s *FileStore) Disable(ctx context.Context, id string, d time.Duration) error {
	return s.update(ctx, func(doc []byte) ([]byte, bool, error) {
		out, err := disableDoc(doc, id, time.Now(), d)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	})
}

func (s *FileStore) Reenable(ctx context.Context, id string) error {
	return s.update(ctx, func(doc []byte) ([]byte, bool, error) {
		return reenableDoc(doc, id)
	})
}

func (s *FileStore) Close() error { return nil }

// update runs one exclusive-locked read-modify-write cycle. The lock is
// acquired blocking, with no timeout: a stuck holder stalls the monitor
// instead of risking a torn store.
func (s *FileStore) update(ctx context.Context, mutate func([]byte) ([]byte, bool, error)) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreRead, err)
	}

	out, changed, err := mutate(data)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
