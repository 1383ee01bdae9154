package indexing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock enforces a single in-flight IndexDirectory run per collection,
// guarding against two processes (or two goroutines) racing to index the
// same collection's data directory concurrently.
type RunLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewRunLock creates a run lock at <dataDir>/<collection>.indexing.lock.
func NewRunLock(dataDir, collection string) *RunLock {
	path := filepath.Join(dataDir, collection+".indexing.lock")
	return &RunLock{path: path, flock: flock.New(path)}
}

// TryLock attempts to acquire the lock without blocking, returning false
// if another run already holds it.
func (l *RunLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("indexing: create lock dir: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("indexing: acquire lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked RunLock.
func (l *RunLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("indexing: release lock: %w", err)
	}
	l.locked = false
	return nil
}
