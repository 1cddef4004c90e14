package ioutils

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock file created inside the base directory.
const LockFileName = ".gr-downloader.lock"

// ErrLocked is returned when another run already holds the base directory lock.
var ErrLocked = errors.New("download directory is locked by another run")

// DirLock is an advisory lock held on a download directory for one run.
type DirLock struct {
	lock *flock.Flock
}

// LockDir acquires the run lock for dir without blocking.
//
// The directory must already exist. Callers release the lock with Unlock
// once the last photo has been processed.
//
// Example:
//
//	lock, err := LockDir(basePath)
//	if err != nil {
//	    return err
//	}
//	defer lock.Unlock()
func LockDir(dir string) (*DirLock, error) {
	fl := flock.New(filepath.Join(dir, LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &DirLock{lock: fl}, nil
}

// Unlock releases the lock. It is safe to call on a nil DirLock.
func (l *DirLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
