// Package singleflight guards a data directory against being opened by
// more than one studyfrog process at once. It is the cross-process
// analogue of §5's single-active-run invariant: one core, one data dir.
package singleflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock holds an advisory exclusive lock on a file inside a data
// directory for the lifetime of the current process.
type Lock struct {
	path     string
	fd       int
	acquired bool
}

// New returns an unacquired lock scoped to dataDir.
func New(dataDir string) *Lock {
	return &Lock{path: filepath.Join(dataDir, ".studyfrog.lock")}
}

// Acquire takes an exclusive, non-blocking flock on the lock file,
// writing the current PID for operator visibility. It fails immediately
// if another process already holds the lock.
func (l *Lock) Acquire() error {
	if l.acquired {
		return nil
	}

	fd, err := unix.Open(l.path, unix.O_CREAT|unix.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("singleflight: opening lock file %s: %w", l.path, err)
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		return fmt.Errorf("singleflight: another instance already holds the lock at %s: %w", l.path, err)
	}

	if err := unix.Ftruncate(fd, 0); err == nil {
		unix.Write(fd, []byte(fmt.Sprintf("%d\n", os.Getpid())))
	}

	l.fd = fd
	l.acquired = true
	return nil
}

// Release drops the lock and closes the underlying file descriptor.
// Safe to call on an unacquired or already-released lock.
func (l *Lock) Release() error {
	if !l.acquired {
		return nil
	}
	err := unix.Flock(l.fd, unix.LOCK_UN)
	unix.Close(l.fd)
	l.acquired = false
	if err != nil {
		return fmt.Errorf("singleflight: releasing lock %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file's location, for logging.
func (l *Lock) Path() string {
	return l.path
}
