// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lock provides a non-blocking advisory file lock so that at most
// one pipeline run touches the checkpoint slot at a time.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// FileName is the lock file's name inside the state directory.
const FileName = "deal-analyzer.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another deal-analyzer run is in progress")

// Lock is a held advisory lock.
type Lock struct {
	f *os.File
}

// Acquire takes an exclusive flock on path without waiting. The lock is
// released by Release or when the process exits.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	// Holder's pid, for operators inspecting a stuck lock.
	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{f: f}, nil
}

// InDir acquires the lock file inside dir.
func InDir(dir string) (*Lock, error) {
	return Acquire(filepath.Join(dir, FileName))
}

// Release drops the lock. The file is left in place so that a concurrent
// Acquire never locks an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	closeErr := l.f.Close()
	l.f = nil
	if err != nil {
		return fmt.Errorf("unlocking: %w", err)
	}
	return closeErr
}
