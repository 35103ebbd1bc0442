// Package lock implements the single-instance guard: a filesystem-backed
// named endpoint that only one live process can hold at a time.
package lock

import (
	"os"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// InstanceLock is a held, process-exclusive advisory lock backed by a file on
// disk. It must be released exactly once, on orderly shutdown or signal.
type InstanceLock struct {
	fl   *flock.Flock
	path string
}

// Acquire tries to take the named instance lock. It fails if another live
// process already holds it, or if the lock file cannot be created.
func Acquire(path string) (*InstanceLock, error) {
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "acquire instance lock %q", path)
	}
	if !locked {
		return nil, errors.Errorf("instance lock %q is held by another process", path)
	}

	return &InstanceLock{fl: fl, path: path}, nil
}

// Release unlocks the endpoint and removes the backing file. A later call
// finds the lock already released and the file already gone, and returns nil.
func (l *InstanceLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return errors.Wrapf(err, "release instance lock %q", l.path)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove instance lock file %q", l.path)
	}
	return nil
}
