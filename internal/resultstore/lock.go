package resultstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const targetLockName = ".tracker-studio.lock"

// TargetLock guards a download directory against concurrent writers from
// other studio processes.
type TargetLock struct {
	lock *flock.Flock
}

func AcquireTargetLock(dir string) (TargetLock, error) {
	target := strings.TrimSpace(dir)
	if target == "" {
		return TargetLock{}, fmt.Errorf("download directory is required")
	}
	if err := Mkdir(target); err != nil {
		return TargetLock{}, err
	}

	lock := flock.New(filepath.Join(target, targetLockName))
	ok, err := lock.TryLock()
	if err != nil {
		return TargetLock{}, fmt.Errorf("acquire download lock for %s: %w", target, err)
	}
	if !ok {
		return TargetLock{}, fmt.Errorf("download directory is locked by another process: %s", target)
	}
	return TargetLock{lock: lock}, nil
}

func (l TargetLock) Release() error {
	if l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release download lock %s: %w", l.lock.Path(), err)
	}
	return nil
}
