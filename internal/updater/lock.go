package updater

import (
	"fmt"
	"os"
	"time"

	"github.com/dbferry/dbferry/pkg/lifecycle"
)

// Lock is the exclusive token tied to the active dataset location. Only one
// lifecycle cycle may run at a time; a second invocation detects the token
// and exits immediately without side effects.
type Lock struct {
	path string
}

// Acquire creates the lock file exclusively. An existing file means another
// cycle is in progress and yields ErrConcurrentRun.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, lifecycle.ErrConcurrentRun
		}
		return nil, err
	}

	// pid and start time help the operator clear a lock left by a crash
	fmt.Fprintf(f, "pid=%d started=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &Lock{path: path}, nil
}

// Release removes the token. Safe to call once per acquired lock.
func (l *Lock) Release() {
	_ = os.Remove(l.path)
}
