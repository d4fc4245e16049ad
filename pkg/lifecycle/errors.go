package lifecycle

import (
	"errors"
	"fmt"
)

// Stage names one gate of the update cycle state machine.
type Stage string

const (
	StageIdle     Stage = "idle"
	StageStaged   Stage = "staged"
	StageVerified Stage = "verified"
	StageBackedUp Stage = "backed-up"
	StagePromoted Stage = "promoted"
)

var (
	// ErrNoConnectivity gates every mutating operation: the origin is not
	// reachable, so the cycle refuses to start.
	ErrNoConnectivity = errors.New("origin is not reachable")

	// ErrFetchIncomplete means required files are missing or empty after a
	// fetch finished. The staging directory is discarded as a whole.
	ErrFetchIncomplete = errors.New("fetched snapshot is incomplete")

	// ErrBackupFailed aborts the cycle before the swap; the prior active
	// dataset is left untouched.
	ErrBackupFailed = errors.New("backup of current dataset failed")

	ErrResourceExhausted = errors.New("not enough free disk space for staging")

	ErrConcurrentRun = errors.New("another update cycle is in progress")

	ErrPackagingFailed = errors.New("packaging failed")

	// ErrCacheSyncDegraded is advisory: promotion already succeeded and is
	// not rolled back when the cache mirror cannot be synchronized.
	ErrCacheSyncDegraded = errors.New("cache mirror synchronization failed")
)

// VerificationError reports which integrity check rejected a snapshot.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("snapshot verification failed: %s", e.Reason)
}

// ExitCode maps an error to the process exit code contract:
// 0 success, 1 blocking failure, 2 concurrent run detected.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrConcurrentRun) {
		return 2
	}
	return 1
}
