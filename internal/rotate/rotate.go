package rotate

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dbferry/dbferry/pkg/dataset"
	"github.com/dbferry/dbferry/pkg/lifecycle"
)

// Timestamped backup directory names sort lexically by creation time.
const stampLayout = "2006-01-02-150405"

// Rotator snapshots the active dataset before a swap and prunes old
// backups under a count-based retention policy.
type Rotator struct {
	BackupsDir string

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// SnapshotCurrent copies the active dataset, and the cache mirror when one
// exists, into a new timestamped backup. The copy must fully succeed before
// any swap proceeds; on failure the partial backup is discarded and the
// cycle aborts with ErrBackupFailed.
func (r *Rotator) SnapshotCurrent(activeDir, mirrorDir string) (string, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	dest := filepath.Join(r.BackupsDir, now().Format(stampLayout))
	if dataset.Exists(dest) {
		// Two swaps within one second; disambiguate
		dest = fmt.Sprintf("%s-1", dest)
	}

	if err := dataset.CopyDir(activeDir, filepath.Join(dest, "db")); err != nil {
		_ = os.RemoveAll(dest)
		return "", fmt.Errorf("%w: %v", lifecycle.ErrBackupFailed, err)
	}

	if mirrorDir != "" && dataset.Present(mirrorDir) {
		if err := dataset.CopyDir(mirrorDir, filepath.Join(dest, "cache", "db")); err != nil {
			_ = os.RemoveAll(dest)
			return "", fmt.Errorf("%w: %v", lifecycle.ErrBackupFailed, err)
		}
	}

	return dest, nil
}

// Prune keeps the retain newest backups and removes the rest. Ordering is
// deterministic: newest first by directory name, which encodes the
// creation timestamp.
func (r *Rotator) Prune(retain int) error {
	if retain < 0 {
		retain = 0
	}

	entries, err := os.ReadDir(r.BackupsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	for i := retain; i < len(names); i++ {
		victim := filepath.Join(r.BackupsDir, names[i])
		if err := os.RemoveAll(victim); err != nil {
			return err
		}
		log.Printf("removed old backup %s", names[i])
	}

	return nil
}

// List returns the existing backup names, newest first.
func (r *Rotator) List() ([]string, error) {
	entries, err := os.ReadDir(r.BackupsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
