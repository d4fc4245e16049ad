package monitor

import (
	"path/filepath"
	"time"

	"github.com/dbferry/dbferry/pkg/dataset"
)

// Status is the health report for the active dataset.
type Status struct {
	Version string
	AgeDays int
	Stale   bool
}

// CheckAge is a pure read of the active dataset's descriptor. It is safe
// while an update runs: the descriptor path always holds the last fully
// promoted state because promotion swaps the whole directory at once.
func CheckAge(activeDir string, maxAgeDays int, now time.Time) (*Status, error) {
	meta, err := dataset.LoadMetadata(filepath.Join(activeDir, dataset.MetadataFile))
	if err != nil {
		return nil, err
	}

	age := meta.AgeDays(now)

	return &Status{
		Version: meta.Version,
		AgeDays: age,
		Stale:   age > maxAgeDays,
	}, nil
}
