package verifier

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dbferry/dbferry/pkg/dataset"
	"github.com/dbferry/dbferry/pkg/lifecycle"
	version2 "github.com/hashicorp/go-version"
)

// Result is the outcome of verifying one snapshot. Ok with Stale set means
// the snapshot is accepted but the caller should surface a staleness
// warning; staleness is advisory, not blocking.
type Result struct {
	Ok      bool
	Reason  string
	AgeDays int
	Stale   bool
}

// Verifier checks a fetched snapshot before it may be promoted.
type Verifier struct {
	// MinDBSize is the lower bound for a plausible primary data file;
	// smaller files indicate a truncated transfer.
	MinDBSize int64

	// WarnAgeDays flags (but does not reject) datasets older than this.
	WarnAgeDays int

	// ActiveVersion, when set, rejects snapshots older than the dataset
	// already being served.
	ActiveVersion string

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Verify runs the checks in order and short-circuits on the first failure.
func (v *Verifier) Verify(path string) Result {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	info, err := os.Stat(filepath.Join(path, dataset.PrimaryFile))
	if err != nil || info.Size() == 0 {
		return Result{Reason: "primary data file is missing or empty"}
	}

	if v.MinDBSize > 0 && info.Size() < v.MinDBSize {
		return Result{Reason: "primary data file is smaller than the plausible minimum"}
	}

	meta, err := dataset.LoadMetadata(filepath.Join(path, dataset.MetadataFile))
	if err != nil {
		if verr, ok := err.(*lifecycle.VerificationError); ok {
			return Result{Reason: verr.Reason}
		}
		return Result{Reason: err.Error()}
	}

	if v.ActiveVersion != "" {
		if regressed(meta.Version, v.ActiveVersion) {
			return Result{Reason: "version-regression"}
		}
	}

	age := meta.AgeDays(now())
	if age < 0 {
		return Result{Reason: "metadata UpdatedAt is in the future"}
	}

	return Result{
		Ok:      true,
		AgeDays: age,
		Stale:   v.WarnAgeDays > 0 && age > v.WarnAgeDays,
	}
}

// regressed reports whether fetched is strictly older than active. Versions
// that do not parse are not compared; the origin owns the format.
func regressed(fetched, active string) bool {
	fv, err := version2.NewVersion(fetched)
	if err != nil {
		return false
	}

	av, err := version2.NewVersion(active)
	if err != nil {
		return false
	}

	return fv.LessThan(av)
}

// Err converts a failed Result into the taxonomy error, or nil when Ok.
func (r Result) Err() error {
	if r.Ok {
		return nil
	}
	return &lifecycle.VerificationError{Reason: r.Reason}
}
