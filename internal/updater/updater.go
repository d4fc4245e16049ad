package updater

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbferry/dbferry/pkg/dataset"
	"github.com/dbferry/dbferry/pkg/lifecycle"
)

// Updater publishes a verified snapshot as the new active dataset. The
// replacement is fully staged beside the live directory first; the
// directory rename is the only operation that ever touches the live path,
// so readers observe either the old or the new dataset, never a mixture.
type Updater struct {
	ActiveDir string
	MirrorDir string
}

// Promote swaps verified snapshot content into the active location and then
// mirrors it into the scanner cache layout. A mirror failure after the swap
// is reported as ErrCacheSyncDegraded and does not roll back the promotion.
func (u *Updater) Promote(stagedDir string) error {
	newDir := u.ActiveDir + ".new"
	oldDir := u.ActiveDir + ".old"

	// Leftovers from an interrupted earlier cycle
	_ = os.RemoveAll(newDir)
	_ = os.RemoveAll(oldDir)

	if err := dataset.CopyDir(stagedDir, newDir); err != nil {
		_ = os.RemoveAll(newDir)
		return err
	}

	if !dataset.Present(newDir) {
		_ = os.RemoveAll(newDir)
		return lifecycle.ErrFetchIncomplete
	}

	if dataset.Exists(u.ActiveDir) {
		if err := os.Rename(u.ActiveDir, oldDir); err != nil {
			_ = os.RemoveAll(newDir)
			return err
		}
	}

	if err := os.Rename(newDir, u.ActiveDir); err != nil {
		// Put the previous dataset back; the live path must never stay empty
		if dataset.Exists(oldDir) {
			_ = os.Rename(oldDir, u.ActiveDir)
		}
		_ = os.RemoveAll(newDir)
		return err
	}

	_ = os.RemoveAll(oldDir)

	if u.MirrorDir == "" {
		return nil
	}

	if err := u.syncMirror(); err != nil {
		return fmt.Errorf("%w: %v", lifecycle.ErrCacheSyncDegraded, err)
	}

	return nil
}

// syncMirror rebuilds the cache mirror from the active dataset. The mirror
// is derived state; the active dataset stays authoritative.
func (u *Updater) syncMirror() error {
	tmp := u.MirrorDir + ".new"
	_ = os.RemoveAll(tmp)

	if err := dataset.MkFolder(filepath.Dir(u.MirrorDir)); err != nil {
		return err
	}

	if err := dataset.CopyDir(u.ActiveDir, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}

	old := u.MirrorDir + ".old"
	_ = os.RemoveAll(old)

	if dataset.Exists(u.MirrorDir) {
		if err := os.Rename(u.MirrorDir, old); err != nil {
			_ = os.RemoveAll(tmp)
			return err
		}
	}

	if err := os.Rename(tmp, u.MirrorDir); err != nil {
		_ = os.Rename(old, u.MirrorDir)
		_ = os.RemoveAll(tmp)
		return err
	}

	_ = os.RemoveAll(old)
	return nil
}
