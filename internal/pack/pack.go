package pack

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dbferry/dbferry/config"
	"github.com/dbferry/dbferry/pkg/dataset"
	diskutil "github.com/dbferry/dbferry/pkg/disk"
	"github.com/dbferry/dbferry/pkg/lifecycle"
)

const deployNotes = `dbferry distribution package

Deploy on the disconnected host:
  1. tar xzf <name>.tar.gz -C ~/.dbferry
  2. verify the checksum first: sha256sum -c <name>.tar.gz.sha256
  3. point the scanner cache at ~/.dbferry/cache

The manifest.json in this bundle records the dataset version and the
timestamp it was produced at.
`

// Packager assembles a transportable, checksummed bundle from the active
// dataset. Everything is copied by value, so the package stays valid even
// if the active dataset is updated afterwards.
type Packager struct {
	Conf *config.LifecycleConfig

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Package produces <packages>/<name>.tar.gz, its .sha256 record and a
// retained copy of the manifest at <packages>/<name>/manifest.json.
// The staging directory is removed unconditionally.
func (p *Packager) Package(name string, withAux bool) (string, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	activeDir := p.Conf.ActiveDir()
	if !dataset.Present(activeDir) {
		return "", fmt.Errorf("%w: no active dataset to package", lifecycle.ErrPackagingFailed)
	}

	meta, err := dataset.LoadMetadata(filepath.Join(activeDir, dataset.MetadataFile))
	if err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}

	size, err := dataset.DirSize(activeDir)
	if err == nil {
		// Staging copy plus the compressed bundle
		if err := diskutil.EnsureFree(p.Conf.DataRoot, 2*size); err != nil {
			return "", err
		}
	}

	if name == "" {
		name = fmt.Sprintf("dbferry-%s-%s", meta.Version, now().Format("2006-01-02"))
	}

	staging := filepath.Join(p.Conf.StagingDir(), "package-"+name)
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			log.Printf("failed to remove staging %s: %v", staging, err)
		}
	}()

	components := []string{"db"}
	if err := dataset.CopyDir(activeDir, filepath.Join(staging, "db")); err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}

	if dataset.Present(p.Conf.MirrorDir()) {
		if err := dataset.CopyDir(p.Conf.MirrorDir(), filepath.Join(staging, "cache", "db")); err != nil {
			return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
		}
		components = append(components, "cache/db")
	}

	if withAux {
		if dataset.Exists(p.Conf.AuxDir()) {
			if err := dataset.CopyDir(p.Conf.AuxDir(), filepath.Join(staging, "cache", "java-db")); err != nil {
				return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
			}
			components = append(components, "cache/java-db")
		} else {
			log.Printf(config.Yellow("auxiliary dataset not present, packaging without it"))
		}
	}

	if err := os.WriteFile(filepath.Join(staging, "DEPLOY.md"), []byte(deployNotes), 0644); err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}
	components = append(components, "DEPLOY.md", "manifest.json")

	manifest := &Manifest{
		PackageDate: now().UTC(),
		DBVersion:   meta.Version,
		DBUpdated:   meta.UpdatedAt,
		Files:       components,
		CreatedBy:   p.Conf.CreatedBy,
	}

	if err := manifest.write(filepath.Join(staging, "manifest.json")); err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}

	if err := dataset.MkFolder(p.Conf.PackagesDir()); err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}

	bundle := filepath.Join(p.Conf.PackagesDir(), name+".tar.gz")
	if err := compress(staging, bundle); err != nil {
		_ = os.Remove(bundle)
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}

	// The checksum is computed only after the bundle is fully written
	if err := writeChecksum(bundle); err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}

	// Keep the manifest next to the bundle for inspection without unpacking
	if err := dataset.MkFolder(filepath.Join(p.Conf.PackagesDir(), name)); err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}
	if err := manifest.write(filepath.Join(p.Conf.PackagesDir(), name, "manifest.json")); err != nil {
		return "", fmt.Errorf("%w: %v", lifecycle.ErrPackagingFailed, err)
	}

	return bundle, nil
}

// compress writes a gzipped tar of the staging directory tree.
func compress(src, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	err = filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})

	if cerr := tw.Close(); err == nil {
		err = cerr
	}
	if cerr := gw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}

	return err
}

// writeChecksum records the sha256 of the final bundle bytes alongside it,
// in the sha256sum text format.
func writeChecksum(bundle string) error {
	f, err := os.Open(bundle)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	record := fmt.Sprintf("%x  %s\n", h.Sum(nil), filepath.Base(bundle))
	return os.WriteFile(bundle+".sha256", []byte(record), 0644)
}
