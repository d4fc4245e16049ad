package dataset

import (
	"os"
	"path/filepath"

	"github.com/dbferry/dbferry/pkg/lifecycle"
)

// PrimaryFile is the data file the downstream scanner reads.
const PrimaryFile = "trivy.db"

// Snapshot is one generation of the dataset on durable storage. A snapshot
// is either fully present or treated as absent; partial snapshots are never
// promoted.
type Snapshot struct {
	Path      string
	Version   string
	SizeBytes int64
	Meta      *Metadata
}

// LoadSnapshot checks completeness of the directory at path and loads its
// descriptor. Missing or zero-length required files yield ErrFetchIncomplete.
func LoadSnapshot(path string) (*Snapshot, error) {
	primary := filepath.Join(path, PrimaryFile)

	info, err := os.Stat(primary)
	if err != nil || info.Size() == 0 {
		return nil, lifecycle.ErrFetchIncomplete
	}

	metaInfo, err := os.Stat(filepath.Join(path, MetadataFile))
	if err != nil || metaInfo.Size() == 0 {
		return nil, lifecycle.ErrFetchIncomplete
	}

	meta, err := LoadMetadata(filepath.Join(path, MetadataFile))
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Path:      path,
		Version:   meta.Version,
		SizeBytes: info.Size(),
		Meta:      meta,
	}, nil
}

// Present reports whether a complete snapshot exists at path, without
// parsing the descriptor.
func Present(path string) bool {
	info, err := os.Stat(filepath.Join(path, PrimaryFile))
	if err != nil || info.Size() == 0 {
		return false
	}

	metaInfo, err := os.Stat(filepath.Join(path, MetadataFile))
	if err != nil || metaInfo.Size() == 0 {
		return false
	}

	return true
}
