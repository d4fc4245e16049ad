package dataset

import (
	"os"
	"time"

	"github.com/dbferry/dbferry/pkg/lifecycle"
	"github.com/tidwall/gjson"
)

// MetadataFile is the descriptor the origin ships alongside the data file.
const MetadataFile = "metadata.json"

// Metadata is the typed form of the descriptor. Version and UpdatedAt are
// required; loading fails rather than letting a missing field surface in a
// later stage.
type Metadata struct {
	Version    string
	UpdatedAt  time.Time
	NextUpdate time.Time
}

// LoadMetadata reads and validates a metadata descriptor. The origin writes
// Version as a JSON number, older mirrors as a string; both are accepted.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &lifecycle.VerificationError{Reason: "metadata descriptor is missing"}
	}

	if !gjson.ValidBytes(data) {
		return nil, &lifecycle.VerificationError{Reason: "metadata descriptor is not valid JSON"}
	}

	m := &Metadata{}

	v := gjson.GetBytes(data, "Version")
	if !v.Exists() || v.String() == "" {
		return nil, &lifecycle.VerificationError{Reason: "metadata has no version identifier"}
	}
	m.Version = v.String()

	updated := gjson.GetBytes(data, "UpdatedAt")
	if !updated.Exists() {
		return nil, &lifecycle.VerificationError{Reason: "metadata has no UpdatedAt timestamp"}
	}

	m.UpdatedAt, err = time.Parse(time.RFC3339, updated.String())
	if err != nil {
		return nil, &lifecycle.VerificationError{Reason: "metadata UpdatedAt is not a valid timestamp"}
	}

	if next := gjson.GetBytes(data, "NextUpdate"); next.Exists() {
		// Optional, ignored when malformed
		m.NextUpdate, _ = time.Parse(time.RFC3339, next.String())
	}

	return m, nil
}

// AgeDays reports the dataset age in whole days relative to now.
func (m *Metadata) AgeDays(now time.Time) int {
	return int(now.Sub(m.UpdatedAt).Hours() / 24)
}
