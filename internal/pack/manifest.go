package pack

import (
	"encoding/json"
	"os"
	"time"
)

// Manifest describes exactly what a distribution package contains and the
// dataset version in effect at packaging time.
type Manifest struct {
	PackageDate time.Time `json:"package_date"`
	DBVersion   string    `json:"db_version"`
	DBUpdated   time.Time `json:"db_updated"`
	Files       []string  `json:"files"`
	CreatedBy   string    `json:"created_by"`
}

func (m *Manifest) write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
