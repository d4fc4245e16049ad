package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Pink   = color.New(color.FgMagenta).SprintFunc()

	Ctx = context.Background()

	SeverityMap = map[string]int{
		"critical": 5,
		"high":     4,
		"medium":   3,
		"low":      2,
		"unknown":  1,
	}
)

// LifecycleConfig carries every path and policy value the pipeline needs.
// Components receive it explicitly; there are no ambient path globals.
type LifecycleConfig struct {
	DataRoot string `yaml:"dataRoot"`

	OriginImage    string `yaml:"originImage"`
	AuxOriginImage string `yaml:"auxOriginImage"`
	ScannerImage   string `yaml:"scannerImage"`
	ProbeEndpoint  string `yaml:"probeEndpoint"`

	ProbeTimeoutSec int   `yaml:"probeTimeoutSeconds"`
	RetainBackups   int   `yaml:"retainBackups"`
	RetainCleanup   int   `yaml:"retainCleanup"`
	MaxAgeDays      int   `yaml:"maxAgeDays"`
	MinDBSize       int64 `yaml:"minDBSize"`

	CreatedBy string `yaml:"createdBy"`
}

// DefaultConfig roots all state under the user's home directory, or the
// working directory on Windows.
func DefaultConfig() (*LifecycleConfig, error) {
	dir, err := getHomeDir()
	if err != nil {
		return nil, err
	}

	var root string
	if runtime.GOOS == "windows" {
		root = filepath.Join(dir, "dbferrydata")
	} else {
		root = filepath.Join(dir, ".dbferry")
	}

	return &LifecycleConfig{
		DataRoot:        root,
		OriginImage:     "ghcr.io/aquasecurity/trivy-db:2",
		AuxOriginImage:  "ghcr.io/aquasecurity/trivy-java-db:1",
		ScannerImage:    "aquasec/trivy:latest",
		ProbeEndpoint:   "https://ghcr.io/v2/",
		ProbeTimeoutSec: 10,
		RetainBackups:   5,
		RetainCleanup:   3,
		MaxAgeDays:      7,
		MinDBSize:       50 * 1024 * 1024,
		CreatedBy:       "dbferry",
	}, nil
}

// LoadConfig applies YAML overrides from file on top of the defaults.
func LoadConfig(file string) (*LifecycleConfig, error) {
	conf, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	if file == "" {
		return conf, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *LifecycleConfig) ActiveDir() string   { return filepath.Join(c.DataRoot, "db") }
func (c *LifecycleConfig) CacheDir() string    { return filepath.Join(c.DataRoot, "cache") }
func (c *LifecycleConfig) MirrorDir() string   { return filepath.Join(c.CacheDir(), "db") }
func (c *LifecycleConfig) AuxDir() string      { return filepath.Join(c.CacheDir(), "java-db") }
func (c *LifecycleConfig) BackupsDir() string  { return filepath.Join(c.DataRoot, "backups") }
func (c *LifecycleConfig) PackagesDir() string { return filepath.Join(c.DataRoot, "packages") }
func (c *LifecycleConfig) StagingDir() string  { return filepath.Join(c.DataRoot, "staging") }
func (c *LifecycleConfig) ResultsDir() string  { return filepath.Join(c.DataRoot, "scan-results") }
func (c *LifecycleConfig) LockFile() string    { return filepath.Join(c.DataRoot, ".update.lock") }
func (c *LifecycleConfig) JournalFile() string { return filepath.Join(c.DataRoot, "history.db") }

func (c *LifecycleConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec) * time.Second
}

func getHomeDir() (string, error) {
	if runtime.GOOS == "windows" {
		dir, err := os.Getwd()
		if err != nil {
			return "", nil
		}
		return dir, nil
	}

	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return dir, nil
}
