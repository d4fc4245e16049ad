package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dbferry/dbferry/config"
	"github.com/dbferry/dbferry/pkg/dataset"
)

// SaveScan writes a raw scan report under the results directory. An empty
// name falls back to a date-stamped file, one report per day.
func SaveScan(conf *config.LifecycleConfig, name, content string) (string, error) {
	folder := conf.ResultsDir()
	if err := dataset.MkFolder(folder); err != nil {
		return "", err
	}

	if name == "" {
		nowStamp := time.Now().Format("2006-01-02")
		name = fmt.Sprintf("%s.json", nowStamp)
	}

	file := filepath.Join(folder, name)
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		return "", err
	}

	fmt.Printf("\n")
	log.Printf("Output file is saved in: %s", config.Yellow(file))

	return file, nil
}
