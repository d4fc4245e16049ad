package report

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/dbferry/dbferry/config"
	"github.com/dbferry/dbferry/internal/monitor"
	"github.com/dbferry/dbferry/pkg/journal"
	"github.com/dbferry/dbferry/pkg/scanner"
)

// ResolveScanSummary prints the severity counts of one image scan.
func ResolveScanSummary(imageRef string, s *scanner.Summary) {
	fmt.Printf("\nVulnerability summary for %s | "+
		"Critical: %s High: %s Medium: %s Low: %s Total: %s\n\n",
		imageRef,
		config.Red(s.Critical),
		config.Pink(s.High),
		config.Yellow(s.Medium),
		config.Green(s.Low),
		config.Yellow(s.Total))
}

// ResolveHistory prints recorded update cycles, newest first.
func ResolveHistory(entries []*journal.Entry) {
	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"ID", "Started", "Version", "Outcome", "Stage", "Detail"})
	table.SetRowLine(true)

	for _, e := range entries {
		outcome := e.Outcome
		if outcome == "success" {
			outcome = config.Green(outcome)
		} else {
			outcome = config.Red(outcome)
		}

		table.Append([]string{
			fmt.Sprintf("%d", e.Id), e.Started, e.Version, outcome, e.Stage, e.Detail,
		})
	}

	table.Render()
}

// ResolveImages prints the locally available images.
func ResolveImages(images []scanner.LocalImage) {
	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"Image", "ID", "Size"})

	for _, img := range images {
		table.Append([]string{
			img.Tag, img.ID, fmt.Sprintf("%.1f MB", float64(img.Size)/(1024*1024)),
		})
	}

	table.Render()
}

// ResolveAge prints the active dataset's health.
func ResolveAge(status *monitor.Status, maxAgeDays int) {
	if status.Stale {
		fmt.Printf("Dataset version %s is %s: %d days old (max %d)\n",
			status.Version, config.Red("stale"), status.AgeDays, maxAgeDays)
		return
	}

	fmt.Printf("Dataset version %s is %s: %d days old (max %d)\n",
		status.Version, config.Green("current"), status.AgeDays, maxAgeDays)
}
