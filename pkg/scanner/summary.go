package scanner

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Summary counts vulnerabilities by severity in a JSON scan report.
type Summary struct {
	Critical int
	High     int
	Medium   int
	Low      int
	Unknown  int
	Total    int
}

// Summarize walks Results[].Vulnerabilities[].Severity of the engine's
// JSON report. Reports without results yield an empty summary.
func Summarize(report string) *Summary {
	summary := &Summary{}

	results := gjson.Get(report, "Results")
	if !results.Exists() {
		return summary
	}

	results.ForEach(func(_, result gjson.Result) bool {
		result.Get("Vulnerabilities").ForEach(func(_, vuln gjson.Result) bool {
			switch strings.ToLower(vuln.Get("Severity").String()) {
			case "critical":
				summary.Critical += 1
			case "high":
				summary.High += 1
			case "medium":
				summary.Medium += 1
			case "low":
				summary.Low += 1
			default:
				summary.Unknown += 1
			}
			summary.Total += 1
			return true
		})
		return true
	})

	return summary
}
