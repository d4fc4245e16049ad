package scanner

import (
	"reflect"
	"testing"
)

func TestSummarize(t *testing.T) {
	type args struct {
		report string
	}

	tests := []struct {
		name string
		args args
		want *Summary
	}{
		{
			name: "mixedSeverities",
			args: args{report: `{
				"Results": [
					{"Vulnerabilities": [
						{"Severity": "CRITICAL"},
						{"Severity": "HIGH"},
						{"Severity": "HIGH"},
						{"Severity": "LOW"}
					]},
					{"Vulnerabilities": [
						{"Severity": "MEDIUM"},
						{"Severity": "NEGLIGIBLE"}
					]}
				]
			}`},
			want: &Summary{Critical: 1, High: 2, Medium: 1, Low: 1, Unknown: 1, Total: 6},
		},
		{
			name: "noResults",
			args: args{report: `{"SchemaVersion": 2}`},
			want: &Summary{},
		},
		{
			name: "resultWithoutVulnerabilities",
			args: args{report: `{"Results": [{"Target": "alpine"}]}`},
			want: &Summary{},
		},
		{
			name: "emptyReport",
			args: args{report: ``},
			want: &Summary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.args.report)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Summarize() got = %+v, want %+v", got, tt.want)
			}
		})
	}
}
