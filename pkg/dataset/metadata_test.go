package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMetadata(t *testing.T) {
	type args struct {
		content string
	}

	tests := []struct {
		name        string
		args        args
		wantVersion string
		wantErr     bool
	}{
		{
			name:        "numericVersion",
			args:        args{content: `{"Version":2,"UpdatedAt":"2024-05-01T00:00:00Z","NextUpdate":"2024-05-02T00:00:00Z"}`},
			wantVersion: "2",
		},
		{
			name:        "stringVersion",
			args:        args{content: `{"Version":"v1","UpdatedAt":"2024-05-01T12:30:00Z"}`},
			wantVersion: "v1",
		},
		{
			name:    "missingVersion",
			args:    args{content: `{"UpdatedAt":"2024-05-01T00:00:00Z"}`},
			wantErr: true,
		},
		{
			name:    "emptyVersion",
			args:    args{content: `{"Version":"","UpdatedAt":"2024-05-01T00:00:00Z"}`},
			wantErr: true,
		},
		{
			name:    "missingUpdatedAt",
			args:    args{content: `{"Version":"2"}`},
			wantErr: true,
		},
		{
			name:    "badTimestamp",
			args:    args{content: `{"Version":"2","UpdatedAt":"01/05/2024"}`},
			wantErr: true,
		},
		{
			name:    "notJson",
			args:    args{content: `version: 2`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), MetadataFile)
			if err := os.WriteFile(path, []byte(tt.args.content), 0644); err != nil {
				t.Fatal(err)
			}

			got, err := LoadMetadata(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadMetadata() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil && got.Version != tt.wantVersion {
				t.Errorf("LoadMetadata() version = %v, want %v", got.Version, tt.wantVersion)
			}
		})
	}
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2024, 5, 11, 12, 0, 0, 0, time.UTC)

	type args struct {
		updatedAt time.Time
	}

	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "tenDays",
			args: args{updatedAt: now.AddDate(0, 0, -10)},
			want: 10,
		},
		{
			name: "twoDays",
			args: args{updatedAt: now.AddDate(0, 0, -2)},
			want: 2,
		},
		{
			name: "sameDay",
			args: args{updatedAt: now.Add(-2 * time.Hour)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Metadata{UpdatedAt: tt.args.updatedAt}
			if got := m.AgeDays(now); got != tt.want {
				t.Errorf("AgeDays() got = %v, want %v", got, tt.want)
			}
		})
	}
}
