package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestJournalRecordAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	started := time.Date(2024, 5, 11, 8, 0, 0, 0, time.UTC)

	if err := j.Record(started, "v1", "success", "promoted", ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Record(started.Add(time.Hour), "v2", "failed at staged", "staged", "origin unreachable"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(entries))
	}

	// Newest first
	if entries[0].Version != "v2" || entries[0].Outcome != "failed at staged" {
		t.Errorf("Recent() first entry = %+v, want v2 failure", entries[0])
	}
	if entries[1].Version != "v1" || entries[1].Outcome != "success" {
		t.Errorf("Recent() second entry = %+v, want v1 success", entries[1])
	}
}

func TestJournalRecentLimit(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	for i := 0; i < 5; i++ {
		if err := j.Record(time.Now(), "v1", "success", "promoted", ""); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := j.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("Recent(3) returned %d entries, want 3", len(entries))
	}
}
