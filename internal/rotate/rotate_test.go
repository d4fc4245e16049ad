package rotate

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dbferry/dbferry/pkg/dataset"
)

func TestPrune(t *testing.T) {
	type args struct {
		existing int
		retain   int
	}

	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "moreThanRetain",
			args: args{existing: 8, retain: 5},
			want: 5,
		},
		{
			name: "fewerThanRetain",
			args: args{existing: 3, retain: 5},
			want: 3,
		},
		{
			name: "retainZero",
			args: args{existing: 4, retain: 0},
			want: 0,
		},
		{
			name: "negativeRetain",
			args: args{existing: 2, retain: -1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			r := &Rotator{BackupsDir: dir}

			base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
			for i := 0; i < tt.args.existing; i++ {
				name := base.AddDate(0, 0, i).Format("2006-01-02-150405")
				if err := os.MkdirAll(filepath.Join(dir, name), 0755); err != nil {
					t.Fatal(err)
				}
			}

			if err := r.Prune(tt.args.retain); err != nil {
				t.Fatalf("Prune() error = %v", err)
			}

			left, err := r.List()
			if err != nil {
				t.Fatal(err)
			}
			if len(left) != tt.want {
				t.Errorf("Prune() left %v backups, want %v", len(left), tt.want)
			}

			// The survivors must be the newest ones
			var want []string
			for i := tt.args.existing - 1; i >= tt.args.existing-tt.want; i-- {
				want = append(want, base.AddDate(0, 0, i).Format("2006-01-02-150405"))
			}
			if tt.want > 0 && !reflect.DeepEqual(left, want) {
				t.Errorf("Prune() survivors = %v, want %v", left, want)
			}
		})
	}
}

func TestPruneMissingDir(t *testing.T) {
	r := &Rotator{BackupsDir: filepath.Join(t.TempDir(), "absent")}
	if err := r.Prune(5); err != nil {
		t.Errorf("Prune() error = %v, want nil", err)
	}
}

func TestSnapshotCurrent(t *testing.T) {
	root := t.TempDir()
	active := filepath.Join(root, "db")
	mirror := filepath.Join(root, "cache", "db")

	for _, dir := range []string{active, mirror} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, dataset.PrimaryFile), []byte("db"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, dataset.MetadataFile), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Date(2024, 5, 11, 9, 30, 0, 0, time.UTC)
	r := &Rotator{
		BackupsDir: filepath.Join(root, "backups"),
		Now:        func() time.Time { return now },
	}

	backup, err := r.SnapshotCurrent(active, mirror)
	if err != nil {
		t.Fatalf("SnapshotCurrent() error = %v", err)
	}

	wantName := "2024-05-11-093000"
	if filepath.Base(backup) != wantName {
		t.Errorf("SnapshotCurrent() dir = %v, want %v", filepath.Base(backup), wantName)
	}

	for _, rel := range []string{
		filepath.Join("db", dataset.PrimaryFile),
		filepath.Join("cache", "db", dataset.PrimaryFile),
	} {
		if _, err := os.Stat(filepath.Join(backup, rel)); err != nil {
			t.Errorf("SnapshotCurrent() missing %s: %v", rel, err)
		}
	}
}

func TestSnapshotCurrentFailsSafe(t *testing.T) {
	root := t.TempDir()
	r := &Rotator{BackupsDir: filepath.Join(root, "backups")}

	// No active dataset directory exists
	_, err := r.SnapshotCurrent(filepath.Join(root, "missing"), "")
	if err == nil {
		t.Fatal("SnapshotCurrent() error = nil, want ErrBackupFailed")
	}

	// The failed attempt must not leave a partial backup behind
	entries, _ := os.ReadDir(filepath.Join(root, "backups"))
	for _, e := range entries {
		t.Errorf("SnapshotCurrent() left residue %v", e.Name())
	}
}
