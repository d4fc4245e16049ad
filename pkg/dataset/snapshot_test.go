package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dbferry/dbferry/pkg/lifecycle"
)

func writeSnapshot(t *testing.T, dir string, primary []byte, meta string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, PrimaryFile), primary, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), []byte(meta), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	meta := `{"Version":"v1","UpdatedAt":"2024-05-01T00:00:00Z"}`

	t.Run("complete", func(t *testing.T) {
		dir := t.TempDir()
		writeSnapshot(t, dir, []byte("database-bytes"), meta)

		got, err := LoadSnapshot(dir)
		if err != nil {
			t.Fatalf("LoadSnapshot() error = %v", err)
		}

		if got.Version != "v1" {
			t.Errorf("LoadSnapshot() version = %v, want v1", got.Version)
		}
		if got.SizeBytes != int64(len("database-bytes")) {
			t.Errorf("LoadSnapshot() size = %v, want %v", got.SizeBytes, len("database-bytes"))
		}
	})

	t.Run("truncatedPrimary", func(t *testing.T) {
		dir := t.TempDir()
		writeSnapshot(t, dir, []byte{}, meta)

		_, err := LoadSnapshot(dir)
		if !errors.Is(err, lifecycle.ErrFetchIncomplete) {
			t.Errorf("LoadSnapshot() error = %v, want ErrFetchIncomplete", err)
		}
	})

	t.Run("missingMetadata", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, PrimaryFile), []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadSnapshot(dir)
		if !errors.Is(err, lifecycle.ErrFetchIncomplete) {
			t.Errorf("LoadSnapshot() error = %v, want ErrFetchIncomplete", err)
		}
	})

	t.Run("absentDir", func(t *testing.T) {
		_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, lifecycle.ErrFetchIncomplete) {
			t.Errorf("LoadSnapshot() error = %v, want ErrFetchIncomplete", err)
		}
	})
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	if err := os.MkdirAll(filepath.Join(src, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("aaa"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("bbb"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dst, "sub", "b.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "bbb" {
		t.Errorf("CopyDir() content = %v, want bbb", string(got))
	}

	// Copies are by value: mutating the source must not affect the copy
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err = os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "aaa" {
		t.Errorf("CopyDir() copy changed with source, got %v", string(got))
	}
}
