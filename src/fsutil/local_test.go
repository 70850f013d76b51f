package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"accmeta/src/fsutil"
)

func TestWriteAndRemove(t *testing.T) {
	store := fsutil.NewLocalFileStore()
	path := filepath.Join(t.TempDir(), "job_sales.accdb")

	if err := store.WriteFile(path, []byte("content")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("written content = %q, want %q", data, "content")
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
}

func TestMakeDirectory(t *testing.T) {
	store := fsutil.NewLocalFileStore()
	path := filepath.Join(t.TempDir(), "worker", "tmp")

	if err := store.MakeDirectory(path); err != nil {
		t.Fatalf("MakeDirectory() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("created directory missing: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", path)
	}

	// Creating an existing directory is fine; a file written into it proves
	// the worker temp dir is usable right after creation.
	if err := store.MakeDirectory(path); err != nil {
		t.Errorf("MakeDirectory() on existing directory error = %v", err)
	}
	if err := store.WriteFile(filepath.Join(path, "j_sales.accdb"), []byte("x")); err != nil {
		t.Errorf("WriteFile() into created directory error = %v", err)
	}
}

func TestRemoveMissingFileIsNotAnError(t *testing.T) {
	store := fsutil.NewLocalFileStore()
	path := filepath.Join(t.TempDir(), "never-written.accdb")

	if err := store.Remove(path); err != nil {
		t.Errorf("Remove() on missing file error = %v, want nil", err)
	}

	// A second delete of the same path must behave identically.
	if err := store.Remove(path); err != nil {
		t.Errorf("Remove() repeated on missing file error = %v, want nil", err)
	}
}
