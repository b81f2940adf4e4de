package file

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "allowlist.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadNameSet_Basic(t *testing.T) {
	t.Parallel()

	content := `
# files the watcher may ingest
sales.csv
   # indented comment
inventory.csv

   returns.csv
`
	path := writeTempFile(t, content)

	got, err := ReadNameSet(path)
	if err != nil {
		t.Fatalf("ReadNameSet error: %v", err)
	}

	want := map[string]struct{}{
		"sales.csv":     {},
		"inventory.csv": {},
		"returns.csv":   {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadNameSet(%q) = %#v, want %#v", path, got, want)
	}
}

func TestReadNameSet_EmptyFile(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "")
	got, err := ReadNameSet(path)
	if err != nil {
		t.Fatalf("ReadNameSet error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %#v", got)
	}
}

func TestReadNameSet_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := ReadNameSet("does-not-exist-12345.txt")
	if err == nil {
		t.Fatalf("expected error for missing file, got nil")
	}
}
