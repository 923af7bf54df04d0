package generate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunProducesOneEntryPerFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "aaa")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "bbb")

	m, err := Run(context.Background(), dir, "https://example.com/tree/", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(m.Entries))
	}

	paths := []string{m.Entries[0].Path, m.Entries[1].Path}
	sort.Strings(paths)
	if paths[0] != "a.txt" || paths[1] != "sub/b.txt" {
		t.Errorf("paths = %v", paths)
	}
}

func TestRunEntrySourcesAreAbsolute(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "aaa")

	m, err := Run(context.Background(), dir, "https://example.com/tree/", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Entries[0].Source != "https://example.com/tree/a.txt" {
		t.Errorf("source = %q", m.Entries[0].Source)
	}
}

func TestRunRoundTripsThroughManifestParse(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "aaa")

	m, err := Run(context.Background(), dir, "file:///tmp/tree/", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty JSON")
	}
}
