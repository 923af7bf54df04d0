package walker

import (
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

func TestWalkBasic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "b.bin"), "b")
	writeFile(t, filepath.Join(dir, "comstar.json"), "{}")

	got, err := Walk(dir, "")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	sort.Strings(got)

	want := []string{"a.txt", "sub/b.bin"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkAlwaysExcludesManifestEvenWithoutIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "comstar.json"), "{}")
	writeFile(t, filepath.Join(dir, "data.bin"), "x")

	got, err := Walk(dir, "")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 1 || got[0] != "data.bin" {
		t.Errorf("got %v, want [data.bin]", got)
	}
}

func TestWalkHonorsIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), "k")
	writeFile(t, filepath.Join(dir, "skip.log"), "s")
	writeFile(t, filepath.Join(dir, "build", "out.bin"), "o")
	writeFile(t, filepath.Join(dir, DefaultIgnoreFile), "*.log\nbuild/**\n")

	got, err := Walk(dir, DefaultIgnoreFile)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 1 || got[0] != "keep.txt" {
		t.Errorf("got %v, want [keep.txt]", got)
	}
}

func TestWalkIgnoreFileNegation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.log"), "a")
	writeFile(t, filepath.Join(dir, "important.log"), "i")
	writeFile(t, filepath.Join(dir, DefaultIgnoreFile), "*.log\n!important.log\n")

	got, err := Walk(dir, DefaultIgnoreFile)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	sort.Strings(got)
	want := []string{"important.log"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalkMissingIgnoreFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")

	got, err := Walk(dir, "")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %v, want 1 entry", got)
	}
}
