package manifest

import (
	"path/filepath"
	"strings"
	"testing"
)

func sha512Hex(b byte) string {
	return strings.Repeat(string(rune('a'+int(b)%6)), HexLenForTest)
}

const HexLenForTest = 128

func TestNew(t *testing.T) {
	m := New("file:///tmp/dir/")
	if m.Source != "file:///tmp/dir/" {
		t.Errorf("Source = %q", m.Source)
	}
	if len(m.Entries) != 0 {
		t.Error("new manifest should have no entries")
	}
	if m.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should be set")
	}
}

func TestSaveAndLoad(t *testing.T) {
	m := New("file:///tmp/dir/")
	m.Entries = []Entry{
		{Path: "roms/snes/game.sfc", SHA512: sha512Hex(0), Source: "file:///tmp/dir/roms/snes/game.sfc"},
		{Path: "bios/scph5501.bin", SHA512: sha512Hex(1), Source: "file:///tmp/dir/bios/scph5501.bin"},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Entries) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(loaded.Entries))
	}
	idx := loaded.Index()
	if idx["roms/snes/game.sfc"].SHA512 != sha512Hex(0) {
		t.Errorf("round-trip mismatch: got %+v", idx["roms/snes/game.sfc"])
	}
}

func TestParseRejectsDuplicatePath(t *testing.T) {
	data := []byte(`{
		"source": "file:///tmp/",
		"generated_at": "2026-01-01T00:00:00Z",
		"entries": [
			{"path": "a.txt", "sha512": "` + sha512Hex(0) + `", "source": "file:///tmp/a.txt"},
			{"path": "a.txt", "sha512": "` + sha512Hex(1) + `", "source": "file:///tmp/a.txt"}
		]
	}`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for duplicate path")
	}
}

func TestParseRejectsAbsolutePath(t *testing.T) {
	data := []byte(`{"source":"file:///tmp/","generated_at":"2026-01-01T00:00:00Z",
		"entries":[{"path":"/etc/passwd","sha512":"` + sha512Hex(0) + `","source":"file:///etc/passwd"}]}`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for absolute path")
	}
}

func TestParseRejectsDotDot(t *testing.T) {
	data := []byte(`{"source":"file:///tmp/","generated_at":"2026-01-01T00:00:00Z",
		"entries":[{"path":"../escape.txt","sha512":"` + sha512Hex(0) + `","source":"file:///escape.txt"}]}`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for .. path component")
	}
}

func TestParseRejectsManifestNameAsEntry(t *testing.T) {
	data := []byte(`{"source":"file:///tmp/","generated_at":"2026-01-01T00:00:00Z",
		"entries":[{"path":"comstar.json","sha512":"` + sha512Hex(0) + `","source":"file:///tmp/comstar.json"}]}`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for comstar.json as an entry path")
	}
}

func TestParseRejectsMalformedDigest(t *testing.T) {
	data := []byte(`{"source":"file:///tmp/","generated_at":"2026-01-01T00:00:00Z",
		"entries":[{"path":"a.txt","sha512":"not-hex","source":"file:///tmp/a.txt"}]}`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestParseEmptyEntries(t *testing.T) {
	data := []byte(`{"source":"file:///tmp/","generated_at":"2026-01-01T00:00:00Z"}`)
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Entries == nil {
		t.Error("entries should be initialized even when absent in JSON")
	}
}

func TestToJSONRoundTrip(t *testing.T) {
	m := New("file:///tmp/")
	m.Entries = []Entry{{Path: "a.txt", SHA512: sha512Hex(0), Source: "file:///tmp/a.txt"}}

	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	roundtrip, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse after ToJSON: %v", err)
	}
	if len(roundtrip.Entries) != 1 {
		t.Errorf("round-trip got %d entries, want 1", len(roundtrip.Entries))
	}
}

func TestEntrySource(t *testing.T) {
	got, err := EntrySource("https://example.com/roms/", "a/b.rom")
	if err != nil {
		t.Fatalf("EntrySource: %v", err)
	}
	want := "https://example.com/roms/a/b.rom"
	if got != want {
		t.Errorf("EntrySource() = %q, want %q", got, want)
	}
}
