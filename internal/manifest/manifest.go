// Package manifest defines the manifest wire format (comstar.json) and
// the in-memory types the rest of comstar diffs and transfers against.
package manifest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bsundsrud/comstar/internal/comstarerr"
	"github.com/bsundsrud/comstar/internal/digest"
)

// FileName is the manifest's filename at the root of any tree it
// describes. It is never itself an entry in the manifest it lives in.
const FileName = "comstar.json"

// Entry is one row of a manifest: a relative path, its SHA-512 digest,
// and the absolute URL it can be fetched from.
type Entry struct {
	Path   string `json:"path"`
	SHA512 string `json:"sha512"`
	Source string `json:"source"`
}

// Manifest is the authoritative inventory of a directory tree at a point
// in time.
type Manifest struct {
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
	Entries     []Entry   `json:"entries"`
}

// New creates an empty manifest advertising sourceURL as its own location.
func New(sourceURL string) *Manifest {
	return &Manifest{
		Source:      sourceURL,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Entries:     []Entry{},
	}
}

// Index builds a path -> Entry lookup. It is a derived view recomputed on
// demand, never part of the wire format.
func (m *Manifest) Index() map[string]Entry {
	idx := make(map[string]Entry, len(m.Entries))
	for _, e := range m.Entries {
		idx[e.Path] = e
	}
	return idx
}

// ToJSON pretty-prints the manifest the way comstar.json is always
// written.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, comstarerr.Parse("serializing manifest", err)
	}
	return data, nil
}

// Parse validates and decodes raw JSON bytes into a Manifest, rejecting
// any document that would violate the data-model invariants: no
// duplicate paths, no absolute or ".."-containing paths, digests that
// aren't canonical SHA-512 hex, and comstar.json can never be an entry
// in its own manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, comstarerr.Parse("parsing manifest", err)
	}
	if m.Entries == nil {
		m.Entries = []Entry{}
	}

	seen := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		if err := validatePath(e.Path); err != nil {
			return nil, comstarerr.Parse(fmt.Sprintf("manifest entry %q", e.Path), err)
		}
		if !digest.Valid(e.SHA512) {
			return nil, comstarerr.Parse(fmt.Sprintf("manifest entry %q", e.Path),
				fmt.Errorf("sha512 %q is not a canonical 128-char lowercase hex digest", e.SHA512))
		}
		if seen[e.Path] {
			return nil, comstarerr.Parse("parsing manifest", fmt.Errorf("duplicate path %q", e.Path))
		}
		seen[e.Path] = true
	}

	return &m, nil
}

// Load reads and parses a manifest from a local JSON file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, comstarerr.IO("reading manifest "+path, err)
	}
	return Parse(data)
}

// Save writes the manifest to path as pretty JSON via a temp-file-then-
// rename, so a reader never observes a partially written manifest and a
// failed write leaves any prior manifest untouched.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return comstarerr.IO("creating manifest directory", err)
	}

	data, err := m.ToJSON()
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return comstarerr.IO("writing manifest", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return comstarerr.IO("renaming manifest into place", err)
	}
	return nil
}

// validatePath enforces the canonical-path invariants from the data
// model: never empty, never absolute, never containing "..", and never
// equal to the manifest's own filename.
func validatePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty path")
	}
	if p == FileName {
		return fmt.Errorf("entry path must not be %q", FileName)
	}
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return fmt.Errorf("path %q must be relative", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return fmt.Errorf("path %q must not contain ..", p)
		}
	}
	return nil
}

// EntrySource joins base (the manifest's advertised source URL) with a
// relative path: manifest.source_base ⊕ path.
func EntrySource(base, relPath string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", comstarerr.Parse("invalid base URL "+base, err)
	}
	joined, err := u.Parse(relPath)
	if err != nil {
		return "", comstarerr.Parse("joining path "+relPath, err)
	}
	return joined.String(), nil
}
