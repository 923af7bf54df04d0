package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bsundsrud/comstar/internal/digest"
	"github.com/bsundsrud/comstar/internal/manifest"
)

func serveManifest(t *testing.T, m *manifest.Manifest) *httptest.Server {
	t.Helper()
	data, err := m.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
}

func TestRunCleanTreeHasNoDifferences(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := digest.Hash(path)
	if err != nil {
		t.Fatal(err)
	}

	m := manifest.New("https://example.com/")
	m.Entries = []manifest.Entry{{Path: "a.txt", SHA512: sum}}
	srv := serveManifest(t, m)
	defer srv.Close()

	report, err := Run(context.Background(), srv.URL+"/comstar.json", dir, false, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Err() != nil {
		t.Errorf("expected clean report, got %v", report.Err())
	}
}

func TestRunReportsMissingFile(t *testing.T) {
	dir := t.TempDir()
	m := manifest.New("https://example.com/")
	m.Entries = []manifest.Entry{{Path: "missing.txt", SHA512: strings.Repeat("0", digest.HexLen)}}
	srv := serveManifest(t, m)
	defer srv.Close()

	report, err := Run(context.Background(), srv.URL+"/comstar.json", dir, false, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Missing) != 1 {
		t.Fatalf("report = %+v, want 1 missing", report)
	}
	if report.Err() == nil {
		t.Error("expected non-nil Err() when differences exist")
	}
}

func TestRunMissingRemoteManifestIsFatal(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Run(context.Background(), srv.URL+"/comstar.json", dir, false, nil)
	if err == nil {
		t.Fatal("expected error when remote manifest is missing")
	}
}
