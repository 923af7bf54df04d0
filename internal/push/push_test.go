package push

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bsundsrud/comstar/internal/manifest"
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

func TestRunFirstPushUploadsEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "aaa")
	writeFile(t, filepath.Join(root, "b.txt"), "bbb")

	bucketDir := t.TempDir()
	bucketURL := "file://" + bucketDir
	manifestURL := bucketURL + "/" + manifest.FileName

	result, err := Run(context.Background(), root, manifestURL, bucketURL, "", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Uploaded) != 2 {
		t.Fatalf("uploaded = %v, want 2", result.Uploaded)
	}

	if _, err := os.Stat(filepath.Join(bucketDir, manifest.FileName)); err != nil {
		t.Fatalf("manifest not uploaded: %v", err)
	}
}

func TestRunIsMinimalOnSecondPush(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "aaa")

	bucketDir := t.TempDir()
	bucketURL := "file://" + bucketDir
	manifestURL := bucketURL + "/" + manifest.FileName

	if _, err := Run(context.Background(), root, manifestURL, bucketURL, "", Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	result, err := Run(context.Background(), root, manifestURL, bucketURL, "", Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(result.Uploaded) != 0 {
		t.Errorf("second push uploaded = %v, want none (unchanged)", result.Uploaded)
	}
}

func TestRunDeletesObjectsUnconditionallyOnRemoval(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "aaa")
	writeFile(t, filepath.Join(root, "b.txt"), "bbb")

	bucketDir := t.TempDir()
	bucketURL := "file://" + bucketDir
	manifestURL := bucketURL + "/" + manifest.FileName

	if _, err := Run(context.Background(), root, manifestURL, bucketURL, "", Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "b.txt")); err != nil {
		t.Fatal(err)
	}

	result, err := Run(context.Background(), root, manifestURL, bucketURL, "", Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(result.Deleted) != 1 || result.Deleted[0] != "b.txt" {
		t.Fatalf("deleted = %v, want [b.txt]", result.Deleted)
	}
	if _, err := os.Stat(filepath.Join(bucketDir, "b.txt")); !os.IsNotExist(err) {
		t.Fatal("b.txt should have been deleted from the bucket")
	}
}

func TestRunWritesUnderBucketPathPrefix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "aaa")

	bucketDir := t.TempDir()
	bucketURL := "file://" + bucketDir
	manifestURL := bucketURL + "/roms/" + manifest.FileName

	result, err := Run(context.Background(), root, manifestURL, bucketURL, "roms", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Uploaded) != 1 {
		t.Fatalf("uploaded = %v, want 1", result.Uploaded)
	}

	if _, err := os.Stat(filepath.Join(bucketDir, "roms", "a.txt")); err != nil {
		t.Fatalf("object not namespaced under bucketPath: %v", err)
	}
	if _, err := os.Stat(filepath.Join(bucketDir, "roms", manifest.FileName)); err != nil {
		t.Fatalf("manifest not namespaced under bucketPath: %v", err)
	}
}
