package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "a.txt", "alpha")
	writeCorpusFile(t, dir, "b.md", "# Beta")
	writeCorpusFile(t, dir, "c.pdf", "%PDF-1.4")
	writeCorpusFile(t, dir, "notes.json", `{"skip": true}`)
	writeCorpusFile(t, dir, ".hidden.txt", "hidden")

	if err := os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}
	writeCorpusFile(t, filepath.Join(dir, "sub", "deep"), "d.TXT", "delta")

	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatalf("failed to create hidden directory: %v", err)
	}
	writeCorpusFile(t, filepath.Join(dir, ".git"), "e.txt", "ignored")

	files, err := ScanDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	want := []string{"a.txt", "b.md", "c.pdf", "sub/deep/d.TXT"}
	if len(files) != len(want) {
		t.Fatalf("ScanDir() returned %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, rel := range want {
		if files[i].RelPath != rel {
			t.Errorf("files[%d].RelPath = %q, want %q", i, files[i].RelPath, rel)
		}
	}
	if files[0].AbsPath != filepath.Join(dir, "a.txt") {
		t.Errorf("files[0].AbsPath = %q, want %q", files[0].AbsPath, filepath.Join(dir, "a.txt"))
	}
}

func TestScanDir_HiddenRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".corpus")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("failed to create root: %v", err)
	}
	writeCorpusFile(t, root, "a.txt", "alpha")

	files, err := ScanDir(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "a.txt" {
		t.Errorf("ScanDir() over dot-prefixed root = %+v, want a.txt", files)
	}
}

func TestScanDir_MissingRoot(t *testing.T) {
	_, err := ScanDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("ScanDir() over missing root should fail")
	}
}

func TestScanDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "a.txt", "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScanDir(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ScanDir() with cancelled context error = %v, want context.Canceled", err)
	}
}
