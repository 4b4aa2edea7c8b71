package util

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

func noTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "tseg-atomic-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestAtomicWriteFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates file with content", func(t *testing.T) {
		path := filepath.Join(tmpDir, "project.yaml")
		if err := AtomicWriteFile(path, []byte("file_id: f1\n"), 0644); err != nil {
			t.Fatalf("AtomicWriteFile failed: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading file: %v", err)
		}
		if string(got) != "file_id: f1\n" {
			t.Errorf("content mismatch: got %q", got)
		}
	})

	t.Run("applies permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permissions")
		}
		path := filepath.Join(tmpDir, "private.yaml")
		if err := AtomicWriteFile(path, []byte("x"), 0600); err != nil {
			t.Fatalf("AtomicWriteFile failed: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat file: %v", err)
		}
		if mode := info.Mode().Perm(); mode != 0600 {
			t.Errorf("mode = %o, want 600", mode)
		}
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "overwrite.yaml")
		if err := AtomicWriteFile(path, []byte("initial"), 0644); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := AtomicWriteFile(path, []byte("updated content"), 0644); err != nil {
			t.Fatalf("second write failed: %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "updated content" {
			t.Errorf("content mismatch: got %q", got)
		}
	})

	t.Run("handles empty content", func(t *testing.T) {
		path := filepath.Join(tmpDir, "empty.yaml")
		if err := AtomicWriteFile(path, nil, 0644); err != nil {
			t.Fatalf("AtomicWriteFile failed: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat file: %v", err)
		}
		if info.Size() != 0 {
			t.Errorf("expected empty file, got size %d", info.Size())
		}
	})

	t.Run("fails without parent directory", func(t *testing.T) {
		nested := filepath.Join(tmpDir, "nonexistent", "subdir", "project.yaml")
		if err := AtomicWriteFile(nested, []byte("x"), 0644); err == nil {
			t.Fatal("expected error for nonexistent parent directory")
		}
	})

	noTempFiles(t, tmpDir)
}

func TestAtomicWriteFileConcurrent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "concurrent.yaml")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			content := []byte(strings.Repeat(string(rune('A'+n)), 100))
			if err := AtomicWriteFile(path, content, 0644); err != nil {
				t.Errorf("concurrent write %d failed: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if len(content) != 100 {
		t.Fatalf("unexpected content length: %d", len(content))
	}
	// One writer wins whole.
	for i, b := range content {
		if b != content[0] {
			t.Errorf("content corruption at byte %d: got %c, expected %c", i, b, content[0])
			break
		}
	}
	noTempFiles(t, tmpDir)
}
