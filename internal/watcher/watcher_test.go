package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan string, timeout time.Duration) (string, bool) {
	t.Helper()
	select {
	case p := <-ch:
		return p, true
	case <-time.After(timeout):
		return "", false
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte("file_id: a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 10)
	w, err := New(path, func(p string) { changes <- p }, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("file_id: b\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := waitFor(t, changes, 3*time.Second)
	if !ok {
		t.Fatal("no change reported")
	}
	if got != w.Path() {
		t.Errorf("handler path = %q, want %q", got, w.Path())
	}
}

func TestWatcher_SeesAtomicRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 10)
	w, err := New(path, func(p string) { changes <- p }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	tmp := filepath.Join(dir, "tmp-save")
	if err := os.WriteFile(tmp, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	if _, ok := waitFor(t, changes, 3*time.Second); !ok {
		t.Fatal("rename-over save not reported")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New(path, func(string) { calls.Add(1) }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("handler ran %d times for a sibling file", n)
	}
}

func TestWatcher_CloseDropsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New(path, func(string) { calls.Add(1) }, WithDebounce(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("handler ran %d times after Close", n)
	}
}

func TestWatcher_CloseWaitsForRunningHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	w, err := New(path, func(string) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	}, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		close(release)
		w.Close()
		t.Fatal("handler never ran")
	}

	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned while the handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the handler finished")
	}
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	w, err := NewFromConfig(ConfigValues{Enabled: false}, path, func(string) {}, nil)
	if err != nil || w != nil {
		t.Errorf("disabled config = %v, %v; want nil, nil", w, err)
	}

	w, err = NewFromConfig(ConfigValues{Enabled: true, DebounceMs: 5}, path, func(string) {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if w.debounce != 5*time.Millisecond {
		t.Errorf("debounce = %v, want 5ms", w.debounce)
	}

	if _, err := New(path, nil); err == nil {
		t.Error("New with nil handler should fail")
	}
}
