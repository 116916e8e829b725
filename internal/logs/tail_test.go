package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"q7z/internal/logs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q7z-run.log")
	writeFile(t, path, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("offset = %d, want 6", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil || len(lines) != 3 {
		t.Fatalf("expected all 3 lines, got %#v (%v)", lines, err)
	}

	lines, offset, err = logs.Last(path, 0)
	if err != nil || lines != nil || offset != 6 {
		t.Fatalf("limit 0: lines=%#v offset=%d err=%v", lines, offset, err)
	}
}

func TestCurrentFollowsPointerThenNewestRun(t *testing.T) {
	dir := t.TempDir()
	if _, err := logs.Current(dir); !errors.Is(err, logs.ErrNoLogs) {
		t.Fatalf("expected ErrNoLogs, got %v", err)
	}

	older := filepath.Join(dir, "q7z-20260101T000000.000Z.log")
	newer := filepath.Join(dir, "q7z-20260201T000000.000Z.log")
	writeFile(t, older, "old\n")
	writeFile(t, newer, "new\n")
	writeFile(t, filepath.Join(dir, "q7z-client.log"), "client\n")

	got, err := logs.Current(dir)
	if err != nil || got != newer {
		t.Fatalf("Current = %q (%v), want %q", got, err, newer)
	}

	if err := os.Symlink(filepath.Base(older), filepath.Join(dir, "q7z.log")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	got, err = logs.Current(dir)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if resolved, _ := filepath.EvalSymlinks(older); got != resolved {
		t.Fatalf("Current = %q, want pointer target %q", got, resolved)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q7z-run.log")
	writeFile(t, path, "start\n")
	_, offset, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	var mu sync.Mutex
	var got []string
	seen := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
			seen <- struct{}{}
		})
	}()

	appendFile(t, path, "later\npart")
	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit appended line")
	}
	appendFile(t, path, "ial\n")
	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit completed partial line")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "later" || got[1] != "partial" {
		t.Fatalf("unexpected lines %#v", got)
	}
}
