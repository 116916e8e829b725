package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	currentName   = "q7z.log"
	runPattern    = "q7z-*.log"
	clientName    = "q7z-client.log"
	maxLineLength = 1024 * 1024
)

// ErrNoLogs reports a log directory without any Primary run log.
var ErrNoLogs = errors.New("no q7z logs found")

// Current returns the run log of the most recent Primary in logDir. It
// follows the q7z.log pointer and falls back to the newest run log when the
// pointer is missing.
func Current(logDir string) (string, error) {
	pointer := filepath.Join(logDir, currentName)
	if resolved, err := filepath.EvalSymlinks(pointer); err == nil {
		return resolved, nil
	}

	matches, err := filepath.Glob(filepath.Join(logDir, runPattern))
	if err != nil {
		return "", fmt.Errorf("list logs: %w", err)
	}
	var runs []string
	for _, m := range matches {
		if filepath.Base(m) != clientName {
			runs = append(runs, m)
		}
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, logDir)
	}
	// Run ids are UTC timestamps, so names sort chronologically.
	sort.Strings(runs)
	return runs[len(runs)-1], nil
}

// Last returns up to limit trailing lines of path and the offset just past
// them. limit <= 0 returns no lines and the current end of file.
func Last(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	ring := make([]string, limit)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, end, nil
}

// Follow polls path from offset and calls emit for every complete line
// appended, until ctx is cancelled. A truncated file is read from the start.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, emit func(string)) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := readForward(path, offset, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// readForward emits complete lines after offset and returns the offset of the
// first byte not yet emitted. A trailing partial line is left for the next poll.
func readForward(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		emit(line[:len(line)-1])
	}
}
