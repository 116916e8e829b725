package archiver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q7z/internal/archiver"
	"q7z/internal/codepage"
	"q7z/internal/events"
	"q7z/internal/extract"
	"q7z/internal/logging"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Emit(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) payloads(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, evt := range r.events {
		if evt.Name == name {
			out = append(out, evt.Payload)
		}
	}
	return out
}

type fakeExecutor struct {
	stdout string
	stderr []string
	err    error

	binary string
	args   []string
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string, streams archiver.Streams) error {
	f.binary = binary
	f.args = args
	for _, line := range f.stderr {
		streams.Stderr(line)
	}
	if err := streams.Stdout(strings.NewReader(f.stdout)); err != nil {
		return err
	}
	return f.err
}

func newRequest(t *testing.T, filter string) extract.Request {
	t.Helper()
	dir := t.TempDir()
	return extract.Request{
		Input:  filepath.Join(dir, "photos.7z"),
		Output: filepath.Join(dir, "out"),
		Filter: filter,
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		req  extract.Request
		want []string
	}{
		{
			name: "with filter",
			req:  extract.Request{Input: "/a/b.7z", Output: "/dest dir", Filter: "*.txt"},
			want: []string{"x", "/a/b.7z", "-o/dest dir", "-aou", "-bsp1", "*.txt"},
		},
		{
			name: "empty filter omitted",
			req:  extract.Request{Input: "b.zip", Output: "out"},
			want: []string{"x", "b.zip", "-oout", "-aou", "-bsp1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, archiver.Args(tt.req))
		})
	}
}

func TestNewRequiresBinary(t *testing.T) {
	_, err := archiver.New("  ", nil, nil)
	require.Error(t, err)
}

func TestRunEmitsProgressEvents(t *testing.T) {
	exec := &fakeExecutor{
		stdout: "\n7-Zip 23.01 (x64)\n\rScanning the drive for archives:\r" +
			"  0%\r\n\r  37% 3 - photos/a.jpg\r 100% 12 - photos/z.jpg\r" +
			"\nEverything is Ok\r",
	}
	rec := &recorder{}
	runner, err := archiver.New("7z", rec, logging.NewNop(),
		archiver.WithExecutor(exec), archiver.WithDecoder(codepage.UTF8))
	require.NoError(t, err)

	req := newRequest(t, "*")
	result, err := runner.Run(context.Background(), "job-1", req)
	require.NoError(t, err)

	assert.Equal(t, "7z", exec.binary)
	assert.Equal(t, archiver.Args(req), exec.args)
	assert.Equal(t, []string{"0", "37", "100"}, rec.payloads(events.NamePercent))
	assert.Equal(t, []string{"photos/a.jpg", "photos/z.jpg"}, rec.payloads(events.NameFile))
	assert.Contains(t, rec.payloads(events.NameLog), "Everything is Ok")
	assert.Equal(t, 100, result.LastPercent)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, "job-1", result.JobID)
	for _, evt := range rec.events {
		assert.Equal(t, "job-1", evt.JobID)
	}
}

func TestRunNeverSynthesisesCompletion(t *testing.T) {
	exec := &fakeExecutor{stdout: "Everything is Ok\r"}
	rec := &recorder{}
	runner, err := archiver.New("7z", rec, nil, archiver.WithExecutor(exec))
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "job-2", newRequest(t, ""))
	require.NoError(t, err)
	assert.Empty(t, rec.payloads(events.NamePercent))
	assert.Equal(t, -1, result.LastPercent)
}

func TestRunReturnsExitError(t *testing.T) {
	exec := &fakeExecutor{stdout: "  5%\r", stderr: []string{"ERROR: Wrong password"}, err: &archiver.ExitError{Code: 2}}
	runner, err := archiver.New("7z", nil, nil, archiver.WithExecutor(exec))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "job-3", newRequest(t, "*"))
	require.Error(t, err)
	assert.ErrorIs(t, err, archiver.ErrArchiverExit)
	assert.Equal(t, 2, archiver.ExitCode(err))
	assert.Contains(t, err.Error(), "fatal error")
}

func TestRunRejectsUnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	exec := &fakeExecutor{}
	runner, err := archiver.New("7z", nil, nil, archiver.WithExecutor(exec))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "job-4", extract.Request{Input: "a.7z", Output: blocker, Filter: "*"})
	assert.ErrorIs(t, err, archiver.ErrOutputNotWritable)
	assert.Empty(t, exec.binary, "archiver must not be spawned")
}

func TestRunSniffsUnknownInputButContinues(t *testing.T) {
	req := newRequest(t, "*")
	require.NoError(t, os.WriteFile(req.Input, []byte("plain text, not an archive"), 0o644))

	exec := &fakeExecutor{stdout: " 50%\r"}
	runner, err := archiver.New("7z", nil, nil, archiver.WithExecutor(exec), archiver.WithSniff(true))
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "job-5", req)
	require.NoError(t, err)
	assert.Empty(t, result.Format)
	assert.Equal(t, 50, result.LastPercent)
}

func TestRunMissingBinaryIsSpawnError(t *testing.T) {
	runner, err := archiver.New("q7z-no-such-archiver", nil, nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "job-6", newRequest(t, "*"))
	require.Error(t, err)
	assert.ErrorIs(t, err, archiver.ErrSpawn)
	assert.Equal(t, -1, archiver.ExitCode(err))
}

func writeStub(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "7z")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestCommandExecutorStreamsRealProcess(t *testing.T) {
	stub := writeStub(t, `printf '  10%%\r  60%% 1 - a.txt\r'
echo "warning: something odd" >&2
printf '\nEverything is Ok\r'
`)
	rec := &recorder{}
	runner, err := archiver.New(stub, rec, nil, archiver.WithDecoder(codepage.UTF8))
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "job-7", newRequest(t, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "60"}, rec.payloads(events.NamePercent))
	assert.Equal(t, []string{"a.txt"}, rec.payloads(events.NameFile))
	assert.Equal(t, 60, result.LastPercent)
}

func TestCommandExecutorReportsExitCode(t *testing.T) {
	stub := writeStub(t, "printf ' 1%%\\r'\nexit 7\n")
	runner, err := archiver.New(stub, nil, nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "job-8", newRequest(t, "*"))
	var exitErr *archiver.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 7, exitErr.Code)
}

func TestCommandExecutorCancellation(t *testing.T) {
	stub := writeStub(t, "printf ' 1%%\\r'\nexec sleep 30\n")
	runner, err := archiver.New(stub, nil, nil)
	require.NoError(t, err)
	req := newRequest(t, "*")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, runErr := runner.Run(ctx, "job-9", req)
		done <- runErr
	}()
	cancel()
	err = <-done
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
