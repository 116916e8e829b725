package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"q7z/internal/archiver"
	"q7z/internal/config"
	"q7z/internal/extract"
	"q7z/internal/history"
	"q7z/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("Q7Z_ARCHIVER", "")
	t.Setenv("Q7Z_NTFY_TOPIC", "")
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\nstate_dir = %q\n\n[ipc]\napp_id = %q\n\n[notifications]\nntfy_topic = %q\n",
		cfg.Paths.LogDir,
		cfg.Paths.StateDir,
		cfg.IPC.AppID,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestRootRejectsPartialRequest(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"--input", "/tmp/a.7z", "--output", "/tmp/out"}, env.configPath)
	if !errors.Is(err, extract.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	requireContains(t, err.Error(), "filter")
	requireContains(t, err.Error(), "Usage:")
}

func TestRootRejectsPositionalArguments(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"archive.7z"}, env.configPath); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

func TestConfigInitPathAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.IPC.AppID)

	out, _, err = runCLI(t, []string{"config", "path"}, env.configPath)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != env.configPath {
		t.Fatalf("config path = %q, want %q", strings.TrimSpace(out), env.configPath)
	}

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected config init to refuse overwriting without --force")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--force"}, ""); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
}

func TestConfigPathWorksWithInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("unknown_key = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, _, err := runCLI(t, []string{"config", "path"}, path)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, path)

	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected validate to fail for unknown key")
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No jobs recorded")

	store := testsupport.MustOpenHistory(t, env.cfg)
	ctx := context.Background()
	ok := extract.Request{Input: "/archives/photos.7z", Output: "/tmp/out", Filter: "*"}
	bad := extract.Request{Input: "/archives/broken.7z", Output: "/tmp/out", Filter: "*"}
	if err := store.Begin(ctx, "job-ok", ok); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(ctx, "job-ok", history.Outcome{ExitCode: 0, LastPercent: 100, Files: 12}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := store.Begin(ctx, "job-bad", bad); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(ctx, "job-bad", history.Outcome{Err: &archiver.ExitError{Code: 2}, ExitCode: 2, LastPercent: 37}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "photos.7z")
	requireContains(t, out, "succeeded")
	requireContains(t, out, "100%")
	requireContains(t, out, "broken.7z")
	requireContains(t, out, "exit 2")

	out, _, err = runCLI(t, []string{"history", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --limit: %v", err)
	}
	if strings.Contains(out, "photos.7z") {
		t.Fatalf("expected only the newest job, got:\n%s", out)
	}
}

func TestTestNotifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify disabled: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env = setupCLITestEnv(t, testsupport.WithNtfyTopic(srv.URL+"/q7z"))
	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 ntfy request, got %d", got)
	}
}

func TestVersionCommandSkipsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("not toml ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, _, err := runCLI(t, []string{"version"}, path)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "q7z ")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubArchiver("", 0))
	if err := appendLine(env.configPath, fmt.Sprintf("\n[archiver]\nbinary = %q\n", env.cfg.Archiver.Binary)); err != nil {
		t.Fatalf("append config: %v", err)
	}

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Log directory")
	requireContains(t, out, "7-Zip")
	requireContains(t, out, "free")

	broken := setupCLITestEnv(t)
	if err := appendLine(broken.configPath, "\n[archiver]\nbinary = \"definitely-not-7z\"\n"); err != nil {
		t.Fatalf("append config: %v", err)
	}
	out, _, err = runCLI(t, []string{"check"}, broken.configPath)
	if err == nil {
		t.Fatalf("expected check to fail for missing archiver:\n%s", out)
	}
	requireContains(t, out, "FAIL")
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"logs"}, env.configPath); err == nil {
		t.Fatal("expected error when no logs exist")
	}

	run := filepath.Join(env.cfg.Paths.LogDir, "q7z-20260101T000000.000Z.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(run, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "two\nthree\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}
