package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"q7z/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("Q7Z_ARCHIVER", "")
	t.Setenv("Q7Z_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "q7z", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "q7z", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("log dir = %q, want %q", cfg.Paths.LogDir, want)
	}
	if cfg.HistoryPath() != filepath.Join(tempHome, ".local", "share", "q7z", "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if cfg.IPC.AppID != "dev.yakex.q7z" {
		t.Fatalf("app id = %q", cfg.IPC.AppID)
	}
	if cfg.ConnectTimeout() != 500*time.Millisecond {
		t.Fatalf("connect timeout = %v", cfg.ConnectTimeout())
	}
	if cfg.WriteTimeout() != 5*time.Second {
		t.Fatalf("write timeout = %v", cfg.WriteTimeout())
	}
	if cfg.Archiver.Binary != "7z" || !cfg.Archiver.SniffInput {
		t.Fatalf("unexpected archiver defaults %+v", cfg.Archiver)
	}
	if cfg.Progress.Overflow != "drop_oldest" || cfg.Progress.BufferSize != 256 {
		t.Fatalf("unexpected progress defaults %+v", cfg.Progress)
	}
	if cfg.Jobs.QueueSize != 16 {
		t.Fatalf("queue size = %d", cfg.Jobs.QueueSize)
	}
	if cfg.Logging.RetentionDays != 30 {
		t.Fatalf("retention = %d", cfg.Logging.RetentionDays)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestLoadProjectConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)
	if err := os.WriteFile(filepath.Join(project, "q7z.toml"), []byte("[jobs]\nqueue_size = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "q7z.toml" {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Jobs.QueueSize != 4 {
		t.Fatalf("queue size = %d, want 4", cfg.Jobs.QueueSize)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("Q7Z_ARCHIVER", "")
	configPath := filepath.Join(t.TempDir(), "custom.toml")

	type payload struct {
		IPC struct {
			AppID            string `toml:"app_id"`
			ConnectTimeoutMS int    `toml:"connect_timeout_ms"`
		} `toml:"ipc"`
		Archiver struct {
			Binary string `toml:"binary"`
		} `toml:"archiver"`
		Progress struct {
			Overflow string `toml:"overflow"`
		} `toml:"progress"`
	}
	custom := payload{}
	custom.IPC.AppID = "org.example.test"
	custom.IPC.ConnectTimeoutMS = 250
	custom.Archiver.Binary = "/opt/7zip/7zz"
	custom.Progress.Overflow = " BLOCK "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("resolved = %q exists=%v", resolved, exists)
	}
	if cfg.IPC.AppID != "org.example.test" {
		t.Fatalf("app id = %q", cfg.IPC.AppID)
	}
	if cfg.ConnectTimeout() != 250*time.Millisecond {
		t.Fatalf("connect timeout = %v", cfg.ConnectTimeout())
	}
	if cfg.Archiver.Binary != "/opt/7zip/7zz" {
		t.Fatalf("binary = %q", cfg.Archiver.Binary)
	}
	if cfg.Progress.Overflow != "block" {
		t.Fatalf("overflow = %q, want block", cfg.Progress.Overflow)
	}
	if cfg.IPC.ClaimAttempts != config.Default().IPC.ClaimAttempts {
		t.Fatalf("unset fields should keep defaults, got %d", cfg.IPC.ClaimAttempts)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "typo.toml")
	if err := os.WriteFile(configPath, []byte("[ipc]\napp_idd = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "q7z.toml")
	content := "[archiver]\nbinary = \"7za\"\n\n[notifications]\nntfy_topic = \"https://ntfy.sh/file\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("Q7Z_ARCHIVER", "7zz")
	t.Setenv("Q7Z_NTFY_TOPIC", "https://ntfy.example.com/env")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Archiver.Binary != "7zz" {
		t.Errorf("binary = %q, want env value", cfg.Archiver.Binary)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example.com/env" {
		t.Errorf("topic = %q, want env value", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), `app_id = "dev.yakex.q7z"`) {
		t.Fatalf("sample missing default app id:\n%s", contents)
	}

	cfg := config.Default()
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.IPC != config.Default().IPC {
		t.Fatalf("sample ipc section drifted from defaults: %+v", cfg.IPC)
	}

	if err := config.CreateSample(path, false); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"app id with slash", func(c *config.Config) { c.IPC.AppID = "dev/q7z" }},
		{"app id with space", func(c *config.Config) { c.IPC.AppID = "dev q7z" }},
		{"zero connect timeout", func(c *config.Config) { c.IPC.ConnectTimeoutMS = 0 }},
		{"zero claim attempts", func(c *config.Config) { c.IPC.ClaimAttempts = 0 }},
		{"zero buffer", func(c *config.Config) { c.Progress.BufferSize = 0 }},
		{"unknown overflow", func(c *config.Config) { c.Progress.Overflow = "drop_newest" }},
		{"zero queue", func(c *config.Config) { c.Jobs.QueueSize = 0 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"topic without scheme", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }},
		{"zero notify timeout", func(c *config.Config) { c.Notifications.RequestTimeout = 0 }},
		{"empty binary", func(c *config.Config) { c.Archiver.Binary = "" }},
		{"unknown charset", func(c *config.Config) { c.Archiver.Charset = "klingon-8" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Archiver.Charset = "Shift_JIS"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("known charset should validate: %v", err)
	}
}
