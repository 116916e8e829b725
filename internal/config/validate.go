package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"q7z/internal/codepage"
)

// appIDPattern accepts reverse-DNS style identifiers usable in socket names.
var appIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIPC(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if c.Jobs.QueueSize <= 0 {
		return errors.New("jobs.queue_size must be positive")
	}
	if strings.TrimSpace(c.Archiver.Binary) == "" {
		return errors.New("archiver.binary must be set (or set Q7Z_ARCHIVER)")
	}
	if c.Archiver.Charset != "" {
		if _, err := codepage.ForCharset(c.Archiver.Charset); err != nil {
			return fmt.Errorf("archiver.charset: %w", err)
		}
	}
	return nil
}

func (c *Config) validateIPC() error {
	if !appIDPattern.MatchString(c.IPC.AppID) {
		return fmt.Errorf("ipc.app_id %q must start with a letter or digit and contain only letters, digits, '.', '_' or '-'", c.IPC.AppID)
	}
	return ensurePositive([]positiveField{
		{"ipc.connect_timeout_ms", c.IPC.ConnectTimeoutMS},
		{"ipc.read_timeout_ms", c.IPC.ReadTimeoutMS},
		{"ipc.write_timeout_ms", c.IPC.WriteTimeoutMS},
		{"ipc.claim_attempts", c.IPC.ClaimAttempts},
	})
}

func (c *Config) validateProgress() error {
	if c.Progress.BufferSize <= 0 {
		return errors.New("progress.buffer_size must be positive")
	}
	switch c.Progress.Overflow {
	case "drop_oldest", "block":
		return nil
	default:
		return fmt.Errorf("progress.overflow %q must be drop_oldest or block", c.Progress.Overflow)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL such as https://ntfy.sh/my-topic", topic)
	}
	return nil
}

type positiveField struct {
	key   string
	value int
}

func ensurePositive(fields []positiveField) error {
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%s must be positive", f.key)
		}
	}
	return nil
}
