package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIPC()
	c.normalizeArchiver()
	c.normalizeProgress()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIPC() {
	c.IPC.AppID = strings.TrimSpace(c.IPC.AppID)
	if c.IPC.AppID == "" {
		c.IPC.AppID = defaultAppID
	}
}

func (c *Config) normalizeArchiver() {
	if value, ok := os.LookupEnv("Q7Z_ARCHIVER"); ok && strings.TrimSpace(value) != "" {
		c.Archiver.Binary = value
	}
	c.Archiver.Binary = strings.TrimSpace(c.Archiver.Binary)
	if c.Archiver.Binary == "" {
		c.Archiver.Binary = defaultArchiverBinary
	}
}

func (c *Config) normalizeProgress() {
	c.Progress.Overflow = strings.ToLower(strings.TrimSpace(c.Progress.Overflow))
	if c.Progress.Overflow == "" {
		c.Progress.Overflow = defaultOverflowPolicy
	}
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("Q7Z_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
