package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"q7z/internal/config"
	"q7z/internal/logging"
)

const (
	currentLogName = "q7z.log"
	clientLogName  = "q7z-client.log"
	runLogPattern  = "q7z-*.log"
)

// newRunID returns a sortable identifier for the Primary's log file.
func newRunID(now time.Time) string {
	return now.UTC().Format("20060102T150405.000Z")
}

// newClientLogger logs the coordination phase to a shared append-only file,
// so short-lived forwarding processes do not each leave a log behind.
func newClientLogger(cfg *config.Config, opts Options) (*slog.Logger, string, error) {
	path := filepath.Join(cfg.Paths.LogDir, clientLogName)
	logger, err := logging.New(logging.Options{
		Level:       logLevel(cfg, opts),
		Format:      cfg.Logging.Format,
		OutputPaths: []string{path},
		Development: opts.Development,
	})
	if err != nil {
		return nil, "", fmt.Errorf("init client logger: %w", err)
	}
	return logger, path, nil
}

// newPrimaryLogger opens q7z-<runid>.log and points q7z.log at it.
func newPrimaryLogger(cfg *config.Config, opts Options, runID string) (*slog.Logger, string, error) {
	path := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("q7z-%s.log", runID))
	outputs := []string{path}
	if !opts.Quiet {
		outputs = append(outputs, "stderr")
	}
	logger, err := logging.New(logging.Options{
		Level:       logLevel(cfg, opts),
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Development: opts.Development,
	})
	if err != nil {
		return nil, "", fmt.Errorf("init primary logger: %w", err)
	}
	if err := ensureCurrentLogPointer(filepath.Join(cfg.Paths.LogDir, currentLogName), path); err != nil {
		logging.WarnWithContext(logger, "failed to update current log pointer", "log_pointer_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, currentLogName+" may point at an older run"),
		)
	}
	return logger, path, nil
}

// pruneLogs removes run logs older than the retention window, keeping the
// open run log and the shared client log.
func pruneLogs(cfg *config.Config, logger *slog.Logger, current string) int {
	return logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: runLogPattern,
		Exclude: []string{current, filepath.Join(cfg.Paths.LogDir, clientLogName)},
	})
}

func ensureCurrentLogPointer(pointer, target string) error {
	if pointer == "" || target == "" {
		return nil
	}
	if err := os.Remove(pointer); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(filepath.Base(target), pointer); err == nil {
		return nil
	}
	if err := os.Link(target, pointer); err != nil {
		return fmt.Errorf("link current log: %w", err)
	}
	return nil
}

func logLevel(cfg *config.Config, opts Options) string {
	if opts.LogLevel != "" {
		return opts.LogLevel
	}
	return cfg.Logging.Level
}
