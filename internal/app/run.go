package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"q7z/internal/archiver"
	"q7z/internal/codepage"
	"q7z/internal/config"
	"q7z/internal/deps"
	"q7z/internal/events"
	"q7z/internal/extract"
	"q7z/internal/history"
	"q7z/internal/instance"
	"q7z/internal/ipc"
	"q7z/internal/logging"
	"q7z/internal/notifications"
	"q7z/internal/ui"
)

// Console is the user-facing surface of a Primary. It is shown once serving
// starts and renders the event stream until its context ends.
type Console interface {
	ui.Surface
	Run(ctx context.Context, in <-chan events.Event)
}

// Options tunes a single invocation.
type Options struct {
	// LogLevel overrides logging.level from the configuration.
	LogLevel    string
	Development bool
	// Quiet drops the stderr copy of the Primary's log.
	Quiet bool
	// Console replaces the default stdout console.
	Console Console
	// Executor replaces the archiver process launcher.
	Executor archiver.Executor
}

// Run coordinates with any running instance and either forwards req to it or
// becomes the Primary and serves until ctx is cancelled or a termination
// signal arrives. A nil req starts a Primary with no initial job.
func Run(ctx context.Context, cfg *config.Config, req *extract.Request, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientLogger, _, err := newClientLogger(cfg, opts)
	if err != nil {
		return err
	}

	endpoint, err := instance.ResolveEndpoint(cfg.IPC.AppID)
	if err != nil {
		return err
	}
	coordinator := instance.NewCoordinator(endpoint, clientLogger,
		instance.WithConnectTimeout(cfg.ConnectTimeout()),
		instance.WithWriteTimeout(cfg.WriteTimeout()),
		instance.WithClaimAttempts(cfg.IPC.ClaimAttempts),
	)
	console := opts.Console
	if console == nil {
		console = ui.NewConsole(os.Stdout, ui.WithTitle("q7z is running on "+coordinator.Endpoint().String()))
	}

	outcome, err := coordinator.Decide(signalCtx, req)
	switch {
	case errors.Is(err, instance.ErrNothingToDo):
		clientLogger.Info("q7z already running; nothing to forward",
			logging.String(logging.FieldEventType, "startup_noop"),
			logging.String("endpoint", coordinator.Endpoint().String()),
		)
		console.Notice(ui.KindInfo, "q7z is already running")
		return nil
	case err != nil:
		logging.ErrorWithContext(clientLogger, "instance coordination failed", "coordination_failed",
			logging.Error(err),
			logging.String("endpoint", coordinator.Endpoint().String()),
			logging.String(logging.FieldErrorHint, "stop other q7z processes or change ipc.app_id"),
			logging.String(logging.FieldImpact, "request was not delivered"),
		)
		console.Notice(ui.KindError, err.Error())
		return err
	case outcome.Role == instance.RoleForwarded:
		console.Notice(ui.KindOK, fmt.Sprintf("handed %s to the running q7z", filepath.Base(req.Input)))
		return nil
	}

	return runPrimary(signalCtx, cfg, outcome, console, opts)
}

func runPrimary(ctx context.Context, cfg *config.Config, outcome instance.Outcome, console Console, opts Options) error {
	runID := newRunID(time.Now())
	logger, logPath, err := newPrimaryLogger(cfg, opts, runID)
	if err != nil {
		_ = outcome.Listener.Close()
		return err
	}
	ctx = logging.WithCorrelationID(ctx, runID)
	logger.Info("q7z primary starting",
		logging.String(logging.FieldEventType, "primary_start"),
		logging.String(logging.FieldCorrelationID, runID),
		logging.Int("pid", os.Getpid()),
		logging.String("log_path", logPath),
	)
	if removed := pruneLogs(cfg, logger, logPath); removed > 0 {
		logger.Info("pruned old logs", logging.Int("removed", removed))
	}
	logDependencySnapshot(logger, cfg)

	policy, err := events.ParsePolicy(cfg.Progress.Overflow)
	if err != nil {
		_ = outcome.Listener.Close()
		return err
	}
	hub := events.NewHub(cfg.Progress.BufferSize, policy)

	store := openHistory(ctx, cfg, logger)
	if store != nil {
		defer store.Close()
	}

	runnerOpts := []archiver.Option{archiver.WithSniff(cfg.Archiver.SniffInput)}
	if cfg.Archiver.Charset != "" {
		charset, err := codepage.ForCharset(cfg.Archiver.Charset)
		if err != nil {
			_ = outcome.Listener.Close()
			return fmt.Errorf("archiver charset: %w", err)
		}
		runnerOpts = append(runnerOpts, archiver.WithDecoder(charset))
	}
	if opts.Executor != nil {
		runnerOpts = append(runnerOpts, archiver.WithExecutor(opts.Executor))
	}
	runner, err := archiver.New(deps.ResolveArchiver(cfg.Archiver.Binary), hub, logger, runnerOpts...)
	if err != nil {
		_ = outcome.Listener.Close()
		return err
	}

	dispatcherOpts := []DispatcherOption{
		WithQueueSize(cfg.Jobs.QueueSize),
		WithNotifier(notifications.NewService(cfg)),
	}
	if store != nil {
		dispatcherOpts = append(dispatcherOpts, WithRecorder(store))
	}
	dispatcher := NewDispatcher(runner, hub, logger, dispatcherOpts...)

	server := ipc.NewServer(outcome.Listener, func(connCtx context.Context, req extract.Request) {
		if _, err := dispatcher.Enqueue(connCtx, req, "ipc"); err != nil {
			logging.WarnWithContext(logger, "forwarded request dropped", "enqueue_failed",
				logging.Error(err),
				logging.String("input", req.Input),
				logging.String(logging.FieldImpact, "the forwarded extraction will not run"),
			)
		}
	}, logger, ipc.WithReadTimeout(cfg.ReadTimeout()))
	logger.Info("ipc server listening",
		logging.String(logging.FieldEventType, "ipc_listening"),
		logging.String("endpoint", server.Addr().String()),
	)

	feed, unsubscribe := hub.Subscribe(cfg.Progress.BufferSize)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := server.Serve(ctx); err != nil {
			logging.ErrorWithContext(logger, "ipc server stopped", "ipc_server_failed", logging.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		console.Run(ctx, feed)
	}()
	console.Show()

	if outcome.Request != nil {
		if _, err := dispatcher.Enqueue(ctx, *outcome.Request, "startup"); err != nil {
			logging.WarnWithContext(logger, "startup request dropped", "enqueue_failed", logging.Error(err))
		}
	}

	<-ctx.Done()
	logger.Info("q7z primary shutting down", logging.String(logging.FieldEventType, "primary_stop"))
	_ = server.Close()
	unsubscribe()
	wg.Wait()

	completed, failed := dispatcher.Stats()
	logger.Info("q7z primary stopped",
		logging.Int64("completed", completed),
		logging.Int64("failed", failed),
		logging.Int("events_dropped", int(hub.Dropped())),
	)
	return nil
}

// openHistory opens the job history and marks jobs left running by a crashed
// Primary. History is optional; failures are logged and extraction proceeds.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *history.Store {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "job history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.HistoryPath()),
			logging.String(logging.FieldErrorHint, "remove or migrate the history database"),
			logging.String(logging.FieldImpact, "jobs from this run are not recorded"),
		)
		return nil
	}
	if n, err := store.MarkInterrupted(ctx); err != nil {
		logging.WarnWithContext(logger, "failed to reconcile job history", "history_reconcile_failed", logging.Error(err))
	} else if n > 0 {
		logger.Info("marked interrupted jobs", logging.Int64("count", n))
	}
	return store
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	for _, status := range deps.CheckBinaries([]deps.Requirement{deps.Archiver(cfg.Archiver.Binary)}) {
		if !status.Available {
			logging.WarnWithContext(logger, "dependency missing", "dependency_missing",
				logging.String("dependency", status.Name),
				logging.String("command", status.Command),
				logging.String("detail", status.Detail),
				logging.String(logging.FieldErrorHint, "install 7-Zip or set archiver.binary"),
				logging.String(logging.FieldImpact, "extractions fail until the binary is installed"),
			)
			continue
		}
		logger.Info("dependency snapshot",
			logging.String(logging.FieldEventType, "dependency_snapshot"),
			logging.String("dependency", status.Name),
			logging.String("path", status.Path),
			logging.String("console_charset", consoleCharset(cfg)),
			logging.Bool("sniff_input", cfg.Archiver.SniffInput),
			logging.Bool("notifications", cfg.Notifications.NtfyTopic != ""),
		)
	}
}

func consoleCharset(cfg *config.Config) string {
	if cfg.Archiver.Charset != "" {
		return cfg.Archiver.Charset
	}
	return codepage.Console().Name()
}
