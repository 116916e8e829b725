package archiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Defacto2/magicnumber"

	"q7z/internal/codepage"
	"q7z/internal/events"
	"q7z/internal/extract"
	"q7z/internal/logging"
	"q7z/internal/progress"
)

// Result summarises one archiver run.
type Result struct {
	JobID string
	// LastPercent is the final percentage reported, or -1 when none was seen.
	LastPercent int
	Files       int
	Lines       int
	// Skipped counts output chunks the console decoder rejected.
	Skipped  int
	Format   string
	Duration time.Duration
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithDecoder overrides the console decoder used for archiver output.
func WithDecoder(dec codepage.Decoder) Option {
	return func(r *Runner) {
		if dec != nil {
			r.decoder = dec
		}
	}
}

// WithSniff toggles the archive signature check performed before spawning.
func WithSniff(enabled bool) Option {
	return func(r *Runner) {
		r.sniff = enabled
	}
}

// Runner spawns the archiver and streams its progress to a sink.
type Runner struct {
	binary  string
	exec    Executor
	decoder codepage.Decoder
	sink    events.Sink
	logger  *slog.Logger
	sniff   bool
}

// New constructs a runner for binary. A nil sink discards events.
func New(binary string, sink events.Sink, logger *slog.Logger, opts ...Option) (*Runner, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("archiver binary required")
	}
	if sink == nil {
		sink = events.SinkFunc(func(events.Event) {})
	}
	r := &Runner{
		binary:  binary,
		exec:    commandExecutor{},
		decoder: codepage.Console(),
		sink:    sink,
		logger:  logging.NewComponentLogger(logger, "archiver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Args returns the archiver command line for req. The filter is omitted when
// empty since an empty argument is not a valid wildcard.
func Args(req extract.Request) []string {
	args := []string{"x", req.Input, "-o" + req.Output, "-aou", "-bsp1"}
	if req.Filter != "" {
		args = append(args, req.Filter)
	}
	return args
}

// Run extracts req and blocks until the archiver exits. Spawn failures wrap
// ErrSpawn; a non-zero exit returns an *ExitError matching ErrArchiverExit.
func (r *Runner) Run(ctx context.Context, jobID string, req extract.Request) (Result, error) {
	start := time.Now()
	result := Result{JobID: jobID, LastPercent: -1}
	logger := r.logger.With(logging.String(logging.FieldJobID, jobID))

	if err := preflight(req); err != nil {
		return result, err
	}
	if r.sniff {
		result.Format = r.sniffInput(logger, req.Input)
	}

	args := Args(req)
	logger.Info("archiver starting",
		logging.String(logging.FieldEventType, "archiver_start"),
		logging.String("binary", r.binary),
		logging.String("input", req.Input),
		logging.String("output", req.Output),
		logging.String("filter", req.Filter),
		logging.String("decoder", decoderName(r.decoder)),
	)

	sampler := logging.NewProgressSampler(10)
	emit := func(name, payload string) {
		r.sink.Emit(events.Event{Time: time.Now(), Name: name, JobID: jobID, Payload: payload})
	}

	var skipped int
	streams := Streams{
		Stdout: func(out io.Reader) error {
			n, err := progress.Scan(ctx, out, r.decoder, func(line progress.Line) {
				r.handleLine(logger, sampler, jobID, line, &result, emit)
			})
			skipped = n
			return err
		},
		Stderr: func(line string) {
			if line = strings.TrimSpace(line); line == "" {
				return
			}
			logging.WarnWithContext(logger, "archiver stderr", "archiver_stderr",
				logging.String("line", line),
				logging.String(logging.FieldImpact, "the archiver reported a problem with this job"),
				logging.String(logging.FieldErrorHint, "check the archive path, password, and free disk space"),
			)
		},
	}

	err := r.exec.Run(ctx, r.binary, args, streams)
	result.Skipped = skipped
	result.Duration = time.Since(start)
	if skipped > 0 {
		logging.WarnWithContext(logger, "archiver output chunks were not decodable", "decode_skipped",
			logging.Int("chunks", skipped),
			logging.String(logging.FieldImpact, "some progress updates were lost"),
			logging.String(logging.FieldErrorHint, "check the console code page detection"),
		)
	}
	if err != nil {
		return result, err
	}
	logger.Info("archiver finished",
		logging.String(logging.FieldEventType, "archiver_complete"),
		logging.Int("last_percent", result.LastPercent),
		logging.Int("files", result.Files),
		logging.Duration("elapsed", result.Duration),
	)
	return result, nil
}

func (r *Runner) handleLine(logger *slog.Logger, sampler *logging.ProgressSampler, jobID string, line progress.Line, result *Result, emit func(string, string)) {
	result.Lines++
	if !line.HasPercent() {
		if text := strings.TrimSpace(line.Text); text != "" {
			logger.Debug("archiver output", logging.String("line", text))
			emit(events.NameLog, text)
		}
		return
	}
	emit(events.NamePercent, line.Percent)
	if n, err := strconv.Atoi(line.Percent); err == nil {
		result.LastPercent = n
		if sampler.ShouldLog(jobID, n) {
			logger.Info("extraction progress",
				logging.String(logging.FieldEventType, "archiver_progress"),
				logging.Int("percent", n),
			)
		}
	}
	if line.File != "" {
		result.Files++
		emit(events.NameFile, line.File)
	}
}

// sniffInput reports the input's archive signature. Unknown signatures only
// warn since 7-Zip reads more formats than the signature table covers.
func (r *Runner) sniffInput(logger *slog.Logger, path string) string {
	file, err := os.Open(path)
	if err != nil {
		logging.WarnWithContext(logger, "input could not be opened for sniffing", "archive_sniff_failed",
			logging.String("input", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the archiver will report the problem itself"),
		)
		return ""
	}
	defer file.Close()

	sign, err := magicnumber.Archive(file)
	if err != nil {
		logging.WarnWithContext(logger, "input signature could not be read", "archive_sniff_failed",
			logging.String("input", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "format detection skipped"),
		)
		return ""
	}
	if sign == magicnumber.Unknown {
		logging.WarnWithContext(logger, "input is not a recognised archive format", "archive_unrecognised",
			logging.String("input", path),
			logging.String(logging.FieldImpact, "extraction is attempted anyway"),
			logging.String(logging.FieldErrorHint, "confirm the file is an archive 7-Zip supports"),
		)
		return ""
	}
	logger.Debug("input signature", logging.String("format", sign.String()))
	return sign.String()
}

// preflight checks that the nearest existing ancestor of the output directory
// is writable. The archiver creates missing directories itself.
func preflight(req extract.Request) error {
	dir := filepath.Clean(req.Output)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%w: %s is not a directory", ErrOutputNotWritable, dir)
			}
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
	if err := checkWritable(dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputNotWritable, dir, err)
	}
	return nil
}

func decoderName(dec codepage.Decoder) string {
	if named, ok := dec.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", dec)
}
