package archiver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Streams receives the two output streams of an archiver process.
type Streams struct {
	// Stdout consumes standard output until EOF.
	Stdout func(io.Reader) error
	// Stderr is called for every standard error line.
	Stderr func(string)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, streams Streams) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, streams Streams) error {
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %w", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %w", ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if streams.Stderr != nil {
				streams.Stderr(scanner.Text())
			}
		}
		_, _ = io.Copy(io.Discard, stderr)
	}()

	var consumeErr error
	if streams.Stdout != nil {
		consumeErr = streams.Stdout(stdout)
	}
	_, _ = io.Copy(io.Discard, stdout)
	wg.Wait()

	waitErr := cmd.Wait()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && ctx.Err() == nil {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait archiver: %w", waitErr)
	}
	if consumeErr != nil && !errors.Is(consumeErr, context.Canceled) {
		return fmt.Errorf("read archiver output: %w", consumeErr)
	}
	return nil
}
