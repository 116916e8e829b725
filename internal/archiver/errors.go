package archiver

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawn reports that the archiver process could not be started.
	ErrSpawn = errors.New("archiver could not be started")
	// ErrArchiverExit reports that the archiver ran and exited non-zero.
	ErrArchiverExit = errors.New("archiver exited with failure")
	// ErrOutputNotWritable reports that the destination directory cannot be written.
	ErrOutputNotWritable = errors.New("output directory is not writable")
)

// ExitError carries the archiver's exit status. It matches ErrArchiverExit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	if meaning := exitMeaning(e.Code); meaning != "" {
		return fmt.Sprintf("archiver exited with code %d (%s)", e.Code, meaning)
	}
	return fmt.Sprintf("archiver exited with code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return ErrArchiverExit }

// exitMeaning maps 7-Zip exit codes to their documented meaning.
func exitMeaning(code int) string {
	switch code {
	case 1:
		return "warning"
	case 2:
		return "fatal error"
	case 7:
		return "command line error"
	case 8:
		return "not enough memory"
	case 255:
		return "stopped by user"
	default:
		return ""
	}
}

// ExitCode returns the archiver exit status carried by err, or -1.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}
