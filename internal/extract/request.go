// Package extract defines the extraction request shared by the command line,
// the IPC channel, and the archiver runner.
package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncomplete reports a request where only some of the three fields were supplied.
var ErrIncomplete = errors.New("input, output, and filter must be supplied together")

// Request describes one extraction job. It is passed by value and never
// mutated after construction.
type Request struct {
	Input  string
	Output string
	Filter string
}

// New builds a request from its three fields. All empty yields the zero
// request (launched bare); a partial set is rejected.
func New(input, output, filter string) (Request, error) {
	req := Request{Input: input, Output: output, Filter: filter}
	if req.IsZero() {
		return req, nil
	}
	var missing []string
	if strings.TrimSpace(input) == "" {
		missing = append(missing, "input")
	}
	if strings.TrimSpace(output) == "" {
		missing = append(missing, "output")
	}
	if strings.TrimSpace(filter) == "" {
		missing = append(missing, "filter")
	}
	if len(missing) > 0 {
		return Request{}, fmt.Errorf("%w (missing: %s)", ErrIncomplete, strings.Join(missing, ", "))
	}
	return req, nil
}

// IsZero reports whether no extraction parameters were provided.
func (r Request) IsZero() bool {
	return r.Input == "" && r.Output == "" && r.Filter == ""
}

func (r Request) String() string {
	return fmt.Sprintf("input=%q output=%q filter=%q", r.Input, r.Output, r.Filter)
}
