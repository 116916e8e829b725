package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"q7z/internal/extract"
)

const (
	fieldSeparator  = 0x00
	frameTerminator = '\n'
	fieldCount      = 3
)

// MaxMessageSize bounds a single frame, terminator included.
const MaxMessageSize = 64 * 1024

var (
	// ErrMalformedMessage reports a frame that does not hold exactly three fields.
	ErrMalformedMessage = errors.New("malformed ipc message")
	// ErrInvalidField reports a field containing a NUL or LF byte.
	ErrInvalidField = errors.New("ipc field contains a reserved byte")
	// ErrMessageTooLarge reports a frame exceeding MaxMessageSize.
	ErrMessageTooLarge = errors.New("ipc message too large")
)

// Encode frames req for the wire. Fields may not contain NUL or LF.
func Encode(req extract.Request) ([]byte, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"input", req.Input},
		{"output", req.Output},
		{"filter", req.Filter},
	}
	size := 1
	for _, f := range fields {
		if strings.ContainsAny(f.value, "\x00\n") {
			return nil, fmt.Errorf("%w: %s", ErrInvalidField, f.name)
		}
		size += len(f.value) + 1
	}
	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}

	buf := make([]byte, 0, size)
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, fieldSeparator)
		}
		buf = append(buf, f.value...)
	}
	return append(buf, frameTerminator), nil
}

// Decode parses one frame, which must end with the LF terminator.
func Decode(frame []byte) (extract.Request, error) {
	if len(frame) > MaxMessageSize {
		return extract.Request{}, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(frame))
	}
	body, ok := bytes.CutSuffix(frame, []byte{frameTerminator})
	if !ok {
		return extract.Request{}, fmt.Errorf("%w: missing terminator", ErrMalformedMessage)
	}
	parts := bytes.Split(body, []byte{fieldSeparator})
	if len(parts) != fieldCount {
		return extract.Request{}, fmt.Errorf("%w: %d fields", ErrMalformedMessage, len(parts))
	}
	return extract.Request{
		Input:  string(parts[0]),
		Output: string(parts[1]),
		Filter: string(parts[2]),
	}, nil
}
