package progress

import (
	"bufio"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"q7z/internal/codepage"
)

// MaxChunkSize bounds the raw buffer; a chunk this large without a carriage
// return is flushed as if one had been seen.
const MaxChunkSize = 64 * 1024

var percentPattern = regexp.MustCompile(`^[\s\p{Zs}]*(\d+)%`)

// Line is one decoded chunk of archiver output.
type Line struct {
	// Text is the decoded chunk with leading LFs and trailing CRs removed.
	Text string
	// LeadingLF is set when the decoded chunk started with a line feed.
	LeadingLF bool
	// Percent holds the matched digit run, or "" when the line is not a progress line.
	Percent string
	// File is the entry name printed after the percentage, if any.
	File string
}

// HasPercent reports whether the line carried a progress percentage.
func (l Line) HasPercent() bool {
	return l.Percent != ""
}

// Extractor reads '\r'-framed chunks from an output stream. It owns its raw
// buffer, which is reused for every chunk.
type Extractor struct {
	r   *bufio.Reader
	dec codepage.Decoder
	buf []byte

	skipped int
}

// NewExtractor wraps r. A nil decoder decodes as UTF-8.
func NewExtractor(r io.Reader, dec codepage.Decoder) *Extractor {
	if dec == nil {
		dec = codepage.UTF8
	}
	return &Extractor{
		r:   bufio.NewReader(r),
		dec: dec,
		buf: make([]byte, 0, 512),
	}
}

// Next returns the next decoded line. It returns io.EOF once the stream ends
// with nothing accumulated since the previous line. Chunks the decoder
// rejects are skipped.
func (e *Extractor) Next() (Line, error) {
	for {
		readErr := e.accumulate()
		if len(e.buf) == 0 {
			if readErr == nil || errors.Is(readErr, io.EOF) {
				return Line{}, io.EOF
			}
			return Line{}, readErr
		}
		line, err := e.flush()
		if err != nil {
			e.skipped++
			continue
		}
		return line, nil
	}
}

// Skipped reports how many chunks were dropped because they failed to decode.
func (e *Extractor) Skipped() int {
	return e.skipped
}

// accumulate appends to the raw buffer until a carriage return, the chunk
// bound, or the end of the stream.
func (e *Extractor) accumulate() error {
	for {
		chunk, err := e.r.ReadSlice('\r')
		e.buf = append(e.buf, chunk...)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			if len(e.buf) >= MaxChunkSize {
				return nil
			}
		default:
			return err
		}
	}
}

func (e *Extractor) flush() (Line, error) {
	defer func() { e.buf = e.buf[:0] }()
	text, err := e.dec.Decode(e.buf)
	if err != nil {
		return Line{}, err
	}
	return Parse(text), nil
}

// Parse interprets one decoded chunk. Backspaces used by some archiver builds
// to erase the previous indicator are removed along with the LF/CR framing.
func Parse(raw string) Line {
	line := Line{LeadingLF: strings.HasPrefix(raw, "\n")}
	text := strings.TrimLeft(raw, "\n")
	text = strings.TrimRight(text, "\r")
	text = strings.Trim(text, "\b")
	line.Text = text

	loc := percentPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return line
	}
	line.Percent = text[loc[2]:loc[3]]
	line.File = entryName(text[loc[1]:])
	return line
}

// entryName extracts "name" from the tail of a progress line such as
// " 12 - dir/name".
func entryName(tail string) string {
	tail = strings.TrimSpace(tail)
	tail = strings.TrimLeft(tail, "0123456789")
	tail = strings.TrimSpace(tail)
	if len(tail) >= 2 && tail[1] == ' ' && strings.ContainsRune("-+U", rune(tail[0])) {
		return strings.TrimSpace(tail[2:])
	}
	return ""
}

// Scan drives an Extractor over r until end of stream, calling fn for every
// line. It returns how many chunks the decoder rejected, even on error.
func Scan(ctx context.Context, r io.Reader, dec codepage.Decoder, fn func(Line)) (int, error) {
	ex := NewExtractor(r, dec)
	for {
		if err := ctx.Err(); err != nil {
			return ex.Skipped(), err
		}
		line, err := ex.Next()
		if errors.Is(err, io.EOF) {
			return ex.Skipped(), nil
		}
		if err != nil {
			return ex.Skipped(), err
		}
		if fn != nil {
			fn(line)
		}
	}
}
