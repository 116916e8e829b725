package codepage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnsupported reports a code page or charset with no available decoder.
var ErrUnsupported = errors.New("unsupported console encoding")

// Decoder turns raw console bytes into text.
type Decoder interface {
	Decode(raw []byte) (string, error)
}

// Charset is a named console encoding.
type Charset struct {
	name string
	enc  encoding.Encoding
}

// UTF8 decodes UTF-8, replacing invalid sequences with U+FFFD.
var UTF8 = Charset{name: "utf-8", enc: unicode.UTF8}

var codePages = map[int]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	20866: charmap.KOI8R,
	21866: charmap.KOI8U,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28605: charmap.ISO8859_15,
	54936: simplifiedchinese.GB18030,
	65001: unicode.UTF8,
}

// ForCodePage returns the charset for a Windows code page identifier.
func ForCodePage(cp int) (Charset, error) {
	enc, ok := codePages[cp]
	if !ok {
		return Charset{}, fmt.Errorf("%w: code page %d", ErrUnsupported, cp)
	}
	return Charset{name: fmt.Sprintf("cp%d", cp), enc: enc}, nil
}

// ForCharset returns the charset for an IANA name such as "Shift_JIS" or "UTF-8".
func ForCharset(name string) (Charset, error) {
	trimmed := strings.TrimSpace(name)
	switch strings.ReplaceAll(strings.ToLower(trimmed), "-", "") {
	case "":
		return Charset{}, fmt.Errorf("%w: empty charset name", ErrUnsupported)
	case "utf8":
		return UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(trimmed)
	if err != nil {
		return Charset{}, fmt.Errorf("%w: %s: %v", ErrUnsupported, trimmed, err)
	}
	if enc == nil {
		return Charset{}, fmt.Errorf("%w: %s", ErrUnsupported, trimmed)
	}
	return Charset{name: strings.ToLower(trimmed), enc: enc}, nil
}

// Console returns the encoding used by console programs on this host.
// It falls back to UTF-8 when the platform encoding cannot be determined.
func Console() Charset {
	return consoleCharset()
}

// Name returns the charset label.
func (c Charset) Name() string {
	if c.name == "" {
		return UTF8.name
	}
	return c.name
}

// Decode converts raw bytes to a string. Undecodable bytes become U+FFFD.
func (c Charset) Decode(raw []byte) (string, error) {
	enc := c.enc
	if enc == nil {
		enc = unicode.UTF8
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	return string(out), nil
}

// localeCharset extracts the charset part of a POSIX locale, e.g.
// "ja_JP.eucJP@euro" yields "eucJP".
func localeCharset() string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		if idx := strings.IndexByte(value, '@'); idx >= 0 {
			value = value[:idx]
		}
		if idx := strings.IndexByte(value, '.'); idx >= 0 {
			return value[idx+1:]
		}
		return ""
	}
	return ""
}
