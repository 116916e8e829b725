package codepage

import (
	"errors"
	"runtime"
	"testing"
)

func TestForCodePageDecodesOEMBytes(t *testing.T) {
	tests := []struct {
		name string
		cp   int
		raw  []byte
		want string
	}{
		{"cp437 box drawing", 437, []byte{0xC9, 0xCD, 0xBB}, "╔═╗"},
		{"cp866 cyrillic", 866, []byte{0x8F, 0xE0, 0xA8, 0xA2, 0xA5, 0xE2}, "Привет"},
		{"cp932 katakana", 932, []byte{0x83, 0x65, 0x83, 0x58, 0x83, 0x67}, "テスト"},
		{"utf-8", 65001, []byte("37% 1 - file.txt"), "37% 1 - file.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := ForCodePage(tt.cp)
			if err != nil {
				t.Fatalf("ForCodePage(%d) returned error: %v", tt.cp, err)
			}
			got, err := cs.Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForCodePageUnknown(t *testing.T) {
	if _, err := ForCodePage(12345); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestUTF8ReplacesInvalidBytes(t *testing.T) {
	got, err := UTF8.Decode([]byte{'a', 0xff, 'b'})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "a�b" {
		t.Fatalf("expected replacement character, got %q", got)
	}
}

func TestForCharsetAcceptsLocaleSpellings(t *testing.T) {
	for _, name := range []string{"UTF-8", "utf8", "Shift_JIS", "ISO-8859-1"} {
		if _, err := ForCharset(name); err != nil {
			t.Fatalf("ForCharset(%q) returned error: %v", name, err)
		}
	}
	if _, err := ForCharset(""); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for empty name, got %v", err)
	}
}

func TestConsoleUsesLocaleCharset(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("windows uses the OEM code page")
	}
	t.Setenv("LC_ALL", "ru_RU.KOI8-R")
	cs := Console()
	got, err := cs.Decode([]byte{0xF0, 0xD2, 0xC9})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "При" {
		t.Fatalf("expected KOI8-R decoding, got %q (charset %s)", got, cs.Name())
	}

	t.Setenv("LC_ALL", "C")
	if Console().Name() != UTF8.Name() {
		t.Fatalf("expected UTF-8 fallback for locale without charset")
	}
}
