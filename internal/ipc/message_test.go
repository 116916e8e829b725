package ipc_test

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"

	"q7z/internal/extract"
	"q7z/internal/ipc"
)

func TestEncodeWireFormat(t *testing.T) {
	frame, err := ipc.Encode(extract.Request{Input: `C:\a.7z`, Output: `D:\out`, Filter: "*.txt"})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	want := "C:\\a.7z\x00D:\\out\x00*.txt\n"
	if string(frame) != want {
		t.Fatalf("Encode = %q, want %q", frame, want)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []extract.Request{
		{Input: "a.7z", Output: "out", Filter: "*"},
		{Input: "/tmp/with space/ä.zip", Output: "/tmp/目的地", Filter: "-x!*.bak"},
		{Input: "", Output: "", Filter: ""},
		{Input: "x", Output: "", Filter: "\r\t"},
	}
	for _, req := range tests {
		frame, err := ipc.Encode(req)
		if err != nil {
			t.Fatalf("Encode(%v) returned error: %v", req, err)
		}
		got, err := ipc.Decode(frame)
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if got != req {
			t.Fatalf("round trip = %v, want %v", got, req)
		}
	}
}

func TestRoundTripProperty(t *testing.T) {
	clean := func(s string) string {
		return strings.NewReplacer("\x00", "", "\n", "").Replace(s)
	}
	prop := func(in, out, filter string) bool {
		req := extract.Request{Input: clean(in), Output: clean(out), Filter: clean(filter)}
		frame, err := ipc.Encode(req)
		if err != nil {
			return false
		}
		got, err := ipc.Decode(frame)
		return err == nil && got == req
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Fatal(err)
	}
}

func TestEncodeRejectsReservedBytes(t *testing.T) {
	for _, req := range []extract.Request{
		{Input: "a\x00b", Output: "o", Filter: "f"},
		{Input: "a", Output: "o\n", Filter: "f"},
	} {
		if _, err := ipc.Encode(req); !errors.Is(err, ipc.ErrInvalidField) {
			t.Fatalf("expected ErrInvalidField for %v, got %v", req, err)
		}
	}
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	tests := map[string]string{
		"two fields":  "a\x00b\n",
		"four fields": "a\x00b\x00c\x00d\n",
		"no newline":  "a\x00b\x00c",
		"empty":       "",
	}
	for name, frame := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ipc.Decode([]byte(frame)); !errors.Is(err, ipc.ErrMalformedMessage) {
				t.Fatalf("expected ErrMalformedMessage, got %v", err)
			}
		})
	}
}
