package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// sevenZipSignature is the six-byte header every 7z archive starts with.
var sevenZipSignature = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}

// WriteArchive creates a file at path that starts with a 7z signature and
// pads it to size bytes. The content is not a valid archive.
func WriteArchive(t testing.TB, path string, size int) {
	t.Helper()
	if size < len(sevenZipSignature) {
		size = 32
	}
	data := make([]byte, size)
	copy(data, sevenZipSignature)
	for i := len(sevenZipSignature); i < size; i++ {
		data[i] = 0x42
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// StubArchiver writes an executable into dir that prints stdout verbatim,
// records its arguments one per line in "<script>.args", and exits with
// exitCode.
func StubArchiver(t testing.TB, dir, stdout string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub archiver requires a POSIX shell")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, "7z-stub")
	payload := filepath.Join(dir, "7z-stub.out")
	if err := os.WriteFile(payload, []byte(stdout), 0o644); err != nil {
		t.Fatalf("write stub payload: %v", err)
	}
	script := fmt.Sprintf("#!/bin/sh\nfor a in \"$@\"; do printf '%%s\\n' \"$a\"; done > %s\ncat %s\nexit %d\n",
		shellQuote(path+".args"), shellQuote(payload), exitCode)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub archiver: %v", err)
	}
	return path
}

// StubArgs returns the arguments the stub archiver at path last received.
func StubArgs(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path + ".args")
	if err != nil {
		t.Fatalf("read stub args: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
