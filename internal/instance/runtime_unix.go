//go:build unix && !linux

package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// runtimeDir prefers XDG_RUNTIME_DIR and falls back to a per-uid directory
// under the system temp dir.
func runtimeDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); dir != "" {
		return dir, nil
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("q7z-%d", unix.Getuid())), nil
}
