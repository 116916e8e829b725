//go:build windows

package instance

import (
	"fmt"
	"os"
	"path/filepath"
)

func runtimeDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve runtime directory: %w", err)
	}
	return filepath.Join(base, "q7z", "run"), nil
}
