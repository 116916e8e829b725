//go:build !linux

package instance

import (
	"fmt"
	"os"
)

func platformEndpoint(name string) (Endpoint, error) {
	dir, err := runtimeDir()
	if err != nil {
		return Endpoint{}, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Endpoint{}, fmt.Errorf("create runtime directory: %w", err)
	}
	return fileEndpoint(dir, name)
}
