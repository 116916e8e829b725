package instance

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// maxSocketPath stays below the smallest sun_path size in common use.
const maxSocketPath = 104

var (
	// ErrInvalidAppID reports an application id that cannot name an endpoint.
	ErrInvalidAppID = errors.New("invalid application id")

	appIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Endpoint names the local socket a Primary listens on.
type Endpoint struct {
	// Name is the logical endpoint name, "<appID>_ipc".
	Name    string
	Network string
	Address string
	// LockPath guards file endpoints; empty for abstract sockets.
	LockPath string
}

// ResolveEndpoint derives the platform endpoint for appID.
func ResolveEndpoint(appID string) (Endpoint, error) {
	name, err := endpointName(appID)
	if err != nil {
		return Endpoint{}, err
	}
	return platformEndpoint(name)
}

// FileEndpoint places a socket file and its lock inside dir.
func FileEndpoint(dir, appID string) (Endpoint, error) {
	name, err := endpointName(appID)
	if err != nil {
		return Endpoint{}, err
	}
	return fileEndpoint(dir, name)
}

func fileEndpoint(dir, name string) (Endpoint, error) {
	if strings.TrimSpace(dir) == "" {
		return Endpoint{}, errors.New("endpoint directory required")
	}
	address := filepath.Join(dir, name+".sock")
	if len(address) > maxSocketPath {
		return Endpoint{}, fmt.Errorf("%w: socket path %q exceeds %d bytes", ErrInvalidAppID, address, maxSocketPath)
	}
	return Endpoint{
		Name:     name,
		Network:  "unix",
		Address:  address,
		LockPath: filepath.Join(dir, name+".lock"),
	}, nil
}

func endpointName(appID string) (string, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAppID)
	}
	if !appIDPattern.MatchString(appID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAppID, appID)
	}
	return appID + "_ipc", nil
}

func (e Endpoint) String() string {
	return e.Network + ":" + e.Address
}
