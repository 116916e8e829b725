package preflight

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"q7z/internal/deps"
	"q7z/internal/instance"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkReadWrite(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArchiver verifies the 7-Zip binary can be found.
func CheckArchiver(configured string) Result {
	status := deps.CheckBinaries([]deps.Requirement{deps.Archiver(configured)})[0]
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: status.Path}
}

// CheckEndpoint resolves the single-instance endpoint and reports whether a
// Primary is listening on it.
func CheckEndpoint(appID string, timeout time.Duration) Result {
	const name = "Endpoint"

	ep, err := instance.ResolveEndpoint(appID)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	conn, err := net.DialTimeout(ep.Network, ep.Address, timeout)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", ep)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (primary running)", ep)}
}

// CheckNtfy polls the topic without publishing to verify it is reachable.
func CheckNtfy(ctx context.Context, topic string, timeout time.Duration) Result {
	const name = "ntfy"

	base := strings.TrimRight(strings.TrimSpace(topic), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing topic"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/json?poll=1", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("poll failed (%v)", err)}
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("poll failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "topic requires authentication"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("poll failed (%d)", resp.StatusCode)}
	}
}
