package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultArchiver is the 7-Zip command name used when none is configured.
const DefaultArchiver = "7z"

// archiverAliases are the names 7-Zip ships under across packagings: p7zip
// installs 7z and 7za, upstream 7-Zip for Linux installs 7zz.
var archiverAliases = []string{"7zz", "7za"}

// Requirement defines an external dependency q7z relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// ResolveArchiver returns the executable to run for the configured archiver.
// An explicit path or custom name is returned as configured. The default name
// falls back to the other 7-Zip command names when it is not on PATH.
func ResolveArchiver(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		configured = DefaultArchiver
	}
	if configured != DefaultArchiver || filepath.IsAbs(configured) {
		return configured
	}
	if _, err := exec.LookPath(configured); err == nil {
		return configured
	}
	for _, alias := range archiverAliases {
		if _, err := exec.LookPath(alias); err == nil {
			return alias
		}
	}
	return configured
}

// Archiver is the requirement for the configured 7-Zip binary.
func Archiver(configured string) Requirement {
	return Requirement{
		Name:        "7-Zip",
		Command:     ResolveArchiver(configured),
		Description: "Required to extract archives",
	}
}
