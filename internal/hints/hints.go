// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser start errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	remote := os.Getenv("HTML2PDF_REMOTE_URL")
	if remote != "" {
		hints = append(hints, "check that a browser is listening at "+remote)
		return formatHints(hints)
	}

	// Rod cannot download Chromium in most images; a sidecar is simpler.
	if inCI || IsInContainer() {
		hints = append(hints, "install chromium in the image or set HTML2PDF_REMOTE_URL to a browser sidecar")
	}

	if os.Getenv("HTML2PDF_BROWSER_BIN") == "" {
		hints = append(hints, "set HTML2PDF_BROWSER_BIN to use a custom Chrome")
	}

	hints = append(hints, "run 'html2pdf doctor' to check the setup")
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow documents.
func ForTimeout() string {
	return format("for slow or large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-html2pdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-html2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForBackend returns hints for an unknown browser backend.
func ForBackend(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available backends: " + strings.Join(available, ", "))
}

// ForInvalidOption returns hints for malformed page options.
func ForInvalidOption() string {
	return format(`margins take "in", "mm" or "cm" (e.g. 1in, 20mm); scale must be positive`)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
