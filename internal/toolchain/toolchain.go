// Package toolchain probes the external build tools cyclus-install
// drives: presence on PATH, version detection, minimum version gates,
// and the CMake generator choice on Windows hosts.
package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// A Tool names one required executable and the oldest version the
// install sequence is known to work with.
type Tool struct {
	Name string
	Min  string
}

var (
	CMake = Tool{Name: "cmake", Min: "2.8"}
	Make  = Tool{Name: "make", Min: "3.81"}
)

// A Status is the probe result for one tool.
type Status struct {
	Tool    Tool
	Path    string // resolved location, empty when not found
	Version string // detected version, empty when unknown
	Err     error  // non-nil when the tool is missing or too old
}

// Check locates tool on PATH, detects its version and gates it against
// the tool's minimum. A tool whose version cannot be detected passes
// the gate; only a version known to be older than the minimum fails.
func Check(ctx context.Context, tool Tool) Status {
	st := Status{Tool: tool}

	path, err := exec.LookPath(tool.Name)
	if err != nil {
		st.Err = fmt.Errorf("%s not found on PATH: %w", tool.Name, err)
		return st
	}
	st.Path = path

	st.Version = Version(ctx, tool.Name)
	if !AtLeast(st.Version, tool.Min) {
		st.Err = fmt.Errorf("%s %s is older than the required minimum %s", tool.Name, st.Version, tool.Min)
	}
	return st
}

// Version detects the version of the named tool by running
// "<name> --version" and parsing the first dotted number from its
// output. Best-effort: returns the empty string when the tool is
// unavailable or prints nothing recognizable.
func Version(ctx context.Context, name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}

	// #nosec G204 -- path comes from exec.LookPath, not user input
	cmd := exec.CommandContext(ctx, path, "--version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return parseVersion(string(output))
}

// versionRE matches dotted tool versions: "3.28.3" in
// "cmake version 3.28.3", "4.3" in "GNU Make 4.3".
var versionRE = regexp.MustCompile(`\d+(?:\.\d+)+`)

func parseVersion(output string) string {
	return versionRE.FindString(output)
}

// AtLeast reports whether tool version v satisfies the minimum min.
// Unknown (empty) versions are accepted. Versions are reduced to
// major.minor.patch before comparison, so "2.8.12.2" compares as
// "2.8.12".
func AtLeast(v, min string) bool {
	if v == "" {
		return true
	}
	sv, smin := semverOf(v), semverOf(min)
	if !semver.IsValid(sv) || !semver.IsValid(smin) {
		return true
	}
	return semver.Compare(sv, smin) >= 0
}

func semverOf(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return "v" + strings.Join(parts, ".")
}
