// Package gnumake wraps make invocations of an already-configured
// build directory.
package gnumake

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Make drives make targets inside a build directory.
type Make struct {
	cmd      string
	buildDir string
	jobs     int
}

// New returns a ready-to-use Make running inside buildDir.
func New(buildDir string) *Make {
	return &Make{cmd: "make", buildDir: buildDir}
}

// Command overrides the make executable.
func (m *Make) Command(path string) { m.cmd = path }

// Jobs sets the -j parallelism. Zero or less leaves the flag off.
func (m *Make) Jobs(n int) { m.jobs = n }

// Build runs make with optional extra arguments.
func (m *Make) Build(ctx context.Context, args ...string) error {
	return m.run(ctx, append(m.jobsArgs(), args...))
}

// Install runs "make install" with optional extra arguments appended.
func (m *Make) Install(ctx context.Context, args ...string) error {
	return m.run(ctx, append(append(m.jobsArgs(), "install"), args...))
}

func (m *Make) jobsArgs() []string {
	if m.jobs > 0 {
		return []string{"-j" + strconv.Itoa(m.jobs)}
	}
	return nil
}

func (m *Make) workDir() string {
	if m.buildDir == "" {
		return "."
	}
	return m.buildDir
}

func (m *Make) run(ctx context.Context, args []string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/c", shellLine(m.cmd, args))
	} else {
		cmd = exec.CommandContext(ctx, m.cmd, args...)
	}
	cmd.Dir = m.workDir()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// shellLine joins a command and its arguments into one line for
// cmd.exe, quoting arguments that contain whitespace.
func shellLine(name string, args []string) string {
	parts := make([]string, 0, 1+len(args))
	for _, a := range append([]string{name}, args...) {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
