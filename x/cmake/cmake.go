// Package cmake wraps the cmake configure step of a CMake-based build.
package cmake

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// CMake composes a single cmake configuration of a source tree inside
// a build directory. cmake runs with the build directory as its
// working directory and receives the absolute source directory as its
// positional argument.
type CMake struct {
	cmd       string
	sourceDir string
	buildDir  string
	generator string
	defines   map[string]string
}

// New returns a ready-to-use CMake configuring sourceDir into buildDir.
func New(sourceDir, buildDir string) *CMake {
	return &CMake{
		cmd:       "cmake",
		sourceDir: sourceDir,
		buildDir:  buildDir,
		defines:   make(map[string]string),
	}
}

// Command overrides the cmake executable.
func (c *CMake) Command(path string) { c.cmd = path }

// Source overrides the source directory.
func (c *CMake) Source(dir string) { c.sourceDir = dir }

// Generator sets the CMake generator (e.g. "MSYS Makefiles").
func (c *CMake) Generator(name string) { c.generator = name }

// Define adds a -D<key>=<value> cache entry.
func (c *CMake) Define(key, value string) { c.defines[key] = value }

// Configure runs cmake on the source directory with all configured
// options. Extra args are appended at the end. The command's output
// streams to the caller's stdout and stderr.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs, err := c.args()
	if err != nil {
		return err
	}
	return c.run(ctx, append(cmakeArgs, args...))
}

// args composes the cmake argument vector: the absolute source
// directory, the -D entries in sorted order, then the generator flag.
func (c *CMake) args() ([]string, error) {
	sourceDir, err := filepath.Abs(c.sourceDir)
	if err != nil {
		return nil, err
	}
	args := append([]string{sourceDir}, c.definesArgs()...)
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	return args, nil
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+"="+c.defines[k])
	}
	return args
}

func (c *CMake) run(ctx context.Context, args []string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/c", shellLine(c.cmd, args))
	} else {
		cmd = exec.CommandContext(ctx, c.cmd, args...)
	}
	cmd.Dir = c.buildDir
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
