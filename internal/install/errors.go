package install

import (
	"errors"
	"fmt"
	"os/exec"
)

// FilesystemError reports a failed filesystem operation while
// preparing the build directory.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// ConfigureError reports a build-configuration command that finished
// with a failure.
type ConfigureError struct {
	Cmd string
	Err error
}

func (e *ConfigureError) Error() string {
	return fmt.Sprintf("configure: %s: %v", e.Cmd, e.Err)
}

func (e *ConfigureError) Unwrap() error { return e.Err }

// BuildError reports a build command that finished with a failure.
type BuildError struct {
	Cmd string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build: %s: %v", e.Cmd, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ExitCode maps err to the code the process should exit with: 0 for
// nil, the wrapped tool's own exit code when the chain carries an
// *exec.ExitError, and 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return 1
}
