package gnumake

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestJobsArgs(t *testing.T) {
	m := New("build")
	if args := m.jobsArgs(); args != nil {
		t.Errorf("jobsArgs unset = %v, want nil", args)
	}

	m.Jobs(4)
	if args := m.jobsArgs(); len(args) != 1 || args[0] != "-j4" {
		t.Errorf("jobsArgs = %v, want [-j4]", args)
	}

	m.Jobs(0)
	if args := m.jobsArgs(); args != nil {
		t.Errorf("jobsArgs zero = %v, want nil", args)
	}
}

func TestWorkDir(t *testing.T) {
	if got := New("").workDir(); got != "." {
		t.Errorf("workDir empty = %q, want %q", got, ".")
	}
	if got := New("build").workDir(); got != "build" {
		t.Errorf("workDir = %q, want %q", got, "build")
	}
}

func TestShellLine(t *testing.T) {
	got := shellLine("make", []string{"-j4", "install", "arg with space"})
	want := `make -j4 install "arg with space"`
	if got != want {
		t.Errorf("shellLine = %q, want %q", got, want)
	}
}

func TestInstallCommandLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools require a POSIX shell")
	}

	tmp := t.TempDir()
	buildDir := filepath.Join(tmp, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		t.Fatal(err)
	}
	fake := filepath.Join(tmp, "fake-make")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > args.txt\npwd > cwd.txt\n"
	if err := os.WriteFile(fake, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	m := New(buildDir)
	m.Command(fake)
	m.Jobs(4)

	if err := m.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(buildDir, "args.txt"))
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "-j4\ninstall" {
		t.Errorf("recorded args = %q, want -j4 then install", got)
	}

	data, err = os.ReadFile(filepath.Join(buildDir, "cwd.txt"))
	if err != nil {
		t.Fatalf("read recorded cwd: %v", err)
	}
	wantDir, _ := filepath.EvalSymlinks(buildDir)
	if got := strings.TrimSpace(string(data)); got != wantDir {
		t.Errorf("make ran in %q, want build dir %q", got, wantDir)
	}
}

func TestInstallNoJobsCommandLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools require a POSIX shell")
	}

	tmp := t.TempDir()
	buildDir := filepath.Join(tmp, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		t.Fatal(err)
	}
	fake := filepath.Join(tmp, "fake-make")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > args.txt\n"
	if err := os.WriteFile(fake, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	m := New(buildDir)
	m.Command(fake)

	if err := m.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(buildDir, "args.txt"))
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "install" {
		t.Errorf("recorded args = %q, want install only", got)
	}
}

func TestInstallE2E(t *testing.T) {
	if _, err := exec.LookPath("make"); err != nil {
		t.Skip("make not found in PATH")
	}

	buildDir := t.TempDir()
	makefile := "install:\n\ttouch installed.marker\n"
	if err := os.WriteFile(filepath.Join(buildDir, "Makefile"), []byte(makefile), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New(buildDir)
	m.Jobs(2)
	if err := m.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(buildDir, "installed.marker")); err != nil {
		t.Errorf("install target did not run: %v", err)
	}
}
