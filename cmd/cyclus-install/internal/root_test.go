package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclus/installer/internal/env"
	"github.com/cyclus/installer/internal/install"
)

// writeFakeTool places an executable script named name in dir. When
// run, it records its argv to <name>.args in its working directory
// and exits with code.
func writeFakeTool(t *testing.T, dir, name string, code int) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > " + name + ".args\n" +
		"exit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
}

// setupFakeTools prepends fake cmake and make executables to PATH and
// clears the environment variables the root command reads.
func setupFakeTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools require a POSIX shell")
	}
	dir := t.TempDir()
	writeFakeTool(t, dir, "cmake", 0)
	writeFakeTool(t, dir, "make", 0)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	for _, key := range []string{
		env.SrcDir, env.BuildDir, env.Prefix,
		env.CoinRoot, env.CycloptsRoot, env.BoostRoot,
	} {
		t.Setenv(key, "")
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// chdir makes dir the working directory until the test ends, then
// restores the previous one. Stand-in for testing.T.Chdir, which
// needs Go 1.24 while this module builds with Go 1.21.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}

func TestRootInstallFlow(t *testing.T) {
	setupFakeTools(t)
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.MkdirAll("src", 0o755))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--build_dir", "build", "-j", "2", "--prefix", "/opt/cyclus"})
	require.NoError(t, cmd.Execute())

	args := readLines(t, filepath.Join(work, "build", "cmake.args"))
	wantSrc, err := filepath.Abs("src")
	require.NoError(t, err)
	assert.Equal(t, wantSrc, args[0])
	assert.Contains(t, args, "-DCMAKE_INSTALL_PREFIX=/opt/cyclus")

	makeArgs := readLines(t, filepath.Join(work, "build", "make.args"))
	assert.Equal(t, []string{"-j2", "install"}, makeArgs)
}

func TestRootSkipsConfigureOnConfiguredDir(t *testing.T) {
	setupFakeTools(t)
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.MkdirAll("src", 0o755))
	require.NoError(t, os.MkdirAll("build", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("build", "Makefile"), []byte("all:"), 0o644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--replace=false"})
	require.NoError(t, cmd.Execute())

	assert.NoFileExists(t, filepath.Join(work, "build", "cmake.args"))
	assert.FileExists(t, filepath.Join(work, "build", "make.args"))
}

func TestRootEnvFallback(t *testing.T) {
	setupFakeTools(t)
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.MkdirAll("tree", 0o755))
	t.Setenv(env.SrcDir, "tree")
	t.Setenv(env.BuildDir, "bdir")
	t.Setenv(env.BoostRoot, "/opt/boost")

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	args := readLines(t, filepath.Join(work, "bdir", "cmake.args"))
	wantSrc, err := filepath.Abs("tree")
	require.NoError(t, err)
	assert.Equal(t, wantSrc, args[0])
	assert.Contains(t, args, "-DBOOST_ROOT=/opt/boost")
}

func TestRootFlagBeatsEnv(t *testing.T) {
	setupFakeTools(t)
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.MkdirAll("src", 0o755))
	t.Setenv(env.BuildDir, "envbuild")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--build_dir", "flagbuild"})
	require.NoError(t, cmd.Execute())

	assert.DirExists(t, filepath.Join(work, "flagbuild"))
	assert.NoDirExists(t, filepath.Join(work, "envbuild"))
}

func TestRootDotEnv(t *testing.T) {
	setupFakeTools(t)
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.MkdirAll("src", 0o755))
	require.NoError(t, os.WriteFile(".env", []byte("CYCLUS_BUILD_DIR=dotenvbuild\n"), 0o644))

	// setupFakeTools left the variable empty; drop it entirely so the
	// .env value is picked up.
	os.Unsetenv(env.BuildDir)

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.DirExists(t, filepath.Join(work, "dotenvbuild"))
}

func TestRootToolFailureExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools require a POSIX shell")
	}
	dir := t.TempDir()
	writeFakeTool(t, dir, "cmake", 5)
	writeFakeTool(t, dir, "make", 0)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	for _, key := range []string{
		env.SrcDir, env.BuildDir, env.Prefix,
		env.CoinRoot, env.CycloptsRoot, env.BoostRoot,
	} {
		t.Setenv(key, "")
	}
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.MkdirAll("src", 0o755))

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()

	var confErr *install.ConfigureError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, 5, install.ExitCode(err))
}

func TestRootRejectsPositionalArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"unexpected"})
	assert.Error(t, cmd.Execute())
}
