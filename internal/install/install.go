// Package install implements the cyclus install sequence: prepare a
// build directory, configure it with cmake once, and drive make's
// install target.
package install

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cyclus/installer/internal/env"
	"github.com/cyclus/installer/internal/lockedfile"
	"github.com/cyclus/installer/internal/toolchain"
	"github.com/cyclus/installer/x/cmake"
	"github.com/cyclus/installer/x/gnumake"
)

// buildFile is the generated build file whose presence marks the
// build directory as already configured.
const buildFile = "Makefile"

// Config carries one invocation's worth of install settings.
type Config struct {
	SourceDir    string // native source tree, the positional cmake argument
	BuildDir     string // out-of-source build directory
	Replace      bool   // remove an existing build directory first
	Threads      int    // make -j parallelism, 0 leaves it to make
	Prefix       string // CMAKE_INSTALL_PREFIX
	CoinRoot     string // COIN_ROOT_DIR
	CycloptsRoot string // CYCLOPTS_ROOT_DIR
	BoostRoot    string // BOOST_ROOT
}

// An Installer runs the install sequence for one Config.
type Installer struct {
	cfg      Config
	cmakeCmd string
	makeCmd  string
}

// Option configures an Installer.
type Option func(*Installer)

// WithCMake overrides the cmake executable.
func WithCMake(path string) Option {
	return func(i *Installer) { i.cmakeCmd = path }
}

// WithMake overrides the make executable.
func WithMake(path string) Option {
	return func(i *Installer) { i.makeCmd = path }
}

// New returns an Installer for cfg with every path resolved to
// absolute form, "~" expanded.
func New(cfg Config, opts ...Option) (*Installer, error) {
	if cfg.SourceDir == "" || cfg.BuildDir == "" {
		return nil, errors.New("install: source and build directories are required")
	}

	var err error
	if cfg.SourceDir, err = env.Abs(cfg.SourceDir); err != nil {
		return nil, err
	}
	if cfg.BuildDir, err = env.Abs(cfg.BuildDir); err != nil {
		return nil, err
	}
	for _, p := range []*string{&cfg.Prefix, &cfg.CoinRoot, &cfg.CycloptsRoot, &cfg.BoostRoot} {
		if *p == "" {
			continue
		}
		if *p, err = env.Abs(*p); err != nil {
			return nil, err
		}
	}

	i := &Installer{cfg: cfg, cmakeCmd: "cmake", makeCmd: "make"}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// BuildDir returns the resolved build directory.
func (i *Installer) BuildDir() string { return i.cfg.BuildDir }

// Run executes the full sequence: prepare the build directory,
// configure it when needed, then build and install. An advisory file
// lock beside the build directory is held for the whole sequence so
// concurrent runs cannot interleave directory replacement with a
// running build.
func (i *Installer) Run(ctx context.Context) error {
	unlock, err := i.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := i.PrepareBuildDir(); err != nil {
		return err
	}
	if err := i.ConfigureIfNeeded(ctx); err != nil {
		return err
	}
	if err := i.BuildAndInstall(ctx); err != nil {
		return err
	}

	if err := i.writeReceipt(time.Now()); err != nil {
		slog.Warn("Could not write install receipt", "error", err)
	}
	return nil
}

// PrepareBuildDir creates the build directory, replacing an existing
// one when Replace is set.
func (i *Installer) PrepareBuildDir() error {
	dir := i.cfg.BuildDir
	if _, err := os.Stat(dir); err == nil {
		if !i.cfg.Replace {
			return nil
		}
		slog.Debug("Removing existing build directory", "build_dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return &FilesystemError{Op: "remove", Path: dir, Err: err}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &FilesystemError{Op: "stat", Path: dir, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FilesystemError{Op: "create", Path: dir, Err: err}
	}
	return nil
}

// ConfigureIfNeeded runs cmake on the source directory unless the
// build directory already holds a build file from an earlier
// configure run.
func (i *Installer) ConfigureIfNeeded(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(i.cfg.BuildDir, buildFile)); err == nil {
		slog.Info("Build directory already configured, skipping", "build_dir", i.cfg.BuildDir)
		return nil
	}

	cm := cmake.New(i.cfg.SourceDir, i.cfg.BuildDir)
	cm.Command(i.cmakeCmd)
	for key, value := range i.defines() {
		cm.Define(key, value)
	}
	if g := i.generator(); g != "" {
		cm.Generator(g)
	}

	slog.Info("Configuring", "source", i.cfg.SourceDir, "build_dir", i.cfg.BuildDir)
	if err := cm.Configure(ctx); err != nil {
		return &ConfigureError{Cmd: i.cmakeCmd, Err: err}
	}
	return nil
}

// BuildAndInstall runs make's install target in the build directory.
func (i *Installer) BuildAndInstall(ctx context.Context) error {
	mk := gnumake.New(i.cfg.BuildDir)
	mk.Command(i.makeCmd)
	mk.Jobs(i.cfg.Threads)

	slog.Info("Building and installing", "build_dir", i.cfg.BuildDir, "threads", i.cfg.Threads)
	if err := mk.Install(ctx); err != nil {
		return &BuildError{Cmd: i.makeCmd, Err: err}
	}
	return nil
}

// defines returns the cmake cache entries for every optional path
// that was supplied, one entry per path.
func (i *Installer) defines() map[string]string {
	d := make(map[string]string)
	if i.cfg.Prefix != "" {
		d["CMAKE_INSTALL_PREFIX"] = i.cfg.Prefix
	}
	if i.cfg.CoinRoot != "" {
		d["COIN_ROOT_DIR"] = i.cfg.CoinRoot
	}
	if i.cfg.CycloptsRoot != "" {
		d["CYCLOPTS_ROOT_DIR"] = i.cfg.CycloptsRoot
	}
	if i.cfg.BoostRoot != "" {
		d["BOOST_ROOT"] = i.cfg.BoostRoot
	}
	return d
}

// generator returns the CMake generator to request, chosen from the
// toolchains visible on PATH. Only Windows hosts ever need one.
func (i *Installer) generator() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	return toolchain.Generator(os.Getenv("PATH"))
}

// lock acquires the advisory lock guarding the build directory. The
// lock file sits beside the directory, not inside it: replacing the
// build directory must not delete a held lock.
func (i *Installer) lock() (unlock func(), err error) {
	lockFile := i.cfg.BuildDir + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockFile), 0o755); err != nil {
		return nil, &FilesystemError{Op: "create", Path: filepath.Dir(lockFile), Err: err}
	}
	return lockedfile.MutexAt(lockFile).Lock()
}
