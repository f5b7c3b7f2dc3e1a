package internal

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyclus/installer/internal/env"
	"github.com/cyclus/installer/internal/install"
)

// installOptions holds the root command's flag values.
type installOptions struct {
	srcDir       string
	buildDir     string
	replace      bool
	threads      int
	prefix       string
	coinRoot     string
	cycloptsRoot string
	boostRoot    string
}

func newRootCmd() *cobra.Command {
	opts := &installOptions{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "cyclus-install",
		Short: "cyclus-install compiles and installs Cyclus from source",
		Long: `cyclus-install prepares an out-of-source build directory for the Cyclus
simulator, configures it with cmake once, and runs make's install
target. A build directory that already holds a Makefile is reused
without reconfiguring.

Unset flags fall back to the CYCLUS_SRC_DIR, CYCLUS_BUILD_DIR,
CMAKE_INSTALL_PREFIX, COIN_ROOT_DIR, CYCLOPTS_ROOT_DIR and BOOST_ROOT
environment variables. A .env file in the working directory is loaded
first, without overriding variables that are already set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)
			return env.LoadDotEnv(".env")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyEnvDefaults(cmd)
			return opts.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.srcDir, "src", "src", "path to the Cyclus source tree")
	flags.StringVar(&opts.buildDir, "build_dir", "build", "where to perform the build")
	flags.BoolVar(&opts.replace, "replace", true,
		"remove an existing build directory and start over; pass --replace=false to reuse it")
	flags.IntVarP(&opts.threads, "threads", "j", 0, "number of parallel jobs for the make step")
	flags.StringVar(&opts.prefix, "prefix", "", "installation prefix (CMAKE_INSTALL_PREFIX)")
	flags.StringVar(&opts.coinRoot, "coin_root", "", "path to the COIN-OR libraries (COIN_ROOT_DIR)")
	flags.StringVar(&opts.cycloptsRoot, "cyclopts_root", "", "path to the Cyclopts installation (CYCLOPTS_ROOT_DIR)")
	flags.StringVar(&opts.boostRoot, "boost_root", "", "path to the Boost libraries (BOOST_ROOT)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newDoctorCmd())
	return cmd
}

// applyEnvDefaults fills flags the user did not set from the
// corresponding environment variables.
func (o *installOptions) applyEnvDefaults(cmd *cobra.Command) {
	fromEnv := func(name, key string, target *string) {
		if !cmd.Flags().Changed(name) {
			*target = env.Or(key, *target)
		}
	}
	fromEnv("src", env.SrcDir, &o.srcDir)
	fromEnv("build_dir", env.BuildDir, &o.buildDir)
	fromEnv("prefix", env.Prefix, &o.prefix)
	fromEnv("coin_root", env.CoinRoot, &o.coinRoot)
	fromEnv("cyclopts_root", env.CycloptsRoot, &o.cycloptsRoot)
	fromEnv("boost_root", env.BoostRoot, &o.boostRoot)
}

func (o *installOptions) run(cmd *cobra.Command) error {
	ins, err := install.New(install.Config{
		SourceDir:    o.srcDir,
		BuildDir:     o.buildDir,
		Replace:      o.replace,
		Threads:      o.threads,
		Prefix:       o.prefix,
		CoinRoot:     o.coinRoot,
		CycloptsRoot: o.cycloptsRoot,
		BoostRoot:    o.boostRoot,
	})
	if err != nil {
		return err
	}

	if r, err := install.LoadReceipt(ins.BuildDir()); err == nil {
		slog.Debug("Found receipt of an earlier install", "time", r.InstallTime, "source", r.SourceDir)
	}

	return ins.Run(cmd.Context())
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// Execute runs the root command. It is called by main.main(). When a
// wrapped tool fails, the process exits with that tool's own code.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(install.ExitCode(err))
	}
}
