package internal

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cyclus/installer/internal/toolchain"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the required build tools are usable",
		Long: `Doctor verifies that cmake and make are on PATH and new enough for the
Cyclus build, and reports the versions it found.`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	failed := false

	for _, tool := range []toolchain.Tool{toolchain.CMake, toolchain.Make} {
		st := toolchain.Check(ctx, tool)
		if st.Err != nil {
			failed = true
			fmt.Fprintf(cmd.ErrOrStderr(), "not ok: %v\n", st.Err)
			continue
		}
		version := st.Version
		if version == "" {
			version = "unknown version"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s %s at %s\n", st.Tool.Name, version, st.Path)
	}

	if runtime.GOOS == "windows" {
		generator := toolchain.Generator(os.Getenv("PATH"))
		if generator == "" {
			generator = "(default)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cmake generator: %s\n", generator)
	}

	if failed {
		return errors.New("toolchain is not ready")
	}
	return nil
}
