// Package env resolves configuration from the process environment.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables honored by cyclus-install. Command-line flags
// take precedence over all of them.
const (
	SrcDir       = "CYCLUS_SRC_DIR"
	BuildDir     = "CYCLUS_BUILD_DIR"
	Prefix       = "CMAKE_INSTALL_PREFIX"
	CoinRoot     = "COIN_ROOT_DIR"
	CycloptsRoot = "CYCLOPTS_ROOT_DIR"
	BoostRoot    = "BOOST_ROOT"
)

// Or returns the value of the environment variable key, or fallback
// when the variable is unset or empty.
func Or(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Abs expands a leading "~" to the current user's home directory and
// resolves path to an absolute path.
func Abs(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// LoadDotEnv loads environment variables from the file at path.
// Missing files are ignored, and variables already present in the
// environment keep their values.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
