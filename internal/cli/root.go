// Package cli implements the qbay command line: serve the API, register an
// account from a terminal, and print the build version.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/qbay/internal/config"
)

// version is overridden at build time with
// -ldflags "-X github.com/sakif/qbay/internal/cli.version=1.2.3".
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "qbay",
	Short:         "qbay marketplace server",
	Long:          "qbay runs a small marketplace API where users register, log in, and create and update product listings.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
}

// Execute runs the root command. main exits non-zero when it returns an
// error.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads the layered config and then applies the --db flag, which
// several commands share.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
		cfg.Database.Path = f.Value.String()
	}
	return cfg, nil
}

// ensureDBDir creates the directory holding the database file, like
// mkdir -p. In-memory databases need nothing.
func ensureDBDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
