// Package cli implements the crudgen command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/crudgen/pkg/config"
	"github.com/getmockd/crudgen/pkg/logging"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	jsonOutput bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "crudgen",
		Short: "crudgen serves RESTful CRUD endpoints generated from a resource configuration",
		Long: `crudgen generates the five RESTful routes (list, create, get, update, delete)
for every configured resource chain and serves them from an in-memory or SQL store.

Nested chains such as [person, child] produce routes like
/people/:person_id/children/:id and can be scoped through a has-many relation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Path to configuration file (YAML or JSON)")
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newServeCmd(g),
		newRoutesCmd(g),
		newOpenAPICmd(g),
		newValidateCmd(g),
		newInitCmd(),
		newVersionCmd(g),
	)
	return root
}

// Run executes the root command with os.Args and returns the process exit code.
func Run() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// loadConfig reads the --config file, or returns the defaults with the
// environment applied when no file is given.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	if g.configFile == "" {
		cfg := config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}
	return config.Load(g.configFile)
}

// newLogger builds the logger for cfg. A log file receives a JSON copy of
// every record at debug level.
func newLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, func() error, error) {
	console := logging.FromStrings(cfg.Level, cfg.Format)
	console.Output = stderr
	if cfg.File == "" {
		return logging.New(console), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logging.Config{Level: logging.LevelDebug, Format: logging.FormatJSON, Output: f}
	return logging.Tee(console, file), f.Close, nil
}
