// Package cli implements the incidentctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartcity/incidentmap/internal/config"
	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/logging"
	"github.com/smartcity/incidentmap/internal/repository"
)

// Version is injected at build time
var Version = "dev"

type cliContextKey struct{}

// RootOptions holds global flags; empty values keep the configured setting
type RootOptions struct {
	Driver     string
	SQLitePath string
	LogLevel   string
}

// CLIContext carries initialized dependencies through the command tree
type CLIContext struct {
	Config *config.Config
	Logger *zap.Logger
	Repo   domain.IncidentRepository
	close  func()
}

// NewRootCommand creates the root command with all subcommands
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "incidentctl",
		Short:   "Inspect, filter and cluster the incident snapshot",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cc, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext); ok && cc.close != nil {
				cc.close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.Driver, "driver", "", "data source: pgx|postgres|sqlite|http|mock (default from DATABASE_DRIVER)")
	pf.StringVar(&opts.SQLitePath, "sqlite", "", "SQLite database path (default from SQLITE_PATH)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level: debug|info|warn|error (default from LOG_LEVEL)")

	cmd.AddCommand(
		newVocabCmd(),
		newFilterCmd(),
		newRenderCmd(),
		newSeedCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cc := &CLIContext{Config: cfg, Logger: logger}
	// seed writes the database itself; the other commands read through a repository
	if cmd.Name() != "seed" {
		cc.Repo, cc.close = repository.Open(cmd.Context(), cfg, logger)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))
	return nil
}

// apply overrides the loaded configuration with the flags that were given
func (o *RootOptions) apply(cfg *config.Config) {
	if o.Driver != "" {
		cfg.Database.Driver = o.Driver
	}
	if o.SQLitePath != "" {
		cfg.Database.SQLitePath = o.SQLitePath
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
}

// GetCLIContext extracts the CLIContext stored by the root command
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cc, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil, fmt.Errorf("cli: context not initialized")
	}
	return cc, nil
}

// Execute runs the command tree
func Execute(ctx context.Context, args []string, out io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
