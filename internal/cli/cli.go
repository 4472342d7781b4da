// Package cli provides the command-line interface for csvinjector.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/upysusa/csvinjector/internal/config"
	"github.com/upysusa/csvinjector/internal/database"
	"github.com/upysusa/csvinjector/internal/loader"
	"github.com/upysusa/csvinjector/internal/logging"
	"github.com/upysusa/csvinjector/internal/plan"
	"github.com/upysusa/csvinjector/internal/report"
)

var (
	// Colors for output
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

// NewRootCmd builds the csvinjector command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csvinjector",
		Short: "Load CSV files into database tables in dependency order",
		Long: `csvinjector - bulk-load CSV files into an existing database

Reads <csv-dir>/<TABLE>.csv for every table of a dependency plan, detects
the file encoding, and appends every row to the table of the same name.
Parent tables are loaded before the tables that reference them; the run
stops at the first failure.

Features:
  • SQL Server (default, trusted auth), PostgreSQL, MySQL and SQLite
  • Automatic encoding detection (UTF-8, Latin-1, Windows-1252, ...)
  • Custom dependency plans from YAML
  • Support for compressed files (.gz, .bz2)`,
		Example: `  # Load ./csvs into Upysusa on the local SQL Server
  csvinjector

  # Load into PostgreSQL with a custom plan
  csvinjector --driver postgres --server db.local --user loader --plan plan.yaml

  # Show the load order and the detected encodings
  csvinjector plan
  csvinjector detect --csv-dir ./exports`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLoad,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "YAML config file (default: ./"+config.FileName+" when present)")
	flags.String("driver", config.DefaultDriver, "Database driver: "+strings.Join(database.Drivers(), ", "))
	flags.StringP("server", "s", "", "Database server (default: local hostname)")
	flags.Int("port", 0, "Database port (default: driver default)")
	flags.StringP("database", "d", config.DefaultDatabase, "Database name (SQLite: database file path)")
	flags.StringP("user", "u", "", "Database user (empty: trusted/integrated authentication)")
	flags.String("password", "", "Database password")
	flags.String("dsn", "", "Full connection string, overrides server/port/database/user/password")
	flags.String("csv-dir", config.DefaultCSVDir, "Directory holding <TABLE><ext> source files")
	flags.String("ext", config.DefaultExtension, "Source file extension, e.g. .csv, .tsv, .csv.gz")
	flags.String("delimiter", "auto", "Field delimiter: 'comma', 'tab', 'semicolon', 'pipe' or 'auto'")
	flags.StringP("plan", "p", "", "YAML dependency plan (default: built-in Upysusa tiers)")
	flags.Int("min-confidence", config.DefaultMinConfidence, "Minimum encoding detection confidence, 0..100")
	flags.Int("batch-size", database.BatchSize, "Rows between progress updates")
	flags.Duration("timeout", config.DefaultConnectTimeout, "Connection timeout")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.Bool("progress", true, "Show progress on a terminal")
	flags.String("report", "", "Write a per-table summary to this CSV/TSV file ('-' for stdout)")

	rootCmd.AddCommand(newPlanCmd(), newDetectCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := loadPlan(cfg)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	logger := logging.Setup(stderr, cfg.LogLevel, cfg.LogFormat)

	tracker := NewProgressTracker(cfg.Progress && isTerminal(stderr), stderr)
	defer tracker.Stop()

	l, err := loader.New(cfg, p,
		loader.WithOutput(cmd.OutOrStdout()),
		loader.WithLogger(logger),
		loader.WithProgress(tracker))
	if err != nil {
		return err
	}

	infoColor.Fprintf(stderr, "Loading %d tables from %s into %s database '%s'\n",
		p.Len(), cfg.CSVDir, cfg.Driver, cfg.Database)

	results, err := l.LoadAll(cmd.Context())
	tracker.Stop()

	if cfg.Report != "" {
		if rerr := report.Write(cfg.Report, results); rerr != nil {
			warnColor.Fprintf(stderr, "Warning: %v\n", rerr)
		} else if cfg.Report != report.Stdout {
			infoColor.Fprintf(stderr, "Report written to %s\n", cfg.Report)
		}
	}

	if err != nil {
		var tableErr *loader.TableError
		if errors.As(err, &tableErr) {
			warnColor.Fprintf(stderr, "Stopped at tier %d after %d of %d tables\n", tableErr.Tier, len(results), p.Len())
		}
		return err
	}

	var rows int64
	for _, r := range results {
		rows += r.Rows
	}
	successColor.Fprintf(stderr, "✓ Loaded %d rows into %d tables\n", rows, len(results))
	return nil
}

// loadConfig layers defaults, the config file, the environment and the
// flags the user set, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(config.FileName); err == nil {
			path = config.FileName
		}
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag set on the command line onto cfg.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "driver":
			cfg.Driver = f.Value.String()
		case "server":
			cfg.Server = f.Value.String()
		case "port":
			cfg.Port, err = flags.GetInt(f.Name)
		case "database":
			cfg.Database = f.Value.String()
		case "user":
			cfg.User = f.Value.String()
		case "password":
			cfg.Password = f.Value.String()
		case "dsn":
			cfg.DSN = f.Value.String()
		case "csv-dir":
			cfg.CSVDir = f.Value.String()
		case "ext":
			cfg.Extension = f.Value.String()
		case "delimiter":
			cfg.Delimiter = f.Value.String()
		case "plan":
			cfg.PlanFile = f.Value.String()
		case "min-confidence":
			cfg.MinConfidence, err = flags.GetInt(f.Name)
		case "batch-size":
			cfg.BatchSize, err = flags.GetInt(f.Name)
		case "timeout":
			cfg.ConnectTimeout, err = flags.GetDuration(f.Name)
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "log-format":
			cfg.LogFormat = f.Value.String()
		case "progress":
			cfg.Progress, err = flags.GetBool(f.Name)
		case "report":
			cfg.Report = f.Value.String()
		}
	})
	if err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	return nil
}

func loadPlan(cfg *config.Config) (*plan.Plan, error) {
	if cfg.PlanFile == "" {
		return plan.Default(), nil
	}
	return plan.Load(cfg.PlanFile)
}
