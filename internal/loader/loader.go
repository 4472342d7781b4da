// Package loader loads the CSV file of every table of a plan into the
// database, tier by tier.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/upysusa/csvinjector/internal/charset"
	"github.com/upysusa/csvinjector/internal/config"
	"github.com/upysusa/csvinjector/internal/database"
	"github.com/upysusa/csvinjector/internal/importer"
	"github.com/upysusa/csvinjector/internal/logging"
	"github.com/upysusa/csvinjector/internal/plan"
)

// Confirmation is printed to the output writer after each loaded table.
const Confirmation = "Se han agregado los datos del CSV a la tabla '%s' en la base de datos '%s'.\n"

// Opener opens a database connection for one table.
type Opener func(ctx context.Context, t database.Target) (*database.DB, error)

// Result describes one loaded table.
type Result struct {
	Tier     int
	Table    string
	Target   string
	File     string
	Encoding charset.Detection
	Rows     int64
	Duration time.Duration
}

// Loader runs a plan against a configured database.
type Loader struct {
	cfg       *config.Config
	plan      *plan.Plan
	delimiter rune
	detector  importer.EncodingDetector

	open     Opener
	out      io.Writer
	logger   *slog.Logger
	progress Progress
}

// Option configures a Loader.
type Option func(*Loader)

// WithOpener replaces database.Open.
func WithOpener(open Opener) Option {
	return func(l *Loader) { l.open = open }
}

// WithOutput sets where confirmations are printed (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(l *Loader) { l.out = w }
}

// WithLogger sets the structured logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithProgress sets the progress sink.
func WithProgress(p Progress) Option {
	return func(l *Loader) { l.progress = p }
}

// New validates cfg and returns a Loader for p.
func New(cfg *config.Config, p *plan.Plan, opts ...Option) (*Loader, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if p == nil {
		return nil, errors.New("plan is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	delimiter, err := config.ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return nil, err
	}

	l := &Loader{
		cfg:       cfg,
		plan:      p,
		delimiter: delimiter,
		detector:  charset.Detector{MinConfidence: cfg.MinConfidence},
		open:      database.Open,
		out:       os.Stdout,
		logger:    slog.Default(),
		progress:  noProgress{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadAll loads every table of the plan, tier by tier and in declaration
// order within a tier. It stops at the first failure and returns the
// results of the tables loaded before it.
func (l *Loader) LoadAll(ctx context.Context) ([]Result, error) {
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	logger := logging.FromContext(ctx, l.logger)

	start := time.Now()
	logger.Info("load started",
		"tables", l.plan.Len(),
		"driver", l.cfg.Driver,
		"server", l.cfg.Server,
		"database", l.cfg.Database,
		"csv_dir", l.cfg.CSVDir)

	results := make([]Result, 0, l.plan.Len())
	for i, tier := range l.plan.Tiers() {
		tierNum := i + 1
		logger.Debug("tier started", "tier", tierNum, "tables", tier)

		for _, table := range tier {
			if err := ctx.Err(); err != nil {
				return results, &TableError{Tier: tierNum, Table: table, Step: StepRead, Err: err}
			}

			res, err := l.LoadTable(ctx, tierNum, table)
			if err != nil {
				logger.Error("load stopped", "tier", tierNum, "table", table, "error", err)
				return results, err
			}
			results = append(results, res)
		}
	}

	logger.Info("load finished", "tables", len(results), "duration", time.Since(start).Round(time.Millisecond))
	return results, nil
}

// LoadTable loads <csv_dir>/<table><ext> into the table named after it.
// The connection is opened for this table only and closed before returning.
func (l *Loader) LoadTable(ctx context.Context, tier int, table string) (Result, error) {
	logger := logging.FromContext(ctx, l.logger).With("tier", tier, "table", table)
	start := time.Now()

	path := importer.SourcePath(l.cfg.CSVDir, table, l.cfg.Extension)
	delimiter := l.delimiter
	if delimiter == 0 {
		delimiter = importer.DetectDelimiter(path)
	}

	frame, err := importer.ParseFile(importer.FileInput{
		FilePath:  path,
		TableName: table,
		Delimiter: delimiter,
	}, l.detector)
	if err != nil {
		return Result{}, l.fail(tier, table, parseStep(err), err)
	}
	logger.Debug("file parsed",
		"file", path,
		"encoding", frame.Encoding.Charset,
		"confidence", frame.Encoding.Confidence,
		"rows", frame.Len(),
		"columns", len(frame.Headers))

	target := plan.TargetName(table)
	l.progress.StartTable(tier, target, int64(frame.Len()))

	rows, step, err := l.write(ctx, logger, target, frame)
	if err != nil {
		return Result{}, l.fail(tier, table, step, err)
	}

	duration := time.Since(start)
	l.progress.FinishTable(target, rows, duration)
	fmt.Fprintf(l.out, Confirmation, target, l.cfg.Database)
	logger.Info("table loaded", "target", target, "rows", rows, "duration", duration.Round(time.Millisecond))

	return Result{
		Tier:     tier,
		Table:    table,
		Target:   target,
		File:     path,
		Encoding: frame.Encoding,
		Rows:     rows,
		Duration: duration,
	}, nil
}

// write opens a connection, appends the frame to target and closes the
// connection on every path.
func (l *Loader) write(ctx context.Context, logger *slog.Logger, target string, frame *importer.Frame) (int64, Step, error) {
	db, err := l.open(ctx, l.cfg.Target())
	if err != nil {
		return 0, StepConnect, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close connection", "error", err)
		}
	}()

	columns, err := database.ValidateColumns(ctx, db, target, frame.Headers)
	if err != nil {
		return 0, StepValidate, err
	}

	rows, err := database.AppendRows(ctx, db, target, columns, frame.Rows, l.cfg.BatchSize, func(written int64) {
		l.progress.UpdateTable(target, written)
	})
	if err != nil {
		return 0, StepInsert, err
	}
	return rows, "", nil
}

func (l *Loader) fail(tier int, table string, step Step, err error) error {
	l.progress.FailTable(plan.TargetName(table), err)
	return &TableError{Tier: tier, Table: table, Step: step, Err: err}
}
