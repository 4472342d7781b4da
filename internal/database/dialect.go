package database

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect holds everything that differs between supported databases.
type Dialect struct {
	// Name is the driver name used in configuration.
	Name string
	// DriverName is the database/sql driver to open.
	DriverName string
	// DefaultPort is used when a target does not set one. Zero means the
	// driver decides.
	DefaultPort int

	// DSN builds a connection string for a target.
	DSN func(t Target) (string, error)
	// Quote quotes a single identifier.
	Quote func(ident string) string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder func(n int) string
	// ColumnsQuery returns a query listing the column names of a table in
	// ordinal order.
	ColumnsQuery func(schema, table string) (string, []any)
	// Classify maps driver errors onto the package sentinels. It returns
	// nil when the error is not recognised.
	Classify func(err error) error
}

var dialects = map[string]*Dialect{}

// Register adds a dialect to the registry.
func Register(d *Dialect) {
	dialects[d.Name] = d
}

// Lookup returns the registered dialect for a driver name.
func Lookup(name string) (*Dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q (use one of: %s)", name, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// Drivers returns the sorted names of all registered dialects.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QuoteTable quotes a possibly schema-qualified table name.
func (d *Dialect) QuoteTable(table string) string {
	schema, name := SplitQualified(table)
	if schema == "" {
		return d.Quote(name)
	}
	return d.Quote(schema) + "." + d.Quote(name)
}

// InsertSQL returns a single-row INSERT for the given columns.
func (d *Dialect) InsertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteTable(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "))
}

// classify wraps err with a package sentinel when the dialect recognises it.
func (d *Dialect) classify(err error) error {
	if err == nil || d.Classify == nil {
		return err
	}
	if kind := d.Classify(err); kind != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}
