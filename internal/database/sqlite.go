package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
)

func init() {
	Register(&Dialect{
		Name:         "sqlite",
		DriverName:   "sqlite3",
		DSN:          sqliteDSN,
		Quote:        quoteANSI,
		Placeholder:  questionMark,
		ColumnsQuery: sqliteColumns,
		Classify:     classifySQLite,
	})
}

// sqliteDSN treats Database as the path of an existing database file and
// enables foreign key enforcement.
func sqliteDSN(t Target) (string, error) {
	if t.Database == "" {
		return "", errors.New("database file is required")
	}
	if _, err := os.Stat(t.Database); err != nil {
		return "", fmt.Errorf("database file %s: %w", filepath.Clean(t.Database), err)
	}
	dsn := t.Database + "?_foreign_keys=on"
	if t.ConnectTimeout > 0 {
		dsn += fmt.Sprintf("&_busy_timeout=%d", t.ConnectTimeout.Milliseconds())
	}
	return dsn, nil
}

func sqliteColumns(schema, table string) (string, []any) {
	if schema == "" {
		return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{table}
	}
	return "SELECT name FROM pragma_table_info(?, ?) ORDER BY cid", []any{table, schema}
}

func classifySQLite(err error) error {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return nil
	}

	if liteErr.Code == sqlite3.ErrConstraint {
		return ErrConstraintViolation
	}
	msg := liteErr.Error()
	switch {
	case strings.Contains(msg, "no such column"), strings.Contains(msg, "has no column named"):
		return ErrColumnMismatch
	case strings.Contains(msg, "no such table"):
		return ErrTableNotFound
	}
	return nil
}
