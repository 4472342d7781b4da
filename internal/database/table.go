package database

import (
	"context"
	"fmt"
	"strings"
)

const (
	// BatchSize is the default number of rows between progress reports.
	BatchSize = 1000
)

// WriteProgressCallback is called during AppendRows with the number of rows
// written so far.
type WriteProgressCallback func(rowsWritten int64)

// Columns returns the column names of a table in ordinal order.
func Columns(ctx context.Context, db *DB, table string) ([]string, error) {
	schema, name := SplitQualified(table)
	query, args := db.Dialect.ColumnsQuery(schema, name)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}

	return columns, nil
}

// ValidateColumns checks that the table exists and has every header as a
// column. Matching is case-insensitive; the returned names use the table's
// own spelling, in header order.
func ValidateColumns(ctx context.Context, db *DB, table string, headers []string) ([]string, error) {
	tableColumns, err := Columns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if len(tableColumns) == 0 {
		return nil, fmt.Errorf("%w: '%s' in database '%s'", ErrTableNotFound, table, db.Database)
	}

	existing := make(map[string]string, len(tableColumns))
	for _, col := range tableColumns {
		existing[strings.ToLower(col)] = col
	}

	resolved := make([]string, len(headers))
	var missing []string
	for i, h := range headers {
		col, ok := existing[strings.ToLower(h)]
		if !ok {
			missing = append(missing, h)
			continue
		}
		resolved[i] = col
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: columns not found in table '%s': %s", ErrColumnMismatch, table, strings.Join(missing, ", "))
	}

	return resolved, nil
}

// AppendRows inserts rows into an existing table within a single
// transaction. Empty cells are written as NULL. Either every row is added or
// none is. Returns the number of rows written.
func AppendRows(ctx context.Context, db *DB, table string, columns []string, rows [][]string, batchSize int, progress WriteProgressCallback) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = BatchSize
	}

	insertSQL := db.Dialect.InsertSQL(table, columns)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", db.Dialect.classify(err))
	}
	defer stmt.Close()

	values := make([]any, len(columns))
	var written int64
	for i, row := range rows {
		for c := range columns {
			if c < len(row) && row[c] != "" {
				values[c] = row[c]
			} else {
				values[c] = nil
			}
		}

		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i+1, db.Dialect.classify(err))
		}
		written++

		if progress != nil && written%int64(batchSize) == 0 {
			progress(written)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", db.Dialect.classify(err))
	}

	if progress != nil && written%int64(batchSize) != 0 {
		progress(written)
	}

	return written, nil
}
