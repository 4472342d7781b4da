// Package report writes a per-table summary of a load run as CSV or TSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/upysusa/csvinjector/internal/loader"
)

// Header is the first record of every report.
var Header = []string{"tier", "table", "target", "file", "encoding", "confidence", "rows", "duration_ms"}

// Write writes results to filePath, choosing the delimiter and compression
// from its extension.
func Write(filePath string, results []loader.Result) error {
	output, err := OpenOutputFile(filePath)
	if err != nil {
		return err
	}

	if err := WriteTo(output, DetectOutputDelimiter(filePath), results); err != nil {
		output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

// WriteTo writes the header and one record per result to w.
func WriteTo(w io.Writer, delimiter rune, results []loader.Result) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range results {
		record := []string{
			strconv.Itoa(r.Tier),
			r.Table,
			r.Target,
			r.File,
			r.Encoding.Charset,
			strconv.Itoa(r.Encoding.Confidence),
			strconv.FormatInt(r.Rows, 10),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
