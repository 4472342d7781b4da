package report

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Stdout is the report path that selects standard output.
const Stdout = "-"

// OpenOutputFile opens an output file, handling compression automatically based on extension.
// Stdout selects standard output, which is left open on Close.
func OpenOutputFile(filePath string) (io.WriteCloser, error) {
	if filePath == Stdout {
		return nopCloser{os.Stdout}, nil
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".bz2" {
		return nil, fmt.Errorf("bzip2 output compression not supported, use .gz instead")
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	if ext == ".gz" {
		return &gzipWriter{file: file, writer: gzip.NewWriter(file)}, nil
	}
	return file, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// gzipWriter wraps gzip writer and file to close both properly.
type gzipWriter struct {
	file   *os.File
	writer *gzip.Writer
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	return g.writer.Write(p)
}

func (g *gzipWriter) Close() error {
	if err := g.writer.Close(); err != nil {
		g.file.Close()
		return err
	}
	return g.file.Close()
}

// DetectOutputDelimiter detects the output delimiter based on file extension.
// Returns ',' for CSV files and '\t' for TSV files.
func DetectOutputDelimiter(filePath string) rune {
	path := filePath
	for {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".gz" || ext == ".bz2" {
			path = strings.TrimSuffix(path, filepath.Ext(path))
			continue
		}
		break
	}

	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		return '\t'
	}
	return ','
}
