package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/upysusa/csvinjector/internal/charset"
)

var (
	// ErrMissingHeader is returned for files without a header row.
	ErrMissingHeader = errors.New("missing header row")
	// ErrMalformedHeader is returned for blank or duplicate column names.
	ErrMalformedHeader = errors.New("malformed header")
)

// Stage names the part of ParseFile that failed.
type Stage string

const (
	StageRead   Stage = "read"
	StageDetect Stage = "detect"
	StageParse  Stage = "parse"
)

// ParseError records which stage of parsing a file failed.
type ParseError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileInput describes a file to be parsed.
type FileInput struct {
	FilePath  string
	TableName string
	Delimiter rune
}

// EncodingDetector guesses the encoding of raw file content.
type EncodingDetector interface {
	Detect(raw []byte) (charset.Detection, error)
}

// Frame holds the parsed content of one source file.
type Frame struct {
	FilePath  string
	TableName string
	Encoding  charset.Detection
	Headers   []string
	Rows      [][]string
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Record returns row i as a column name to value mapping.
func (f *Frame) Record(i int) map[string]string {
	rec := make(map[string]string, len(f.Headers))
	for c, h := range f.Headers {
		rec[h] = f.Rows[i][c]
	}
	return rec
}

// ParseFile reads a delimited text file, detects its encoding and parses it
// into a Frame. The first record is the header.
func ParseFile(input FileInput, detector EncodingDetector) (*Frame, error) {
	raw, err := ReadAll(input.FilePath)
	if err != nil {
		return nil, &ParseError{Stage: StageRead, Path: input.FilePath, Err: err}
	}

	det, err := detector.Detect(raw)
	if err != nil {
		return nil, &ParseError{Stage: StageDetect, Path: input.FilePath, Err: err}
	}

	text, err := charset.Decode(raw, det.Charset)
	if err != nil {
		return nil, &ParseError{Stage: StageParse, Path: input.FilePath, Err: err}
	}

	headers, rows, err := parse(bytes.NewReader(text), input.Delimiter)
	if err != nil {
		return nil, &ParseError{Stage: StageParse, Path: input.FilePath, Err: err}
	}

	return &Frame{
		FilePath:  input.FilePath,
		TableName: input.TableName,
		Encoding:  det,
		Headers:   headers,
		Rows:      rows,
	}, nil
}

func parse(r io.Reader, delimiter rune) ([]string, [][]string, error) {
	if delimiter == 0 {
		delimiter = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrMissingHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := checkHeader(headers); err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, record)
	}

	return headers, rows, nil
}

func checkHeader(headers []string) error {
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrMalformedHeader, i+1)
		}
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: column %d duplicates column %d (%s)", ErrMalformedHeader, i+1, prev+1, name)
		}
		seen[key] = i
		headers[i] = name
	}
	return nil
}
