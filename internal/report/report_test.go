package report

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upysusa/csvinjector/internal/charset"
	"github.com/upysusa/csvinjector/internal/loader"
)

var results = []loader.Result{
	{
		Tier:     1,
		Table:    "SUCURSALES",
		Target:   "SUCURSALES",
		File:     "csvs/SUCURSALES.csv",
		Encoding: charset.Detection{Charset: "UTF-8", Confidence: 100},
		Rows:     3,
		Duration: 42 * time.Millisecond,
	},
	{
		Tier:     2,
		Table:    "EMPLEADOS",
		Target:   "EMPLEADOS",
		File:     "csvs/EMPLEADOS.csv",
		Encoding: charset.Detection{Charset: "ISO-8859-1", Language: "es", Confidence: 61},
		Rows:     2,
		Duration: 7 * time.Millisecond,
	},
}

func TestDetectOutputDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		want     rune
	}{
		{"stdout", Stdout, ','},
		{"csv file", "report.csv", ','},
		{"tsv file", "report.tsv", '\t'},
		{"csv.gz file", "report.csv.gz", ','},
		{"tsv.gz file", "report.TSV.gz", '\t'},
		{"no extension", "report", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectOutputDelimiter(tt.filePath))
		})
	}
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, ',', results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "tier,table,target,file,encoding,confidence,rows,duration_ms", lines[0])
	assert.Equal(t, "1,SUCURSALES,SUCURSALES,csvs/SUCURSALES.csv,UTF-8,100,3,42", lines[1])
	assert.Equal(t, "2,EMPLEADOS,EMPLEADOS,csvs/EMPLEADOS.csv,ISO-8859-1,61,2,7", lines[2])
}

func TestWriteToEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, '\t', nil))
	assert.Equal(t, strings.Join(Header, "\t")+"\n", buf.String())
}

func TestWriteTSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.tsv")
	require.NoError(t, Write(path, results))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Header, "\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "2\tEMPLEADOS\t"))
}

func TestWriteGzipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv.gz")
	require.NoError(t, Write(path, results))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	records, err := csv.NewReader(gz).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "SUCURSALES", records[1][1])
	assert.Equal(t, "3", records[1][6])

	_, err = io.ReadAll(gz)
	assert.NoError(t, err)
}

func TestWriteErrors(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "report.csv.bz2"), results)
	assert.ErrorContains(t, err, "bzip2 output compression not supported")

	err = Write(filepath.Join(t.TempDir(), "missing", "report.csv"), results)
	assert.ErrorContains(t, err, "failed to create report file")
}
