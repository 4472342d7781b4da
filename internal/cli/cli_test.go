package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/upysusa/csvinjector/internal/database"
	"github.com/upysusa/csvinjector/internal/loader"
)

const schemaDDL = `
CREATE TABLE SUCURSALES (ID INTEGER PRIMARY KEY, NOMBRE TEXT NOT NULL);
CREATE TABLE EMPLEADOS (
	ID INTEGER PRIMARY KEY,
	NOMBRE TEXT NOT NULL,
	ID_SUCURSAL INTEGER NOT NULL REFERENCES SUCURSALES(ID)
);`

const planYAML = `tables:
  - name: EMPLEADOS
    depends_on: [SUCURSALES]
  - name: SUCURSALES
`

// workspace creates a SQLite database, a csv directory and a plan file.
func workspace(t *testing.T) (dbPath, csvDir, planPath string) {
	t.Helper()
	dir := t.TempDir()

	dbPath = filepath.Join(dir, "upysusa.db")
	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(schemaDDL)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	csvDir = filepath.Join(dir, "csvs")
	require.NoError(t, os.Mkdir(csvDir, 0o755))
	writeCSV(t, csvDir, "SUCURSALES", []byte("ID,NOMBRE\n1,Centro\n2,Norte\n"))
	writeCSV(t, csvDir, "EMPLEADOS", []byte("ID,NOMBRE,ID_SUCURSAL\n10,Ana,1\n11,Luis,2\n12,Marta,2\n"))

	planPath = filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(planYAML), 0o644))
	return dbPath, csvDir, planPath
}

func writeCSV(t *testing.T, dir, table string, raw []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, table+".csv"), raw, 0o644))
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "csvinjector", cmd.Use)

	for _, name := range []string{
		"config", "driver", "server", "port", "database", "user", "password", "dsn",
		"csv-dir", "ext", "delimiter", "plan", "min-confidence", "batch-size",
		"timeout", "log-level", "log-format", "progress",
	} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag --%s", name)
	}

	var subs []string
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"plan", "detect"}, subs)
}

func TestEndToEndLoad(t *testing.T) {
	dbPath, csvDir, planPath := workspace(t)

	stdout, stderr, err := execute(t,
		"--driver", "sqlite",
		"--database", dbPath,
		"--csv-dir", csvDir,
		"--plan", planPath,
		"--progress=false")
	require.NoError(t, err, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Se han agregado los datos del CSV a la tabla 'SUCURSALES' en la base de datos '"+dbPath+"'.", lines[0])
	assert.Equal(t, "Se han agregado los datos del CSV a la tabla 'EMPLEADOS' en la base de datos '"+dbPath+"'.", lines[1])
	assert.Contains(t, stderr, "Loaded 5 rows into 2 tables")

	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer raw.Close()
	var n int
	require.NoError(t, raw.QueryRow("SELECT COUNT(*) FROM EMPLEADOS").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestEndToEndStopsAtFirstFailure(t *testing.T) {
	dbPath, csvDir, planPath := workspace(t)
	require.NoError(t, os.Remove(filepath.Join(csvDir, "SUCURSALES.csv")))

	stdout, stderr, err := execute(t,
		"--driver", "sqlite",
		"--database", dbPath,
		"--csv-dir", csvDir,
		"--plan", planPath,
		"--progress=false")
	require.Error(t, err)

	var tableErr *loader.TableError
	require.True(t, errors.As(err, &tableErr))
	assert.Equal(t, "SUCURSALES", tableErr.Table)
	assert.Equal(t, loader.StepRead, tableErr.Step)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Stopped at tier 1 after 0 of 2 tables")
}

func TestEndToEndReport(t *testing.T) {
	dbPath, csvDir, planPath := workspace(t)
	reportPath := filepath.Join(t.TempDir(), "load.tsv")

	_, stderr, err := execute(t,
		"--driver", "sqlite",
		"--database", dbPath,
		"--csv-dir", csvDir,
		"--plan", planPath,
		"--report", reportPath,
		"--progress=false")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Report written to "+reportPath)

	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1\tSUCURSALES\tSUCURSALES\t"))
	assert.Contains(t, lines[2], "\tUTF-8\t100\t3\t")
}

func TestEndToEndJSONLogs(t *testing.T) {
	dbPath, csvDir, planPath := workspace(t)

	_, stderr, err := execute(t,
		"--driver", "sqlite",
		"--database", dbPath,
		"--csv-dir", csvDir,
		"--plan", planPath,
		"--log-format", "json",
		"--progress=false")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"table loaded"`)
	assert.Contains(t, stderr, `"run_id":`)
}

func TestPlanCommand(t *testing.T) {
	stdout, _, err := execute(t, "plan")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"Tier 1: SUCURSALES, PROVEEDORES, CATALOGO_GASTOS, TURNO, ESTATUS, PUESTO",
		"Tier 2: PRODUCTOS, COMPRAS, GASTOS, CAJAS, EMPLEADOS",
		"Tier 3: COMPRA_POR_PRODUCTO, ALMACEN_POR_SUCURSAL, TICKETS",
		"Tier 4: TICKETS_DETALLE",
	}, "\n")+"\n", stdout)
}

func TestPlanCommandWithFile(t *testing.T) {
	_, _, planPath := workspace(t)

	stdout, _, err := execute(t, "plan", "--plan", planPath)
	require.NoError(t, err)
	assert.Equal(t, "Tier 1: SUCURSALES\nTier 2: EMPLEADOS\n", stdout)
}

func TestDetectCommand(t *testing.T) {
	_, csvDir, planPath := workspace(t)

	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(
		"ID,NOMBRE,ID_SUCURSAL\n" +
			"10,Peñón García,1\n" +
			"11,José Núñez de Córdoba,2\n" +
			"12,María Ibáñez Muñoz,2\n"))
	require.NoError(t, err)
	writeCSV(t, csvDir, "EMPLEADOS", latin1)

	stdout, _, err := execute(t, "detect", "--csv-dir", csvDir, "--plan", planPath, "--min-confidence", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SUCURSALES")
	assert.Contains(t, stdout, "UTF-8 (100%)")
	assert.Contains(t, stdout, "EMPLEADOS")
	assert.NotContains(t, stdout, "✗")
}

func TestDetectCommandReportsMissingFiles(t *testing.T) {
	_, csvDir, planPath := workspace(t)
	require.NoError(t, os.Remove(filepath.Join(csvDir, "EMPLEADOS.csv")))

	stdout, _, err := execute(t, "detect", "--csv-dir", csvDir, "--plan", planPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files")
	assert.Contains(t, stdout, "✗ EMPLEADOS")
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "csvinjector.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("driver: postgres\nserver: from-file\nbatch_size: 50\nmin_confidence: 20\n"), 0o644))

	t.Setenv("CSVINJECTOR_SERVER", "from-env")
	t.Setenv("CSVINJECTOR_BATCH_SIZE", "75")

	cmd := NewRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", cfgPath, "--batch-size", "99", "--timeout", "3s"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver, "file overrides default")
	assert.Equal(t, "from-env", cfg.Server, "env overrides file")
	assert.Equal(t, 99, cfg.BatchSize, "flag overrides env")
	assert.Equal(t, 20, cfg.MinConfidence, "unset flag keeps file value")
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing config file", []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, "config file not found"},
		{"unknown driver", []string{"--driver", "oracle"}, "unsupported driver"},
		{"bad delimiter", []string{"--delimiter", "colon"}, "invalid delimiter"},
		{"bad confidence", []string{"--min-confidence", "150"}, "min_confidence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))
			_, err := loadConfig(cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	pt := NewProgressTracker(true, &buf)

	var _ loader.Progress = pt

	pt.StartTable(1, "SUCURSALES", 2)
	pt.UpdateTable("SUCURSALES", 1)
	pt.FinishTable("SUCURSALES", 2, 15*time.Millisecond)
	pt.FailTable("PUESTO", database.ErrConnect)
	pt.Stop()
	pt.Stop()

	out := buf.String()
	assert.Contains(t, out, "Loaded 2 rows into 'SUCURSALES'")
	assert.Contains(t, out, "PUESTO failed: database connection failed")
	assert.True(t, strings.HasSuffix(out, "\033[?25h"), "cursor must be restored")
}

func TestProgressTrackerDisabled(t *testing.T) {
	var buf bytes.Buffer
	pt := NewProgressTracker(false, &buf)

	pt.StartTable(1, "SUCURSALES", 2)
	pt.FinishTable("SUCURSALES", 2, time.Millisecond)
	pt.Stop()

	assert.Empty(t, buf.String())
}

func TestFmtNum(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5K"},
		{2500000, "2.5M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fmtNum(tt.n))
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
