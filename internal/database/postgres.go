package database

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register(&Dialect{
		Name:         "postgres",
		DriverName:   "pgx",
		DefaultPort:  5432,
		DSN:          postgresDSN,
		Quote:        quoteANSI,
		Placeholder:  func(n int) string { return "$" + strconv.Itoa(n) },
		ColumnsQuery: postgresColumns,
		Classify:     classifyPostgres,
	})
}

// postgresDSN builds a postgres:// URL. Without a user libpq conventions
// apply (PGUSER, .pgpass, peer authentication).
func postgresDSN(t Target) (string, error) {
	if t.Server == "" {
		return "", errors.New("server is required")
	}

	u := &url.URL{Scheme: "postgres", Host: t.Server, Path: "/" + t.Database}
	if t.Port > 0 {
		u.Host = net.JoinHostPort(t.Server, strconv.Itoa(t.Port))
	}
	if t.User != "" {
		u.User = url.UserPassword(t.User, t.Password)
	}

	q := url.Values{}
	q.Set("application_name", t.AppName)
	if t.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(t.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func postgresColumns(schema, table string) (string, []any) {
	if schema == "" {
		return "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position",
			[]any{table}
	}
	return "SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position",
		[]any{schema, table}
}

// PostgreSQL SQLSTATE codes, see the errcodes appendix.
const (
	pgClassIntegrity = "23"
	pgClassData      = "22"
	pgUndefinedCol   = "42703"
	pgUndefinedTable = "42P01"
)

func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch {
	case strings.HasPrefix(pgErr.Code, pgClassIntegrity):
		return ErrConstraintViolation
	case strings.HasPrefix(pgErr.Code, pgClassData):
		return ErrConversion
	case pgErr.Code == pgUndefinedCol:
		return ErrColumnMismatch
	case pgErr.Code == pgUndefinedTable:
		return ErrTableNotFound
	}
	return nil
}
