package database

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
)

func init() {
	Register(&Dialect{
		Name:         "sqlserver",
		DriverName:   "sqlserver",
		DSN:          sqlServerDSN,
		Quote:        quoteBracket,
		Placeholder:  func(n int) string { return "@p" + strconv.Itoa(n) },
		ColumnsQuery: sqlServerColumns,
		Classify:     classifySQLServer,
	})
}

// sqlServerDSN builds a sqlserver:// URL. Without a user the driver falls
// back to integrated authentication (SSPI on Windows, Kerberos elsewhere).
// A server of the form HOST\INSTANCE addresses a named instance.
func sqlServerDSN(t Target) (string, error) {
	if t.Server == "" {
		return "", errors.New("server is required")
	}

	host, instance, _ := strings.Cut(t.Server, `\`)
	u := &url.URL{Scheme: "sqlserver", Host: host}
	if t.Port > 0 {
		u.Host = net.JoinHostPort(host, strconv.Itoa(t.Port))
	}
	if instance != "" {
		u.Path = "/" + instance
	}
	if t.User != "" {
		u.User = url.UserPassword(t.User, t.Password)
	}

	q := url.Values{}
	q.Set("database", t.Database)
	q.Set("app name", t.AppName)
	if t.ConnectTimeout > 0 {
		q.Set("connection timeout", strconv.Itoa(int(t.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func sqlServerColumns(schema, table string) (string, []any) {
	if schema == "" {
		return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = @p1 ORDER BY ORDINAL_POSITION",
			[]any{table}
	}
	return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION",
		[]any{schema, table}
}

// SQL Server error numbers, see sys.messages.
const (
	msInvalidColumn     = 207
	msInvalidObject     = 208
	msConversionFailed  = 245
	msDateConversion    = 241
	msDateOutOfRange    = 242
	msNullInsert        = 515
	msConstraintFailed  = 547
	msDuplicateKeyIndex = 2601
	msDuplicateKey      = 2627
	msTruncated         = 2628
	msConvertDataType   = 8114
	msArithOverflow     = 8115
	msTruncatedLegacy   = 8152
)

func classifySQLServer(err error) error {
	var number int32
	var msErr mssql.Error
	var msErrPtr *mssql.Error
	switch {
	case errors.As(err, &msErr):
		number = msErr.Number
	case errors.As(err, &msErrPtr):
		number = msErrPtr.Number
	default:
		return nil
	}

	switch number {
	case msNullInsert, msConstraintFailed, msDuplicateKeyIndex, msDuplicateKey:
		return ErrConstraintViolation
	case msConversionFailed, msDateConversion, msDateOutOfRange, msTruncated, msConvertDataType, msArithOverflow, msTruncatedLegacy:
		return ErrConversion
	case msInvalidColumn:
		return ErrColumnMismatch
	case msInvalidObject:
		return ErrTableNotFound
	}
	return nil
}

