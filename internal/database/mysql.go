package database

import (
	"errors"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

func init() {
	Register(&Dialect{
		Name:         "mysql",
		DriverName:   "mysql",
		DefaultPort:  3306,
		DSN:          mysqlDSN,
		Quote:        quoteBacktick,
		Placeholder:  questionMark,
		ColumnsQuery: mysqlColumns,
		Classify:     classifyMySQL,
	})
}

func mysqlDSN(t Target) (string, error) {
	if t.Server == "" {
		return "", errors.New("server is required")
	}

	port := t.Port
	if port == 0 {
		port = 3306
	}

	cfg := mysql.NewConfig()
	cfg.User = t.User
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(t.Server, strconv.Itoa(port))
	cfg.DBName = t.Database
	cfg.Timeout = t.ConnectTimeout
	cfg.ConnectionAttributes = "program_name:" + t.AppName

	return cfg.FormatDSN(), nil
}

func mysqlColumns(schema, table string) (string, []any) {
	if schema == "" {
		return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
			[]any{table}
	}
	return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
		[]any{schema, table}
}

// MySQL server error numbers.
const (
	myBadNull         = 1048
	myBadField        = 1054
	myDupEntry        = 1062
	myNoSuchTable     = 1146
	myOutOfRange      = 1264
	myTruncatedValue  = 1292
	myNoDefault       = 1364
	myBadValue        = 1366
	myDataTooLong     = 1406
	myRowIsReferenced = 1451
	myNoReferencedRow = 1452
	myCheckViolated   = 3819
)

func classifyMySQL(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return nil
	}

	switch myErr.Number {
	case myBadNull, myDupEntry, myNoDefault, myRowIsReferenced, myNoReferencedRow, myCheckViolated:
		return ErrConstraintViolation
	case myTruncatedValue, myBadValue, myOutOfRange, myDataTooLong:
		return ErrConversion
	case myBadField:
		return ErrColumnMismatch
	case myNoSuchTable:
		return ErrTableNotFound
	}
	return nil
}
