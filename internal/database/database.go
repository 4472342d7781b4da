// Package database opens single-use connections to the target database and
// appends parsed rows to existing tables.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultAppName identifies the loader to the database server.
const DefaultAppName = "csvinjector"

// Target describes where and how to connect.
// An empty User selects trusted (integrated) authentication where the
// driver supports it.
type Target struct {
	Driver         string
	Server         string
	Port           int
	Database       string
	User           string
	Password       string
	DSN            string // used verbatim when set
	ConnectTimeout time.Duration
	AppName        string
}

// Trusted reports whether the target uses the process identity to log in.
func (t Target) Trusted() bool {
	return t.User == "" && t.DSN == ""
}

// DB wraps a database connection with the dialect used to talk to it.
type DB struct {
	*sql.DB
	Dialect  *Dialect
	Database string
}

// Open opens and pings a connection to the target.
// The underlying pool is capped at a single connection so that each DB is
// exactly one server session.
func Open(ctx context.Context, t Target) (*DB, error) {
	dialect, err := Lookup(t.Driver)
	if err != nil {
		return nil, err
	}
	if t.AppName == "" {
		t.AppName = DefaultAppName
	}

	dsn := t.DSN
	if dsn == "" {
		dsn, err = dialect.DSN(t)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s connection string: %w", dialect.Name, err)
		}
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnect, dialect.Name, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if t.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, t.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s database %q on %q: %w", ErrConnect, dialect.Name, t.Database, t.Server, err)
	}

	return &DB{
		DB:       db,
		Dialect:  dialect,
		Database: t.Database,
	}, nil
}
