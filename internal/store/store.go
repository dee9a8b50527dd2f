// SPDX-License-Identifier: MIT
// C1: typed persistent map from (table, id) to a row.
//
// Grounded on services/database/database.go's multi-backend Database
// (sqlite/postgres/mysql selected on a Driver switch over database/sql)
// and migrations.go's additive-schema style.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/queued/queued/internal/apierrors"
)

// Table names recognized by the store, per spec.md §4.1.
const (
	TableSettings = "settings"
	TableUsers    = "users"
	TableTokens   = "tokens"
	TableTasks    = "tasks"
)

// Driver is a backing database driver, per spec.md §6.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverMSSQL    Driver = "mssql"
)

// Config holds the connection parameters for Open.
type Config struct {
	Driver   Driver
	Host     string
	Port     int
	Path     string
	Username string
	Password string
}

// Row is an opaque column->value map for one persisted record.
type Row map[string]any

// Condition is an opaque predicate with named parameters, passed through
// to the backing SQL WHERE clause. Column names not in the schema are
// ignored with a warning; `_id` is never writable via Modify.
type Condition struct {
	Clause string
	Args   []any
}

// Store is C1's operation surface.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open connects to the configured backend. Mirrors the driver switch in
// services/database/database.go's NewDatabase.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Path)
		db, err = sql.Open("pgx", dsn)
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Path)
		db, err = sql.Open("mysql", dsn)
	case DriverMSSQL:
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Path)
		db, err = sql.Open("sqlserver", dsn)
	case DriverSQLite, "":
		path := cfg.Path
		if path == "" {
			path = "queued.db"
		}
		db, err = sql.Open("sqlite", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path))
	default:
		return nil, apierrors.Errorf(apierrors.KindError, "unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, apierrors.Errorf(apierrors.KindError, "opening database: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apierrors.Errorf(apierrors.KindError, "pinging database: %v", err)
	}

	return &Store{db: db, driver: cfg.Driver}, nil
}

// Close releases the backing connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites the `?`-style positional placeholders every call site
// in this package writes (Get/Add/Modify/Remove* and every hand-written
// Condition.Clause in core/reports/scheduler/retention) into the target
// driver's native bind syntax. sqlite and mysql accept `?` unchanged;
// pgx requires `$1, $2, ...` and go-mssqldb requires `@p1, @p2, ...`.
// Centralizing the rewrite here means every other package keeps writing
// portable `?` SQL and never needs to know which driver is live.
func (s *Store) rebind(query string) string {
	switch s.driver {
	case DriverPostgres:
		return rebindNumbered(query, "$")
	case DriverMSSQL:
		return rebindNumbered(query, "@p")
	default:
		return query
	}
}

func rebindNumbered(query, prefix string) string {
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "%s%d", prefix, n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// timeLayout is the ISO-8601-with-milliseconds layout required for any
// timestamp passed through a Condition, per spec.md §4.1.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in the store's required timestamp format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a store-format timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
