// SPDX-License-Identifier: MIT
// Schema bootstrap/upgrade: additive-only column management, grounded on
// services/database/migrations.go's migration-table bootstrap pattern.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/queued/queued/internal/apierrors"
)

// column describes one schema column: name, SQL type, and default clause
// used both at CREATE TABLE time and when additively ALTERing an older DB.
type column struct {
	name    string
	sqlType string
	def     string
}

var tableColumns = map[string][]column{
	TableSettings: {
		{"key", "TEXT", "''"},
		{"value", "TEXT", "''"},
		{"admin_only", "INTEGER", "0"},
	},
	TableUsers: {
		{"name", "TEXT", "''"},
		{"email", "TEXT", "''"},
		{"password_hash", "TEXT", "''"},
		{"permissions", "INTEGER", "0"},
		{"priority", "INTEGER", "0"},
		{"limits", "TEXT", "''"},
		{"last_login", "TEXT", "NULL"},
	},
	TableTokens: {
		{"value", "TEXT", "''"},
		{"user_name", "TEXT", "''"},
		{"valid_until", "TEXT", "''"},
	},
	TableTasks: {
		{"user_id", "INTEGER", "0"},
		{"command", "TEXT", "''"},
		{"arguments", "TEXT", "''"},
		{"working_directory", "TEXT", "''"},
		{"uid", "INTEGER", "1"},
		{"gid", "INTEGER", "1"},
		{"nice", "INTEGER", "0"},
		{"limits", "TEXT", "''"},
		{"start_time", "TEXT", "NULL"},
		{"end_time", "TEXT", "NULL"},
	},
}

// EnsureSchema creates each table with its auto-increment primary key
// `_id` if missing, and additively adds any known column not yet present.
// Never drops a column. Failure here is fatal to daemon startup per
// spec.md §4.1.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for table, cols := range tableColumns {
		if err := s.createTable(ctx, table, cols); err != nil {
			return apierrors.Errorf(apierrors.KindError, "ensuring schema for %s: %v", table, err)
		}
		for _, c := range cols {
			s.addColumnIfMissing(ctx, table, c)
		}
	}
	return nil
}

// primaryKeyClause returns the driver-native auto-incrementing `_id`
// column definition. AUTOINCREMENT is SQLite-only syntax; the other
// three drivers declared in go.mod each spell identity columns
// differently, so CREATE TABLE must switch on s.driver rather than
// share one clause.
func (s *Store) primaryKeyClause() string {
	switch s.driver {
	case DriverPostgres:
		return "_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY"
	case DriverMySQL:
		return "_id BIGINT AUTO_INCREMENT PRIMARY KEY"
	case DriverMSSQL:
		return "_id BIGINT IDENTITY(1,1) PRIMARY KEY"
	default:
		return "_id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

func (s *Store) createTable(ctx context.Context, table string, cols []column) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (%s", table, s.primaryKeyClause())
	for _, c := range cols {
		fmt.Fprintf(&b, ", %s %s", c.name, c.sqlType)
	}
	b.WriteString(")")
	_, err := s.db.ExecContext(ctx, b.String())
	return err
}

// addColumnIfMissing attempts an additive ALTER TABLE; a failure because
// the column already exists is swallowed (additive-only, idempotent
// across repeated startups and across backends with differing
// information_schema shapes). go-mssqldb rejects the ADD COLUMN spelling
// the other three drivers accept; T-SQL wants ADD <name> <type> bare.
func (s *Store) addColumnIfMissing(ctx context.Context, table string, c column) {
	var stmt string
	if s.driver == DriverMSSQL {
		stmt = fmt.Sprintf("ALTER TABLE %s ADD %s %s DEFAULT %s", table, c.name, c.sqlType, c.def)
	} else {
		stmt = fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s DEFAULT %s", table, c.name, c.sqlType, c.def)
	}
	_, _ = s.db.ExecContext(ctx, stmt)
}

// knownColumns reports whether col is part of table's schema; unknown
// columns are ignored (by the caller, with a warning) rather than
// erroring, except `_id` which is never writable via Modify.
func knownColumns(table string) map[string]bool {
	set := map[string]bool{"_id": true}
	for _, c := range tableColumns[table] {
		set[c.name] = true
	}
	return set
}
