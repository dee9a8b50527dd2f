// SPDX-License-Identifier: MIT
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/queued/queued/internal/apierrors"
)

// Get returns all rows in table matching the optional condition. On any
// backing-store error it logs and returns an empty list, never a fault,
// per spec.md §4.1's failure semantics.
func (s *Store) Get(ctx context.Context, table string, cond *Condition) ([]Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s", table)
	var args []any
	if cond != nil && cond.Clause != "" {
		query += " WHERE " + cond.Clause
		args = cond.Args
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		log.Printf("store: get %s failed: %v", table, err)
		return nil, nil
	}
	defer rows.Close()
	return scanRows(rows)
}

// GetByID returns the single row with the given `_id`, or nil if absent.
func (s *Store) GetByID(ctx context.Context, table string, id int64) (Row, error) {
	rows, err := s.Get(ctx, table, &Condition{Clause: "_id = ?", Args: []any{id}})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeScanned(values[i])
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// normalizeScanned turns driver-specific byte slices into strings so
// callers can type-assert consistently across sqlite/postgres/mysql.
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Add inserts row into table and returns the new `_id`, or -1 on failure.
func (s *Store) Add(ctx context.Context, table string, row Row) int64 {
	known := knownColumns(table)
	var cols []string
	var placeholders []string
	var args []any
	for k, v := range row {
		if k == "_id" {
			continue
		}
		if !known[k] {
			log.Printf("store: add %s: ignoring unknown column %q", table, k)
			continue
		}
		cols = append(cols, k)
		placeholders = append(placeholders, "?")
		args = append(args, v)
	}
	colList, valList := strings.Join(cols, ", "), strings.Join(placeholders, ", ")

	// sqlite and mysql report the new id via LastInsertId; pgx/postgres and
	// go-mssqldb don't support that driver call, so the insert must ask the
	// server for the id directly instead.
	switch s.driver {
	case DriverPostgres:
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING _id", table, colList, valList)
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&id); err != nil {
			log.Printf("store: add %s failed: %v", table, err)
			return -1
		}
		return id
	case DriverMSSQL:
		query := fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED._id VALUES (%s)", table, colList, valList)
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&id); err != nil {
			log.Printf("store: add %s failed: %v", table, err)
			return -1
		}
		return id
	default:
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, colList, valList)
		res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
		if err != nil {
			log.Printf("store: add %s failed: %v", table, err)
			return -1
		}
		id, err := res.LastInsertId()
		if err != nil {
			return -1
		}
		return id
	}
}

// Modify applies a partial row update to the record with the given id.
// `_id` is never writable; unknown columns are ignored with a warning.
func (s *Store) Modify(ctx context.Context, table string, id int64, partial Row) bool {
	known := knownColumns(table)
	var sets []string
	var args []any
	for k, v := range partial {
		if k == "_id" {
			continue
		}
		if !known[k] {
			log.Printf("store: modify %s: ignoring unknown column %q", table, k)
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}
	if len(sets) == 0 {
		return true
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE _id = ?", table, strings.Join(sets, ", "))
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		log.Printf("store: modify %s failed: %v", table, err)
		return false
	}
	return true
}

// Remove deletes the record with the given id.
func (s *Store) Remove(ctx context.Context, table string, id int64) bool {
	_, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf("DELETE FROM %s WHERE _id = ?", table)), id)
	if err != nil {
		log.Printf("store: remove %s failed: %v", table, err)
		return false
	}
	return true
}

// RemoveTasks deletes finished tasks whose end_time predates cutoff.
func (s *Store) RemoveTasks(ctx context.Context, cutoff string) error {
	_, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+TableTasks+" WHERE end_time IS NOT NULL AND end_time < ?"), cutoff)
	if err != nil {
		return apierrors.Errorf(apierrors.KindError, "removing tasks: %v", err)
	}
	return nil
}

// RemoveTokens deletes tokens whose valid_until predates cutoff (all
// expired tokens relative to now).
func (s *Store) RemoveTokens(ctx context.Context, cutoff string) error {
	_, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+TableTokens+" WHERE valid_until < ?"), cutoff)
	if err != nil {
		return apierrors.Errorf(apierrors.KindError, "removing tokens: %v", err)
	}
	return nil
}

// RemoveUsers deletes users whose last_login predates cutoff.
func (s *Store) RemoveUsers(ctx context.Context, cutoff string) error {
	_, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+TableUsers+" WHERE last_login IS NOT NULL AND last_login < ?"), cutoff)
	if err != nil {
		return apierrors.Errorf(apierrors.KindError, "removing users: %v", err)
	}
	return nil
}
