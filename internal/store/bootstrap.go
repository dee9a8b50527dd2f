// SPDX-License-Identifier: MIT
package store

import (
	"context"

	"github.com/queued/queued/internal/apierrors"
)

// BootstrapAdmin inserts the configured administrator row with
// permissions=SuperAdmin if no user named adminName exists yet, per
// spec.md §4.1. passwordHash is the already-hashed admin password.
func (s *Store) BootstrapAdmin(ctx context.Context, adminName, passwordHash string, superAdminMask int64) error {
	rows, err := s.Get(ctx, TableUsers, &Condition{Clause: "name = ?", Args: []any{adminName}})
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	id := s.Add(ctx, TableUsers, Row{
		"name":          adminName,
		"email":         "",
		"password_hash": passwordHash,
		"permissions":   superAdminMask,
		"priority":      int64(0),
		"limits":        "0\n0\n0\n0\n0",
	})
	if id == -1 {
		return apierrors.New(apierrors.KindError, "failed to bootstrap administrator row")
	}
	return nil
}
