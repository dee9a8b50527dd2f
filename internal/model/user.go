// SPDX-License-Identifier: MIT
package model

import "time"

// User is the persisted identity row, per spec.md §3.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Permissions  Permission
	Priority     int64
	Limits       Limits
	LastLogin    *time.Time
}

// UserEdit is the partial row accepted by editUser; nil fields are left
// untouched. DropNonAdminFields strips the admin-only fields for a
// non-admin self-edit (spec.md §4.9 step 3).
type UserEdit struct {
	Name        *string
	Email       *string
	Password    *string
	Permissions *Permission
	Priority    *int64
	Limits      *Limits
}

// DropNonAdminFields projects a UserEdit down to the fields a non-admin
// owner is allowed to touch on their own row: Email and Password. All
// other fields (Permissions, Priority, Limits, Name) are admin-only.
func DropNonAdminFields(e UserEdit) UserEdit {
	return UserEdit{Email: e.Email, Password: e.Password}
}
