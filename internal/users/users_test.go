// SPDX-License-Identifier: MIT
package users

import (
	"testing"
	"time"

	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/tokens"
)

// TestPasswordRoundTrip covers spec's password round-trip invariant:
// authorize(name, p) succeeds against a user whose hash equals
// hashPassword(p, s) with the active salt s.
func TestPasswordRoundTrip(t *testing.T) {
	tok := tokens.New()
	u := New(tok, "pepper")
	u.Add(&model.User{ID: 1, Name: "root", PasswordHash: HashPassword("h", "pepper")})

	if got := u.Authorize("root", "h", 1); got == "" {
		t.Fatalf("Authorize with correct password returned empty token")
	}
	if got := u.Authorize("root", "wrong", 1); got != "" {
		t.Fatalf("Authorize with wrong password returned non-empty token %q", got)
	}
}

func TestAuthorizeUnknownUser(t *testing.T) {
	u := New(tokens.New(), "pepper")
	if got := u.Authorize("nobody", "h", 1); got != "" {
		t.Fatalf("Authorize(unknown user) = %q, want empty", got)
	}
}

func TestAuthorizeEmitsLoginAndSetsLastLogin(t *testing.T) {
	tok := tokens.New()
	u := New(tok, "pepper")
	usr := &model.User{ID: 7, Name: "bob", PasswordHash: HashPassword("h", "pepper")}
	u.Add(usr)

	var gotUserID int64
	var gotAt time.Time
	u.OnLogin(func(userID int64, at time.Time) {
		gotUserID = userID
		gotAt = at
	})

	before := time.Now()
	value := u.Authorize("bob", "h", 1)
	if value == "" {
		t.Fatalf("Authorize returned empty token")
	}
	if gotUserID != 7 {
		t.Fatalf("OnLogin userID = %d, want 7", gotUserID)
	}
	if gotAt.Before(before) {
		t.Fatalf("OnLogin at = %v, want >= %v", gotAt, before)
	}
	if usr.LastLogin == nil || usr.LastLogin.Before(before) {
		t.Fatalf("LastLogin not updated to a time >= %v", before)
	}
}

func TestAuthorizeServiceHonorsSuperAdmin(t *testing.T) {
	tok := tokens.New()
	u := New(tok, "pepper")
	u.Add(&model.User{ID: 1, Name: "root", Permissions: model.PermissionSuperAdmin, PasswordHash: HashPassword("h", "pepper")})
	value := u.Authorize("root", "h", 1)

	if !u.AuthorizeService(value, model.PermissionReports) {
		t.Fatalf("AuthorizeService(SuperAdmin token, Reports) = false, want true")
	}
	if u.AuthorizeService("bogus-token", model.PermissionReports) {
		t.Fatalf("AuthorizeService(bogus token) = true, want false")
	}
}
