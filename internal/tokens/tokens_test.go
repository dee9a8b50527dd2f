// SPDX-License-Identifier: MIT
package tokens

import (
	"testing"
	"time"
)

// TestTokenValidity covers spec's token-validity invariant: userFor(v)
// is non-empty iff v was registered AND now < validUntil(v); after
// expire(v), userFor(v) is empty.
func TestTokenValidity(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tk := New()
	tk.now = func() time.Time { return now }

	if got := tk.UserFor("unregistered"); got != "" {
		t.Fatalf("UserFor(unregistered) = %q, want empty", got)
	}

	value := tk.Register("alice", now.Add(time.Minute))
	if got := tk.UserFor(value); got != "alice" {
		t.Fatalf("UserFor(value) = %q, want alice", got)
	}

	now = now.Add(2 * time.Minute)
	tk.now = func() time.Time { return now }
	if got := tk.UserFor(value); got != "" {
		t.Fatalf("UserFor(value) after expiry = %q, want empty", got)
	}
}

func TestExpireIsIdempotentAndClearsUserFor(t *testing.T) {
	tk := New()
	value := tk.Register("bob", time.Now().Add(time.Hour))
	if got := tk.UserFor(value); got != "bob" {
		t.Fatalf("UserFor(value) = %q, want bob", got)
	}
	tk.Expire(value)
	if got := tk.UserFor(value); got != "" {
		t.Fatalf("UserFor(value) after Expire = %q, want empty", got)
	}
	// Second call must not panic or notify watchers again.
	tk.Expire(value)
}

func TestExpireNotifiesWatchersOnce(t *testing.T) {
	tk := New()
	var notified []string
	tk.OnExpire(func(value string) { notified = append(notified, value) })

	value := tk.Register("carol", time.Now().Add(time.Hour))
	tk.Expire(value)
	tk.Expire(value)

	if len(notified) != 1 || notified[0] != value {
		t.Fatalf("notified = %v, want exactly one notification for %q", notified, value)
	}
}
