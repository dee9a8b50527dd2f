// SPDX-License-Identifier: MIT
package settings

import (
	"context"
	"testing"

	"github.com/queued/queued/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestGetFallsBackToDeclaredDefault(t *testing.T) {
	s := New()
	if got := s.Get("ServerPort"); got == "" {
		t.Fatalf("Get(ServerPort) = empty, want a declared default")
	}
	if got := s.Get("NoSuchKey"); got != "" {
		t.Fatalf("Get(unknown key) = %q, want empty", got)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	s := New()
	want := s.Get("ServerPort")
	if got := s.Get("serverport"); got != want {
		t.Fatalf("Get(serverport) = %q, want %q (case-insensitive match)", got, want)
	}
}

func TestSetPersistsAndUpdatesCache(t *testing.T) {
	st := openTestStore(t)
	s := New()
	ctx := context.Background()

	var events []ChangeEvent
	s.Subscribe(func(e ChangeEvent) { events = append(events, e) })

	if err := s.Set(ctx, st, "ServerPort", "9090"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get("ServerPort"); got != "9090" {
		t.Fatalf("Get(ServerPort) after Set = %q, want 9090", got)
	}
	if len(events) != 1 || events[0].Value != "9090" {
		t.Fatalf("events = %v, want one ChangeEvent with value 9090", events)
	}

	// Overwriting an existing key must reuse its row id, not insert a
	// second row.
	firstID := s.IDOf("ServerPort")
	if err := s.Set(ctx, st, "ServerPort", "9091"); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	if s.IDOf("ServerPort") != firstID {
		t.Fatalf("IDOf changed across overwrite: %d -> %d", firstID, s.IDOf("ServerPort"))
	}
}

func TestBulkLoadHydratesCache(t *testing.T) {
	s := New()
	s.BulkLoad([]store.Row{
		{"_id": int64(1), "key": "ServerPort", "value": "9999", "admin_only": int64(1)},
	})
	if got := s.Get("ServerPort"); got != "9999" {
		t.Fatalf("Get after BulkLoad = %q, want 9999", got)
	}
	if !s.IsAdmin("ServerPort") {
		t.Fatalf("IsAdmin(ServerPort) = false, want true after bulk load of admin_only=1")
	}
}
