// SPDX-License-Identifier: MIT
package core

import (
	"context"
	"testing"

	"github.com/queued/queued/internal/logging"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/plugins"
	"github.com/queued/queued/internal/reports"
	"github.com/queued/queued/internal/scheduler"
	"github.com/queued/queued/internal/settings"
	"github.com/queued/queued/internal/store"
	"github.com/queued/queued/internal/tokens"
	"github.com/queued/queued/internal/users"
)

// harness wires every C1-C10 component the way main() does, minus
// sched.Start (so admission never actually spawns an OS child — tests
// in this file exercise CoreFacade's gating and persistence, not the
// process supervisor).
type harness struct {
	facade *Facade
	st     *store.Store
	usr    *users.Users
	tok    *tokens.Tokens
	set    *settings.Settings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	set := settings.New()
	tok := tokens.New()
	usr := users.New(tok, "pepper")
	sched := scheduler.New(st, set, logging.New(nil, logging.FormatJSON))
	pl := plugins.New(usr, "queued-plugins", logging.New(nil, logging.FormatJSON))
	rep := reports.New(st)

	return &harness{
		facade: New(st, set, tok, usr, sched, pl, rep),
		st:     st,
		usr:    usr,
		tok:    tok,
		set:    set,
	}
}

func (h *harness) addUser(t *testing.T, name string, perm model.Permission, limits model.Limits) *model.User {
	t.Helper()
	ctx := context.Background()
	u := model.User{Name: name, Permissions: perm, Limits: limits, PasswordHash: users.HashPassword("pw", "pepper")}
	id := h.st.Add(ctx, store.TableUsers, userToRow(u))
	if id == -1 {
		t.Fatalf("seeding user %s failed", name)
	}
	u.ID = id
	h.usr.Add(&u)
	return &u
}

// TestBootstrapAdminAuthenticatesAndManagesUsers covers the bootstrap
// seed scenario: a freshly seeded admin can authenticate and create a
// second, non-admin user through CoreFacade's gated surface.
func TestBootstrapAdminAuthenticatesAndManagesUsers(t *testing.T) {
	h := newHarness(t)
	h.addUser(t, "root", model.PermissionSuperAdmin, model.Limits{})

	token, err := h.facade.Authenticate("root", "pw")
	if err != nil || token == "" {
		t.Fatalf("Authenticate(root) = %q, %v", token, err)
	}

	created, err := h.facade.AddUser(context.Background(), token, model.User{
		Name: "alice", Permissions: model.PermissionJob, PasswordHash: users.HashPassword("alicepw", "pepper"),
	})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("created user has no ID")
	}

	got, err := h.facade.GetUserByName(token, "alice")
	if err != nil || got.Name != "alice" {
		t.Fatalf("GetUserByName(alice) = %+v, %v", got, err)
	}
}

// TestSubmitTaskAppliesMinimalLimitsAndNiceClamp covers the
// submit-then-schedule seed scenario's admission-input side: a
// non-admin caller's task is clamped to the tighter of task/user/default
// limits, and a negative nice (priority boost) is reset to 0.
func TestSubmitTaskAppliesMinimalLimitsAndNiceClamp(t *testing.T) {
	h := newHarness(t)
	h.addUser(t, "root", model.PermissionSuperAdmin, model.Limits{})
	h.addUser(t, "bob", model.PermissionJob, model.Limits{CPU: 2, Memory: 512})

	token, err := h.facade.Authenticate("bob", "pw")
	if err != nil {
		t.Fatalf("Authenticate(bob): %v", err)
	}

	nice := -5
	cpu := int64(8) // above bob's own CPU limit of 2
	task, err := h.facade.AddTask(context.Background(), token, model.TaskEdit{
		Command: strPtr("sleep"),
		Nice:    &nice,
		Limits:  &model.Limits{CPU: cpu},
	})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.Nice != 0 {
		t.Fatalf("Nice = %d, want 0 (non-admin cannot raise priority)", task.Nice)
	}
	if task.Limits.CPU != 2 {
		t.Fatalf("Limits.CPU = %d, want 2 (clamped to user's own limit)", task.Limits.CPU)
	}

	row, err := h.st.GetByID(context.Background(), store.TableTasks, task.ID)
	if err != nil || row == nil {
		t.Fatalf("persisted task not found: %v", err)
	}
}

// TestSetPermissionRollsBackOnPersistFailure covers the
// permission-edit-rollback seed scenario: if the store write fails, the
// in-memory permission mask must revert to its pre-edit value rather
// than drift out of sync with what was actually persisted.
func TestSetPermissionRollsBackOnPersistFailure(t *testing.T) {
	h := newHarness(t)
	admin := h.addUser(t, "root", model.PermissionSuperAdmin, model.Limits{})
	target := h.addUser(t, "carol", model.PermissionJob, model.Limits{})

	token, err := h.facade.Authenticate("root", "pw")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	h.st.Close() // force every subsequent store write to fail

	before := target.Permissions
	err = h.facade.SetPermission(context.Background(), token, target.ID, model.PermissionAdmin)
	if err == nil {
		t.Fatalf("SetPermission succeeded despite closed store")
	}
	if target.Permissions != before {
		t.Fatalf("Permissions = %d after failed persist, want unchanged %d", target.Permissions, before)
	}
	_ = admin
}

// TestTaskReportWindowIsClosedOnBothEnds covers the report-closure
// invariant: TaskReport([from,to]) includes tasks whose start_time
// equals either boundary and excludes tasks outside it.
func TestTaskReportWindowIsClosedOnBothEnds(t *testing.T) {
	h := newHarness(t)
	admin := h.addUser(t, "root", model.PermissionSuperAdmin, model.Limits{})
	ctx := context.Background()

	seed := func(start string) int64 {
		return h.st.Add(ctx, store.TableTasks, store.Row{
			"user_id": admin.ID, "command": "echo", "start_time": start,
		})
	}
	seed("2026-01-01T00:00:00Z")    // before window
	inWindowLo := seed("2026-01-02T00:00:00Z") // window lower bound, inclusive
	inWindowHi := seed("2026-01-03T00:00:00Z") // window upper bound, inclusive
	seed("2026-01-04T00:00:00Z")    // after window

	token, err := h.facade.Authenticate("root", "pw")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	got, err := h.facade.TaskReport(ctx, token, admin.ID, "2026-01-02T00:00:00Z", "2026-01-03T00:00:00Z")
	if err != nil {
		t.Fatalf("TaskReport: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(TaskReport) = %d, want 2", len(got))
	}
	seen := map[int64]bool{}
	for _, tsk := range got {
		seen[tsk.ID] = true
	}
	if !seen[inWindowLo] || !seen[inWindowHi] {
		t.Fatalf("TaskReport missing boundary tasks: got ids %v, want %d and %d", keys(seen), inWindowLo, inWindowHi)
	}
}

func strPtr(s string) *string { return &s }

func keys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
