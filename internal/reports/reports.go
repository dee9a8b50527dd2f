// SPDX-License-Identifier: MIT
// C10: read-only aggregation queries over the store.
//
// Grounded on server/handler/admin.go's stats-aggregation handlers
// (scanning a table and reducing into a summary struct), generalized
// from dashboard counters to the three report shapes spec.md §4.10
// names: per-user performance, filtered task listing, filtered user
// listing.
package reports

import (
	"context"

	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/resourcegroup"
	"github.com/queued/queued/internal/store"
)

// Reports is C10's read-only query surface.
type Reports struct {
	st *store.Store
}

// New binds a Reports surface to the store.
func New(st *store.Store) *Reports {
	return &Reports{st: st}
}

// UsagePoint is one user's aggregated resource usage within a window.
type UsagePoint struct {
	UserID      int64
	CPUSeconds  float64
	MemSeconds  float64
	TaskCount   int64
}

// Performance aggregates per-user CPU/memory usage (weight * elapsed
// seconds, summed across every finished task that started after from,
// or has no start time, and ended before to) per
// spec.md §4.10: a task's 0-valued limit axis substitutes the host
// total for that axis before multiplying.
func (r *Reports) Performance(ctx context.Context, from, to string) ([]UsagePoint, error) {
	cond := &store.Condition{
		Clause: "(start_time > ? OR start_time IS NULL) AND (end_time < ? AND end_time IS NOT NULL)",
		Args:   []any{from, to},
	}
	rows, err := r.st.Get(ctx, store.TableTasks, cond)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64]*UsagePoint)
	for _, row := range rows {
		userID, _ := row["user_id"].(int64)
		startStr, _ := row["start_time"].(string)
		endStr, _ := row["end_time"].(string)
		limitsStr, _ := row["limits"].(string)

		start, err1 := store.ParseTime(startStr)
		end, err2 := store.ParseTime(endStr)
		if err1 != nil || err2 != nil {
			continue
		}
		elapsed := end.Sub(start).Seconds()
		if elapsed < 0 {
			continue
		}

		limits := model.DecodeLimits(limitsStr)
		cpuWeight := resourcegroup.CPUWeight(limits.CPU)
		memWeight := resourcegroup.MemoryWeight(limits.Memory)

		pt, ok := byUser[userID]
		if !ok {
			pt = &UsagePoint{UserID: userID}
			byUser[userID] = pt
		}
		pt.CPUSeconds += cpuWeight * elapsed
		pt.MemSeconds += memWeight * elapsed
		pt.TaskCount++
	}

	out := make([]UsagePoint, 0, len(byUser))
	for _, pt := range byUser {
		out = append(out, *pt)
	}
	return out, nil
}

// Tasks lists a user's tasks whose start_time falls within [from, to].
// An empty user selects every user's tasks.
func (r *Reports) Tasks(ctx context.Context, userID int64, from, to string) ([]model.Task, error) {
	clause := "start_time IS NOT NULL AND start_time >= ? AND start_time <= ?"
	args := []any{from, to}
	if userID != 0 {
		clause = "user_id = ? AND " + clause
		args = append([]any{userID}, args...)
	}

	rows, err := r.st.Get(ctx, store.TableTasks, &store.Condition{Clause: clause, Args: args})
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToTask(row))
	}
	return out, nil
}

// Users lists users whose last login is at or after lastLogged and
// whose permission bitmask overlaps the given filter (HasAny), per
// spec.md §4.10. A zero-valued permission filter matches every user.
func (r *Reports) Users(ctx context.Context, lastLogged string, permission model.Permission) ([]model.User, error) {
	cond := &store.Condition{Clause: "last_login >= ?", Args: []any{lastLogged}}
	rows, err := r.st.Get(ctx, store.TableUsers, cond)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(rows))
	for _, row := range rows {
		usr := rowToUser(row)
		if model.HasAny(usr.Permissions, permission) {
			out = append(out, usr)
		}
	}
	return out, nil
}

func rowToTask(r store.Row) model.Task {
	t := model.Task{}
	if v, ok := r["_id"].(int64); ok {
		t.ID = v
	}
	if v, ok := r["user_id"].(int64); ok {
		t.UserID = v
	}
	if v, ok := r["command"].(string); ok {
		t.Command = v
	}
	if v, ok := r["nice"].(int64); ok {
		t.Nice = int(v)
	}
	if v, ok := r["limits"].(string); ok {
		t.Limits = model.DecodeLimits(v)
	}
	if v, ok := r["start_time"].(string); ok && v != "" {
		if ts, err := store.ParseTime(v); err == nil {
			t.StartTime = &ts
		}
	}
	if v, ok := r["end_time"].(string); ok && v != "" {
		if ts, err := store.ParseTime(v); err == nil {
			t.EndTime = &ts
		}
	}
	return t
}

func rowToUser(r store.Row) model.User {
	u := model.User{}
	if v, ok := r["_id"].(int64); ok {
		u.ID = v
	}
	if v, ok := r["name"].(string); ok {
		u.Name = v
	}
	if v, ok := r["email"].(string); ok {
		u.Email = v
	}
	if v, ok := r["permissions"].(int64); ok {
		u.Permissions = model.Permission(v)
	}
	if v, ok := r["priority"].(int64); ok {
		u.Priority = v
	}
	if v, ok := r["last_login"].(string); ok && v != "" {
		if ts, err := store.ParseTime(v); err == nil {
			u.LastLogin = &ts
		}
	}
	return u
}
