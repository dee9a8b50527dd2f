// SPDX-License-Identifier: MIT
// C9: CoreFacade — the single gated entry point every external surface
// (HTTP API, CLI, plugin host) calls through.
//
// Grounded on server/handler/admin.go's token-then-permission-then-delegate
// shape (every admin handler resolves a session, checks a permission bit,
// then calls into a service), generalized from HTTP-request-scoped gating
// to a transport-agnostic facade that both the HTTP layer and the CLI's
// local-socket path can share.
package core

import (
	"context"
	"strconv"

	"github.com/queued/queued/internal/apierrors"
	"github.com/queued/queued/internal/metrics"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/plugins"
	"github.com/queued/queued/internal/reports"
	"github.com/queued/queued/internal/scheduler"
	"github.com/queued/queued/internal/settings"
	"github.com/queued/queued/internal/store"
	"github.com/queued/queued/internal/tokens"
	"github.com/queued/queued/internal/users"
)

var (
	errInvalidToken = apierrors.New(apierrors.KindInvalidToken, "token is missing, unknown, or expired")
	errNoPermission = apierrors.New(apierrors.KindInsufficientPermissions, "caller lacks the required permission")
	errNotFound     = apierrors.New(apierrors.KindInvalidArgument, "no such record")
	errNotPending   = apierrors.New(apierrors.KindInvalidArgument, "task is not pending")
)

// Facade is C9. It never talks to the network or the filesystem
// directly; it composes C1-C8 and enforces spec.md §4.9's gating rules
// on top of them.
type Facade struct {
	st       *store.Store
	settings *settings.Settings
	tokens   *tokens.Tokens
	users    *users.Users
	sched    *scheduler.Scheduler
	plugins  *plugins.Manager
	reports  *reports.Reports
}

// New wires the facade to its dependencies. All of them must already be
// constructed and (for Users/Tokens/Settings) bulk-loaded.
func New(st *store.Store, set *settings.Settings, tok *tokens.Tokens, usr *users.Users, sched *scheduler.Scheduler, pl *plugins.Manager, rep *reports.Reports) *Facade {
	return &Facade{st: st, settings: set, tokens: tok, users: usr, sched: sched, plugins: pl, reports: rep}
}

// caller resolves a bearer token to its owning user, failing closed.
func (f *Facade) caller(token string) (*model.User, error) {
	usr, ok := f.users.ByToken(token)
	if !ok {
		return nil, errInvalidToken
	}
	return usr, nil
}

func (f *Facade) requirePermission(usr *model.User, p model.Permission) error {
	if !model.Has(usr.Permissions, p) {
		return errNoPermission
	}
	return nil
}

// Authenticate verifies name/password and returns a freshly minted
// bearer token, per spec.md §4.9's /auth operation.
func (f *Facade) Authenticate(name, password string) (string, error) {
	expirationDays := 30
	if v := f.settings.Get("TokenExpiration"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			expirationDays = d
		}
	}
	value := f.users.Authorize(name, password, expirationDays)
	if value == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("rejected").Inc()
		return "", apierrors.New(apierrors.KindInvalidPassword, "invalid username or password")
	}
	metrics.AuthAttemptsTotal.WithLabelValues("accepted").Inc()
	metrics.ActiveTokens.Inc()
	return value, nil
}

// AddTask admits a new task definition, applying MinimalLimits and the
// token-owner's nice-clamp, per spec.md §4.9.
func (f *Facade) AddTask(ctx context.Context, token string, edit model.TaskEdit) (model.Task, error) {
	usr, err := f.caller(token)
	if err != nil {
		return model.Task{}, err
	}
	if err := f.requirePermission(usr, model.PermissionJob); err != nil {
		return model.Task{}, err
	}

	task := model.Task{UserID: usr.ID}
	applyTaskEdit(&task, edit)

	defLimits := model.DecodeLimits(f.settings.Get("DefaultLimits"))
	task.Limits = model.MinimalLimits(task.Limits, usr.Limits, defLimits)
	if task.Nice < 0 {
		task.Nice = 0
	}
	// spec.md §4.9: addTask clamps nice to min(requested, owner.priority).
	if task.Nice > usr.Priority {
		task.Nice = usr.Priority
	}

	id := f.st.Add(ctx, store.TableTasks, taskToRow(task))
	if id == -1 {
		return model.Task{}, apierrors.New(apierrors.KindError, "failed to persist task")
	}
	task.ID = id

	f.sched.Submit(task)
	f.plugins.OnAddTask(task)
	return task, nil
}

// EditTask applies a partial update to a pending task, projecting
// non-admin edits down to Arguments/Nice, per spec.md §4.9.
func (f *Facade) EditTask(ctx context.Context, token string, taskID int64, edit model.TaskEdit) error {
	usr, err := f.caller(token)
	if err != nil {
		return err
	}

	isAdmin := model.Has(usr.Permissions, model.PermissionAdmin)
	if !isAdmin {
		edit = model.DropNonAdminFieldsTask(edit)
	}

	row, err := f.st.GetByID(ctx, store.TableTasks, taskID)
	if err != nil || row == nil {
		return errNotFound
	}
	task := rowToTaskPublic(row)
	if !isAdmin && task.UserID != usr.ID {
		return errNoPermission
	}
	if task.ComputeState() != model.StatePending {
		return errNotPending
	}

	applyTaskEdit(&task, edit)
	if !f.st.Modify(ctx, store.TableTasks, taskID, taskToRow(task)) {
		return apierrors.New(apierrors.KindError, "failed to persist task edit")
	}
	f.plugins.OnEditTask(task)
	return nil
}

// StartTask forces a pending task to start immediately, bypassing
// admission, per spec.md §4.9's administrative override.
func (f *Facade) StartTask(ctx context.Context, token string, taskID int64) error {
	usr, err := f.caller(token)
	if err != nil {
		return err
	}
	if err := f.requirePermission(usr, model.PermissionAdmin); err != nil {
		return err
	}
	row, err := f.st.GetByID(ctx, store.TableTasks, taskID)
	if err != nil || row == nil {
		return errNotFound
	}
	task := rowToTaskPublic(row)
	if err := f.sched.ForceStart(task); err != nil {
		return apierrors.Errorf(apierrors.KindError, "starting task: %v", err)
	}
	f.plugins.OnStartTask(task)
	return nil
}

// StopTask stops a live task, per spec.md §4.9.
func (f *Facade) StopTask(ctx context.Context, token string, taskID int64) error {
	usr, err := f.caller(token)
	if err != nil {
		return err
	}
	if !model.Has(usr.Permissions, model.PermissionAdmin) && !model.Has(usr.Permissions, model.PermissionJob) {
		return errNoPermission
	}
	action := model.OnExitKill
	if v := f.settings.Get("OnExitAction"); v == "1" {
		action = model.OnExitTerminate
	}
	if err := f.sched.ForceStop(taskID, action); err != nil {
		return err
	}
	row, _ := f.st.GetByID(ctx, store.TableTasks, taskID)
	if row != nil {
		f.plugins.OnStopTask(rowToTaskPublic(row))
	}
	return nil
}

// GetTask returns the full task row by id to any caller with a valid
// token; no field is hidden, here or in the HTTP handler, matching
// spec.md §4.9's "reads are never silently filtered" note.
func (f *Facade) GetTask(ctx context.Context, token string, taskID int64) (model.Task, error) {
	if _, err := f.caller(token); err != nil {
		return model.Task{}, err
	}
	row, err := f.st.GetByID(ctx, store.TableTasks, taskID)
	if err != nil || row == nil {
		return model.Task{}, errNotFound
	}
	return rowToTaskPublic(row), nil
}

// GetUserByName resolves name to its public row, for the HTTP layer's
// GET /user/<name> and as the existence check behind POST /user/<name>.
func (f *Facade) GetUserByName(token, name string) (model.User, error) {
	if _, err := f.caller(token); err != nil {
		return model.User{}, err
	}
	usr, ok := f.users.ByName(name)
	if !ok {
		return model.User{}, errNotFound
	}
	return *usr, nil
}

// GetUserByID resolves id to its public row, for /permissions/<userId>'s
// read-before-mutate mask lookup.
func (f *Facade) GetUserByID(token string, id int64) (model.User, error) {
	if _, err := f.caller(token); err != nil {
		return model.User{}, err
	}
	usr, ok := f.users.ByID(id)
	if !ok {
		return model.User{}, errNotFound
	}
	return *usr, nil
}

// HashForCreate hashes a plaintext password with the daemon's configured
// salt, for the HTTP layer's user-creation path (which must populate
// PasswordHash itself before calling AddUser).
func (f *Facade) HashForCreate(plain string) string {
	return f.users.Hash(plain)
}

// AddUser creates a new user row, admin-only.
func (f *Facade) AddUser(ctx context.Context, token string, usr model.User) (model.User, error) {
	caller, err := f.caller(token)
	if err != nil {
		return model.User{}, err
	}
	if err := f.requirePermission(caller, model.PermissionAdmin); err != nil {
		return model.User{}, err
	}
	id := f.st.Add(ctx, store.TableUsers, userToRow(usr))
	if id == -1 {
		return model.User{}, apierrors.New(apierrors.KindError, "failed to persist user")
	}
	usr.ID = id
	f.users.Add(&usr)
	f.plugins.OnAddUser(usr)
	return usr, nil
}

// EditUser applies a partial update, projecting non-admin self-edits
// down to Email/Password, per spec.md §4.9.
func (f *Facade) EditUser(ctx context.Context, token string, userID int64, edit model.UserEdit) error {
	caller, err := f.caller(token)
	if err != nil {
		return err
	}
	isAdmin := model.Has(caller.Permissions, model.PermissionAdmin)
	if !isAdmin {
		if caller.ID != userID {
			return errNoPermission
		}
		edit = model.DropNonAdminFields(edit)
	}

	usr, ok := f.users.ByID(userID)
	if !ok {
		return errNotFound
	}
	before := *usr
	applyUserEdit(usr, edit, f.users.Hash)

	if !f.st.Modify(ctx, store.TableUsers, userID, userToRow(*usr)) {
		*usr = before // rollback the in-memory mutation on write failure
		return apierrors.New(apierrors.KindError, "failed to persist user edit")
	}
	f.plugins.OnEditUser(*usr)
	return nil
}

// GetOption reads a setting, gated by its own admin-visibility flag.
func (f *Facade) GetOption(token, key string) (string, error) {
	caller, err := f.caller(token)
	if err != nil {
		return "", err
	}
	if f.settings.IsAdmin(key) {
		if err := f.requirePermission(caller, model.PermissionAdmin); err != nil {
			return "", err
		}
	}
	return f.settings.Get(key), nil
}

// SetOption writes a setting, admin-only regardless of the key's own
// visibility flag (only reads are gated per-key; writes always require
// Admin, per spec.md §4.9).
func (f *Facade) SetOption(ctx context.Context, token, key, value string) error {
	caller, err := f.caller(token)
	if err != nil {
		return err
	}
	if err := f.requirePermission(caller, model.PermissionAdmin); err != nil {
		return err
	}
	if err := f.settings.Set(ctx, f.st, key, value); err != nil {
		return err
	}
	f.plugins.OnEditOption(key, value)
	return nil
}

// SetPermission overwrites a user's permission bitmask, admin-only.
func (f *Facade) SetPermission(ctx context.Context, token string, userID int64, mask model.Permission) error {
	caller, err := f.caller(token)
	if err != nil {
		return err
	}
	if err := f.requirePermission(caller, model.PermissionAdmin); err != nil {
		return err
	}
	usr, ok := f.users.ByID(userID)
	if !ok {
		return errNotFound
	}
	before := usr.Permissions
	usr.Permissions = mask
	if !f.st.Modify(ctx, store.TableUsers, userID, store.Row{"permissions": int64(mask)}) {
		usr.Permissions = before
		return apierrors.New(apierrors.KindError, "failed to persist permission change")
	}
	f.plugins.OnEditUser(*usr)
	return nil
}

// PerformanceReport returns per-user usage aggregates in [from,to], per
// spec.md §4.9/§4.10: callers with Reports see every user; others see
// only their own row.
func (f *Facade) PerformanceReport(ctx context.Context, token, from, to string) ([]reports.UsagePoint, error) {
	usr, err := f.caller(token)
	if err != nil {
		return nil, err
	}
	points, err := f.reports.Performance(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if model.Has(usr.Permissions, model.PermissionReports) {
		return points, nil
	}
	out := make([]reports.UsagePoint, 0, 1)
	for _, p := range points {
		if p.UserID == usr.ID {
			out = append(out, p)
		}
	}
	return out, nil
}

// TaskReport lists tasks in [from,to] for userID, or for the caller when
// userID is -1 or 0; non-Reports callers may only query themselves.
func (f *Facade) TaskReport(ctx context.Context, token string, userID int64, from, to string) ([]model.Task, error) {
	usr, err := f.caller(token)
	if err != nil {
		return nil, err
	}
	if userID <= 0 {
		userID = usr.ID
	} else if userID != usr.ID {
		if err := f.requirePermission(usr, model.PermissionReports); err != nil {
			return nil, err
		}
	}
	return f.reports.Tasks(ctx, userID, from, to)
}

// UserReport lists users matching lastLogged/permission, Reports-only.
func (f *Facade) UserReport(ctx context.Context, token, lastLogged string, permission model.Permission) ([]model.User, error) {
	usr, err := f.caller(token)
	if err != nil {
		return nil, err
	}
	if err := f.requirePermission(usr, model.PermissionReports); err != nil {
		return nil, err
	}
	return f.reports.Users(ctx, lastLogged, permission)
}

// AddPlugin loads a built-in plugin kind under registry name name,
// admin-only, per spec.md §4.8/§6's POST /plugin/<name>.
func (f *Facade) AddPlugin(token, name, kind string, opts map[string]string) error {
	caller, err := f.caller(token)
	if err != nil {
		return err
	}
	if err := f.requirePermission(caller, model.PermissionAdmin); err != nil {
		return err
	}
	sink, err := plugins.NewSink(kind, opts)
	if err != nil {
		return apierrors.Errorf(apierrors.KindInvalidArgument, "%v", err)
	}
	f.plugins.Register(name, sink)
	return nil
}

// RemovePlugin unloads a registered plugin, admin-only.
func (f *Facade) RemovePlugin(token, name string) error {
	caller, err := f.caller(token)
	if err != nil {
		return err
	}
	if err := f.requirePermission(caller, model.PermissionAdmin); err != nil {
		return err
	}
	f.plugins.Remove(name)
	return nil
}

// ListPlugins returns every registered plugin's name.
func (f *Facade) ListPlugins(token string) ([]string, error) {
	if _, err := f.caller(token); err != nil {
		return nil, err
	}
	return f.plugins.Names(), nil
}

// PluginSpecification returns the named plugin's self-reported identity.
func (f *Facade) PluginSpecification(token, name string) (plugins.Specification, error) {
	if _, err := f.caller(token); err != nil {
		return plugins.Specification{}, err
	}
	spec, ok := f.plugins.Specification(name)
	if !ok {
		return plugins.Specification{}, errNotFound
	}
	return spec, nil
}

// PluginOptions returns the named plugin's current option map.
func (f *Facade) PluginOptions(token, name string) (map[string]string, error) {
	if _, err := f.caller(token); err != nil {
		return nil, err
	}
	opts, ok := f.plugins.Options(name)
	if !ok {
		return nil, errNotFound
	}
	return opts, nil
}

func applyTaskEdit(task *model.Task, e model.TaskEdit) {
	if e.Command != nil {
		task.Command = *e.Command
	}
	if e.Arguments != nil {
		task.Arguments = e.Arguments
	}
	if e.WorkingDirectory != nil {
		task.WorkingDirectory = *e.WorkingDirectory
	}
	if e.UID != nil {
		task.UID = *e.UID
	}
	if e.GID != nil {
		task.GID = *e.GID
	}
	if e.Nice != nil {
		task.Nice = *e.Nice
	}
	if e.Limits != nil {
		task.Limits = *e.Limits
	}
}

func applyUserEdit(usr *model.User, e model.UserEdit, hash func(string) string) {
	if e.Name != nil {
		usr.Name = *e.Name
	}
	if e.Email != nil {
		usr.Email = *e.Email
	}
	if e.Password != nil {
		usr.PasswordHash = hash(*e.Password)
	}
	if e.Permissions != nil {
		usr.Permissions = *e.Permissions
	}
	if e.Priority != nil {
		usr.Priority = *e.Priority
	}
	if e.Limits != nil {
		usr.Limits = *e.Limits
	}
}

func taskToRow(t model.Task) store.Row {
	row := store.Row{
		"user_id":           t.UserID,
		"command":           t.Command,
		"working_directory": t.WorkingDirectory,
		"uid":               int64(t.UID),
		"gid":               int64(t.GID),
		"nice":              int64(t.Nice),
		"limits":            model.EncodeLimits(t.Limits),
	}
	if len(t.Arguments) > 0 {
		joined := t.Arguments[0]
		for _, a := range t.Arguments[1:] {
			joined += "\n" + a
		}
		row["arguments"] = joined
	}
	if t.StartTime != nil {
		row["start_time"] = store.FormatTime(*t.StartTime)
	}
	if t.EndTime != nil {
		row["end_time"] = store.FormatTime(*t.EndTime)
	}
	return row
}

func rowToTaskPublic(r store.Row) model.Task {
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
	if v, ok := r["working_directory"].(string); ok {
		t.WorkingDirectory = v
	}
	if v, ok := r["uid"].(int64); ok {
		t.UID = int(v)
	}
	if v, ok := r["gid"].(int64); ok {
		t.GID = int(v)
	}
	if v, ok := r["nice"].(int64); ok {
		t.Nice = int(v)
	}
	if v, ok := r["limits"].(string); ok {
		t.Limits = model.DecodeLimits(v)
	}
	if v, ok := r["arguments"].(string); ok && v != "" {
		t.Arguments = splitArguments(v)
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

// splitArguments decodes the newline-joined argument wire encoding, the
// same scheme taskToRow's joined write uses.
func splitArguments(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func userToRow(u model.User) store.Row {
	row := store.Row{
		"name":           u.Name,
		"email":          u.Email,
		"password_hash":  u.PasswordHash,
		"permissions":    int64(u.Permissions),
		"priority":       u.Priority,
		"limits":         model.EncodeLimits(u.Limits),
	}
	if u.LastLogin != nil {
		row["last_login"] = store.FormatTime(*u.LastLogin)
	}
	return row
}
