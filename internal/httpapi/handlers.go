// SPDX-License-Identifier: MIT
// Grounded on server/handler/admin.go's token-then-permission-then-
// delegate handler shape, adapted to delegate wholesale to CoreFacade
// (C9) rather than re-implementing any gating here: every handler below
// is a thin JSON decode/encode shim.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/plugins"
	"github.com/queued/queued/internal/version"
)

type handlers struct {
	facade *core.Facade
}

func decodeBody(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeOK(w, version.Status())
}

// --- /auth ---

type authRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (h *handlers) authenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeBody(r, &req); err != nil || req.User == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "user and password are required"})
		return
	}
	token, err := h.facade.Authenticate(req.User, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]string{"token": token})
}

// --- /option/<key> ---

type optionSetRequest struct {
	Value string `json:"value"`
}

func (h *handlers) getOption(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.facade.GetOption(tokenFromContext(r), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]string{"key": key, "value": value})
}

func (h *handlers) setOption(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req optionSetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "malformed body"})
		return
	}
	if err := h.facade.SetOption(r.Context(), tokenFromContext(r), key, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- /permissions/<userId> ---

type permissionRequest struct {
	Permission model.Permission `json:"permission"`
}

func (h *handlers) addPermission(w http.ResponseWriter, r *http.Request) {
	h.mutatePermission(w, r, true)
}

func (h *handlers) removePermission(w http.ResponseWriter, r *http.Request) {
	h.mutatePermission(w, r, false)
}

func (h *handlers) mutatePermission(w http.ResponseWriter, r *http.Request, add bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "userId must be numeric"})
		return
	}
	var req permissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "malformed body"})
		return
	}
	usr, err := h.facade.GetUserByID(tokenFromContext(r), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	mask := usr.Permissions
	if add {
		mask |= req.Permission
	} else {
		mask &^= req.Permission
	}
	if err := h.facade.SetPermission(r.Context(), tokenFromContext(r), userID, mask); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- /plugin/<name>, /plugins ---

type pluginAddRequest struct {
	Kind    string            `json:"kind"`
	Options map[string]string `json:"options"`
}

func (h *handlers) addPlugin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req pluginAddRequest
	if err := decodeBody(r, &req); err != nil || req.Kind == "" {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "kind is required"})
		return
	}
	if err := h.facade.AddPlugin(tokenFromContext(r), name, req.Kind, req.Options); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, nil)
}

func (h *handlers) removePlugin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.facade.RemovePlugin(tokenFromContext(r), name); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, nil)
}

func (h *handlers) listPlugins(w http.ResponseWriter, r *http.Request) {
	names, err := h.facade.ListPlugins(tokenFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, names)
}

type pluginInfoResponse struct {
	Specification plugins.Specification `json:"specification"`
	Options       map[string]string     `json:"options"`
}

func (h *handlers) getPlugin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	token := tokenFromContext(r)
	spec, err := h.facade.PluginSpecification(token, name)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := h.facade.PluginOptions(token, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, pluginInfoResponse{Specification: spec, Options: opts})
}

// --- /reports ---

func (h *handlers) reports(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	points, err := h.facade.PerformanceReport(r.Context(), tokenFromContext(r), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, points)
}

// --- /task[/<id>], /tasks ---

type taskRequest struct {
	Command          *string        `json:"command"`
	Arguments        []string       `json:"arguments"`
	WorkingDirectory *string        `json:"working_directory"`
	UID              *int           `json:"uid"`
	GID              *int           `json:"gid"`
	Nice             *int           `json:"nice"`
	Limits           *model.Limits  `json:"limits"`
}

func (t taskRequest) toEdit() model.TaskEdit {
	return model.TaskEdit{
		Command:          t.Command,
		Arguments:        t.Arguments,
		WorkingDirectory: t.WorkingDirectory,
		UID:              t.UID,
		GID:              t.GID,
		Nice:             t.Nice,
		Limits:           t.Limits,
	}
}

func (h *handlers) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "id must be numeric"})
		return
	}
	task, err := h.facade.GetTask(r.Context(), tokenFromContext(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, task)
}

func (h *handlers) addTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeBody(r, &req); err != nil || req.Command == nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "command is required"})
		return
	}
	task, err := h.facade.AddTask(r.Context(), tokenFromContext(r), req.toEdit())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, task)
}

func (h *handlers) editTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "id must be numeric"})
		return
	}
	var req taskRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "malformed body"})
		return
	}
	if err := h.facade.EditTask(r.Context(), tokenFromContext(r), id, req.toEdit()); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, nil)
}

type toggleRequest struct {
	Action string `json:"action"`
}

func (h *handlers) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "id must be numeric"})
		return
	}
	var req toggleRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "malformed body"})
		return
	}
	switch req.Action {
	case "start":
		err = h.facade.StartTask(r.Context(), tokenFromContext(r), id)
	case "stop":
		err = h.facade.StopTask(r.Context(), tokenFromContext(r), id)
	default:
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: `action must be "start" or "stop"`})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, nil)
}

func (h *handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, _ := strconv.ParseInt(q.Get("user"), 10, 64)
	tasks, err := h.facade.TaskReport(r.Context(), tokenFromContext(r), userID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, tasks)
}

// --- /user/<name>, /users ---

type userRequest struct {
	Email       *string          `json:"email"`
	Password    *string          `json:"password"`
	Permissions *model.Permission `json:"permissions"`
	Priority    *int64           `json:"priority"`
	Limits      *model.Limits    `json:"limits"`
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	usr, err := h.facade.GetUserByName(tokenFromContext(r), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, usr)
}

// addOrEditUser implements /user/<name>'s combined "get, add/edit"
// POST semantics: edit the row if name already resolves, otherwise
// create it.
func (h *handlers) addOrEditUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "malformed body"})
		return
	}

	existing, err := h.facade.GetUserByName(tokenFromContext(r), name)
	if err == nil {
		edit := model.UserEdit{
			Email:       req.Email,
			Password:    req.Password,
			Permissions: req.Permissions,
			Priority:    req.Priority,
			Limits:      req.Limits,
		}
		if err := h.facade.EditUser(r.Context(), tokenFromContext(r), existing.ID, edit); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, nil)
		return
	}

	if req.Password == nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{OK: false, Error: "INVALID_ARGUMENT", Message: "password is required to create a user"})
		return
	}
	usr := model.User{Name: name}
	if req.Email != nil {
		usr.Email = *req.Email
	}
	if req.Permissions != nil {
		usr.Permissions = *req.Permissions
	}
	if req.Priority != nil {
		usr.Priority = *req.Priority
	}
	if req.Limits != nil {
		usr.Limits = *req.Limits
	}
	usr.PasswordHash = h.facade.HashForCreate(*req.Password)
	created, err := h.facade.AddUser(r.Context(), tokenFromContext(r), usr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, created)
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	permission := model.Permission(0)
	if v, err := strconv.ParseUint(q.Get("permission"), 10, 32); err == nil {
		permission = model.Permission(v)
	}
	users, err := h.facade.UserReport(r.Context(), tokenFromContext(r), q.Get("lastLogged"), permission)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, users)
}
