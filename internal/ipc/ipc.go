// SPDX-License-Identifier: MIT
// C9's typed local-IPC surface, per spec.md §1/§6: "the daemon's IPC
// registration" is out of scope (the transport — D-Bus, a unix socket,
// whatever the platform provides — is an external collaborator), but
// the operation surface it carries is this package's concern, specified
// only at the interface it consumes.
package ipc

import (
	"context"

	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/plugins"
	"github.com/queued/queued/internal/reports"
)

// Service is the typed surface a local-IPC transport dispatches onto,
// mirroring the HTTP/JSON API (spec.md §6) one-for-one so the daemon's
// own CLI can reach every operation without going through the network
// stack. Transport framing (the system bus registration itself) is
// outside this package's scope.
type Service interface {
	Authenticate(name, password string) (string, error)

	AddTask(ctx context.Context, token string, edit model.TaskEdit) (model.Task, error)
	EditTask(ctx context.Context, token string, taskID int64, edit model.TaskEdit) error
	StartTask(ctx context.Context, token string, taskID int64) error
	StopTask(ctx context.Context, token string, taskID int64) error
	GetTask(ctx context.Context, token string, taskID int64) (model.Task, error)
	TaskReport(ctx context.Context, token string, userID int64, from, to string) ([]model.Task, error)

	AddUser(ctx context.Context, token string, usr model.User) (model.User, error)
	EditUser(ctx context.Context, token string, userID int64, edit model.UserEdit) error
	GetUserByName(token, name string) (model.User, error)
	GetUserByID(token string, id int64) (model.User, error)
	UserReport(ctx context.Context, token, lastLogged string, permission model.Permission) ([]model.User, error)
	SetPermission(ctx context.Context, token string, userID int64, mask model.Permission) error

	GetOption(token, key string) (string, error)
	SetOption(ctx context.Context, token, key, value string) error

	AddPlugin(token, name, kind string, opts map[string]string) error
	RemovePlugin(token, name string) error
	ListPlugins(token string) ([]string, error)
	PluginSpecification(token, name string) (plugins.Specification, error)
	PluginOptions(token, name string) (map[string]string, error)

	PerformanceReport(ctx context.Context, token, from, to string) ([]reports.UsagePoint, error)
}

// CoreFacade must satisfy Service — the local-IPC transport and the
// HTTP router dispatch onto the exact same C9 entry point.
var _ Service = (*core.Facade)(nil)
