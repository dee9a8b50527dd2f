// SPDX-License-Identifier: MIT
// C8: fire-and-forget event-sink registry.
//
// Grounded on server/service/engine/manager.go's name->implementation
// registry (mutex-guarded map, register/lookup/iterate), generalized
// from "named search engines queried for results" to "named plugins
// notified of lifecycle events". Dispatch is deliberately fire-and-forget
// (one goroutine per sink per event) so a slow or wedged plugin can never
// stall the scheduler's serializer, per spec.md §4.8.
package plugins

import (
	"sync"

	"github.com/queued/queued/internal/logging"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/users"
)

// Specification is a plugin's self-reported identity, per spec.md §4.8.
type Specification struct {
	Name        string
	Version     string
	Description string
}

// EventSink is the fixed set of lifecycle notifications a plugin may
// receive. The set is closed — spec.md §4.8 is explicit that plugins are
// not a general extension mechanism, only an event-observation one.
type EventSink interface {
	Specification() Specification
	Options() map[string]string
	OnAddTask(task model.Task)
	OnEditTask(task model.Task)
	OnStartTask(task model.Task)
	OnStopTask(task model.Task)
	OnAddUser(user model.User)
	OnEditUser(user model.User)
	OnAddPlugin(name string)
	OnRemovePlugin(name string)
	OnEditOption(key, value string)
}

// Manager is C8's plugin registry. It mints one administrative bearer
// token at construction time (via Users.AuthorizeUnchecked) so plugin
// hosts can call back into the HTTP API with full privilege without a
// password, per spec.md §4.8.
type Manager struct {
	mu    sync.RWMutex
	sinks map[string]EventSink
	token string
	log   *logging.Logger
}

// New mints the plugin-host token under hostUser and returns an empty
// registry.
func New(usr *users.Users, hostUser string, log *logging.Logger) *Manager {
	return &Manager{
		sinks: make(map[string]EventSink),
		token: usr.AuthorizeUnchecked(hostUser),
		log:   log,
	}
}

// Token returns the administrative bearer token minted for plugin hosts.
func (m *Manager) Token() string {
	return m.token
}

// Register adds a plugin and fires OnAddPlugin to every registered
// plugin, the new one included.
func (m *Manager) Register(name string, sink EventSink) {
	m.mu.Lock()
	m.sinks[name] = sink
	m.mu.Unlock()
	m.dispatch(func(s EventSink) { s.OnAddPlugin(name) })
}

// Remove drops a plugin and fires OnRemovePlugin to the remainder.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	delete(m.sinks, name)
	m.mu.Unlock()
	m.dispatch(func(s EventSink) { s.OnRemovePlugin(name) })
}

// Names lists every currently registered plugin, sorted is the caller's
// concern (used by the plugin-list CLI command / HTTP handler).
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sinks))
	for name := range m.sinks {
		out = append(out, name)
	}
	return out
}

// Specification returns the named plugin's self-reported identity.
func (m *Manager) Specification(name string) (Specification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sinks[name]
	if !ok {
		return Specification{}, false
	}
	return s.Specification(), true
}

// Options returns the named plugin's current option map.
func (m *Manager) Options(name string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sinks[name]
	if !ok {
		return nil, false
	}
	return s.Options(), true
}

func (m *Manager) OnAddTask(task model.Task)    { m.dispatch(func(s EventSink) { s.OnAddTask(task) }) }
func (m *Manager) OnEditTask(task model.Task)   { m.dispatch(func(s EventSink) { s.OnEditTask(task) }) }
func (m *Manager) OnStartTask(task model.Task)  { m.dispatch(func(s EventSink) { s.OnStartTask(task) }) }
func (m *Manager) OnStopTask(task model.Task)   { m.dispatch(func(s EventSink) { s.OnStopTask(task) }) }
func (m *Manager) OnAddUser(usr model.User)     { m.dispatch(func(s EventSink) { s.OnAddUser(usr) }) }
func (m *Manager) OnEditUser(usr model.User)    { m.dispatch(func(s EventSink) { s.OnEditUser(usr) }) }

func (m *Manager) OnEditOption(key, value string) {
	m.dispatch(func(s EventSink) { s.OnEditOption(key, value) })
}

// dispatch fans fn out to every registered sink on its own goroutine,
// recovering panics so one misbehaving plugin never takes down the
// caller (the scheduler's serializer or CoreFacade), per spec.md §4.8.
func (m *Manager) dispatch(fn func(EventSink)) {
	m.mu.RLock()
	sinks := make([]EventSink, 0, len(m.sinks))
	for _, s := range m.sinks {
		sinks = append(sinks, s)
	}
	m.mu.RUnlock()

	for _, sink := range sinks {
		go func(s EventSink) {
			defer func() {
				if r := recover(); r != nil && m.log != nil {
					m.log.Error("plugin panicked", map[string]any{"panic": r})
				}
			}()
			fn(s)
		}(sink)
	}
}
