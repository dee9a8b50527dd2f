// SPDX-License-Identifier: MIT
// C2: typed advanced-setting map with admin-visibility flags and change
// notifications, grounded on config/config.go's typed config sections.
package settings

import (
	"context"
	"strings"
	"sync"

	"github.com/queued/queued/internal/apierrors"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/store"
)

var errSetFailed = apierrors.New(apierrors.KindError, "failed to persist setting")

// ChangeEvent is emitted whenever a setting is set, per spec.md §4.2.
type ChangeEvent struct {
	ID    int64
	Key   string
	Value string
}

// Watcher receives setting change notifications.
type Watcher func(ChangeEvent)

// Settings is C2's in-memory cache over the settings table.
type Settings struct {
	mu       sync.RWMutex
	byKey    map[string]model.Setting // lower-cased key -> row
	watchers []Watcher
}

// New creates an empty Settings cache.
func New() *Settings {
	return &Settings{byKey: make(map[string]model.Setting)}
}

// Subscribe registers a watcher invoked synchronously from Set.
func (s *Settings) Subscribe(w Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, w)
}

// BulkLoad hydrates the cache from persisted rows at startup.
func (s *Settings) BulkLoad(rows []store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		key, _ := r["key"].(string)
		value, _ := r["value"].(string)
		id, _ := toInt64(r["_id"])
		adminOnly, _ := toInt64(r["admin_only"])
		s.byKey[strings.ToLower(key)] = model.Setting{ID: id, Key: key, Value: value, AdminOnly: adminOnly != 0}
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Get returns key's value, falling back to the declared default from
// spec.md §3 (or "" for unknown non-plugin keys). Lookup is
// case-insensitive.
func (s *Settings) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row, ok := s.byKey[strings.ToLower(key)]; ok {
		return row.Value
	}
	if d, ok := model.DefaultSettings[canonicalKey(key)]; ok {
		return d.Value
	}
	return ""
}

// canonicalKey maps a case-insensitive key back to its canonically-cased
// form in DefaultSettings, if any.
func canonicalKey(key string) string {
	for k := range model.DefaultSettings {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}

// IDOf returns key's row id, or -1 if it has never been persisted.
func (s *Settings) IDOf(key string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row, ok := s.byKey[strings.ToLower(key)]; ok {
		return row.ID
	}
	return -1
}

// IsAdmin reports whether key requires Admin to read/write. Plugin.*.*
// keys are always admin-only regardless of the declared-default table.
func (s *Settings) IsAdmin(key string) bool {
	if model.IsPluginKey(key) {
		return true
	}
	s.mu.RLock()
	if row, ok := s.byKey[strings.ToLower(key)]; ok {
		s.mu.RUnlock()
		return row.AdminOnly
	}
	s.mu.RUnlock()
	if d, ok := model.DefaultSettings[canonicalKey(key)]; ok {
		return d.AdminOnly
	}
	return false
}

// Set persists key=value through st and updates the cache, emitting
// ChangeEvent to subscribers per spec.md §4.2 and §5 ("settings changes
// applied to C2 before downstream components are notified").
func (s *Settings) Set(ctx context.Context, st *store.Store, key, value string) error {
	adminOnly := s.IsAdmin(key)
	id := s.IDOf(key)

	var newID int64
	if id == -1 {
		newID = st.Add(ctx, store.TableSettings, store.Row{
			"key": key, "value": value, "admin_only": boolToInt(adminOnly),
		})
		if newID == -1 {
			return errSetFailed
		}
	} else {
		if !st.Modify(ctx, store.TableSettings, id, store.Row{"value": value}) {
			return errSetFailed
		}
		newID = id
	}

	s.mu.Lock()
	s.byKey[strings.ToLower(key)] = model.Setting{ID: newID, Key: key, Value: value, AdminOnly: adminOnly}
	watchers := append([]Watcher(nil), s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w(ChangeEvent{ID: newID, Key: key, Value: value})
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// CheckDatabaseVersion reports whether the stored DatabaseVersion equals
// the binary's compiled-in schema version.
func (s *Settings) CheckDatabaseVersion(schemaVersion string) bool {
	return s.Get("DatabaseVersion") == schemaVersion
}
