// SPDX-License-Identifier: MIT
// C3: opaque token issuance, validity lookup, expiry timers.
//
// Grounded on server/service/auth/tokens.go's GenerateToken/HashToken
// shape, generalized to spec.md §4.3's register/load/userFor/expire
// surface. The optional Redis binding is a write-only mirror: Register
// stores each token there with a TTL and Expire deletes it, but UserFor
// never reads it — lookups are answered from the in-memory map, which
// is the source of truth.
package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/store"
)

// ExpiryWatcher is notified when a token expires, per spec.md §4.3
// ("tokenExpired" signal).
type ExpiryWatcher func(value string)

// RegisterWatcher is notified synchronously from Register with the
// freshly minted token, for write-through persistence to C1 (the
// in-memory map is the source of truth; the Store copy backs startup
// reload and retention sweeps).
type RegisterWatcher func(tok model.Token)

// Tokens is C3's in-memory token table.
type Tokens struct {
	mu               sync.Mutex
	byValue          map[string]model.Token
	timers           map[string]*time.Timer
	watchers         []ExpiryWatcher
	registerWatchers []RegisterWatcher
	cache            *redis.Client
	now              func() time.Time
}

// New creates an empty token table.
func New() *Tokens {
	return &Tokens{
		byValue: make(map[string]model.Token),
		timers:  make(map[string]*time.Timer),
		now:     time.Now,
	}
}

// SetCache attaches an optional shared Redis client that Register and
// Expire keep in step with the token table; lookups do not read it.
func (t *Tokens) SetCache(c *redis.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = c
}

// OnExpire registers a watcher invoked when a token's timer fires.
func (t *Tokens) OnExpire(w ExpiryWatcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchers = append(t.watchers, w)
}

// OnRegister registers a watcher invoked synchronously from Register
// with the newly minted token, so the Store copy of TableTokens stays
// in sync with the in-memory map per the write-through contract.
func (t *Tokens) OnRegister(w RegisterWatcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registerWatchers = append(t.registerWatchers, w)
}

// Register mints a new opaque token for userName, valid until validUntil,
// and schedules its one-shot expiry timer. Returns the new token value.
func (t *Tokens) Register(userName string, validUntil time.Time) string {
	value := uuid.NewString()
	tok := model.Token{Value: value, UserName: userName, ValidUntil: validUntil}

	t.mu.Lock()
	t.byValue[value] = tok
	t.scheduleTimerLocked(value, validUntil)
	watchers := append([]RegisterWatcher(nil), t.registerWatchers...)
	t.mu.Unlock()

	if t.cache != nil {
		ttl := time.Until(validUntil)
		if ttl > 0 {
			_ = t.cache.Set(context.Background(), "queued:token:"+value, userName, ttl).Err()
		}
	}
	for _, w := range watchers {
		w(tok)
	}
	return value
}

// scheduleTimerLocked must be called with t.mu held.
func (t *Tokens) scheduleTimerLocked(value string, validUntil time.Time) {
	if existing, ok := t.timers[value]; ok {
		existing.Stop()
	}
	d := validUntil.Sub(t.now())
	if d < 0 {
		d = 0
	}
	t.timers[value] = time.AfterFunc(d, func() { t.Expire(value) })
}

// Load restores a single persisted token row at startup, skipping rows
// already expired relative to now (the Store is asked to drop those
// first per spec.md §4.3).
func (t *Tokens) Load(tok model.Token) {
	if !tok.Valid(t.now()) {
		return
	}
	t.mu.Lock()
	t.byValue[tok.Value] = tok
	t.scheduleTimerLocked(tok.Value, tok.ValidUntil)
	t.mu.Unlock()
}

// LoadAll restores every persisted token row, in Load's style.
func (t *Tokens) LoadAll(rows []model.Token) {
	for _, r := range rows {
		t.Load(r)
	}
}

// UserFor returns the owning user name for value, or "" if the token is
// missing or expired.
func (t *Tokens) UserFor(value string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.byValue[value]
	if !ok || !tok.Valid(t.now()) {
		return ""
	}
	return tok.UserName
}

// ExpirationOf returns value's expiry time and whether it is known at all.
func (t *Tokens) ExpirationOf(value string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.byValue[value]
	if !ok {
		return time.Time{}, false
	}
	return tok.ValidUntil, true
}

// Expire removes value immediately and notifies watchers, per spec.md
// §4.3's "tokenExpired" signal. Idempotent.
func (t *Tokens) Expire(value string) {
	t.mu.Lock()
	_, existed := t.byValue[value]
	delete(t.byValue, value)
	if timer, ok := t.timers[value]; ok {
		timer.Stop()
		delete(t.timers, value)
	}
	watchers := append([]ExpiryWatcher(nil), t.watchers...)
	t.mu.Unlock()

	if t.cache != nil {
		_ = t.cache.Del(context.Background(), "queued:token:"+value).Err()
	}
	if existed {
		for _, w := range watchers {
			w(value)
		}
	}
}

// TokenToRow converts a model.Token into the store.Row shape expected by
// TableTokens, for write-through persistence on registration.
func TokenToRow(tok model.Token) store.Row {
	return store.Row{
		"value":       tok.Value,
		"user_name":   tok.UserName,
		"valid_until": store.FormatTime(tok.ValidUntil),
	}
}

// rowToToken converts a persisted store.Row into a model.Token.
func rowToToken(r store.Row) (model.Token, bool) {
	value, _ := r["value"].(string)
	userName, _ := r["user_name"].(string)
	validUntilStr, _ := r["valid_until"].(string)
	validUntil, err := store.ParseTime(validUntilStr)
	if err != nil {
		return model.Token{}, false
	}
	return model.Token{Value: value, UserName: userName, ValidUntil: validUntil}, true
}

// RowsToTokens converts persisted rows (as returned by Store.Get) into
// model.Token values, skipping unparsable rows.
func RowsToTokens(rows []store.Row) []model.Token {
	out := make([]model.Token, 0, len(rows))
	for _, r := range rows {
		if tok, ok := rowToToken(r); ok {
			out = append(out, tok)
		}
	}
	return out
}
