// SPDX-License-Identifier: MIT
// C4: user entities; password hash+verify; permission flag tests; login
// timestamp emission.
//
// Grounded on server/service/auth's token/credential helpers, generalized
// to spec.md §4.4's byName/byToken/authorize/authorizeService surface.
package users

import (
	"crypto/sha512"
	"encoding/hex"
	"os/user"
	"strconv"
	"sync"
	"time"

	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/tokens"
)

// LoginWatcher is notified when a user successfully authenticates, per
// spec.md §4.4/§5 ("userLoggedIn(id, now)", emitted before the login
// response returns).
type LoginWatcher func(userID int64, at time.Time)

// Users is C4's in-memory user table, keyed by name.
type Users struct {
	mu       sync.RWMutex
	byName   map[string]*model.User
	byID     map[int64]*model.User
	tokens   *tokens.Tokens
	salt     string
	watchers []LoginWatcher
	now      func() time.Time
}

// New creates an empty user table bound to the shared token manager.
// salt is the process-wide salt configured for HashPassword.
func New(tok *tokens.Tokens, salt string) *Users {
	return &Users{
		byName: make(map[string]*model.User),
		byID:   make(map[int64]*model.User),
		tokens: tok,
		salt:   salt,
		now:    time.Now,
	}
}

// OnLogin registers a watcher invoked synchronously from Authorize.
func (u *Users) OnLogin(w LoginWatcher) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.watchers = append(u.watchers, w)
}

// Add registers a user row in the in-memory table (the Store write is
// the caller's responsibility, per CoreFacade's write-through contract).
func (u *Users) Add(usr *model.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.byName[usr.Name] = usr
	u.byID[usr.ID] = usr
}

// Remove drops a user from the in-memory table.
func (u *Users) Remove(id int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if usr, ok := u.byID[id]; ok {
		delete(u.byName, usr.Name)
		delete(u.byID, id)
	}
}

// ByID looks up a user by id.
func (u *Users) ByID(id int64) (*model.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	usr, ok := u.byID[id]
	return usr, ok
}

// ByName looks up a user by name.
func (u *Users) ByName(name string) (*model.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	usr, ok := u.byName[name]
	return usr, ok
}

// ByToken resolves a bearer token to its owning user via C3, then looks
// the user up by name.
func (u *Users) ByToken(value string) (*model.User, bool) {
	name := u.tokens.UserFor(value)
	if name == "" {
		return nil, false
	}
	return u.ByName(name)
}

// IDs resolves a user's system uid/gid via OS passwd lookup on name,
// defaulting to (1,1) if unknown, per spec.md §3/§4.4.
func IDs(name string) (uid, gid int) {
	u, err := user.Lookup(name)
	if err != nil {
		return 1, 1
	}
	parsedUID, err1 := strconv.Atoi(u.Uid)
	parsedGID, err2 := strconv.Atoi(u.Gid)
	if err1 != nil || err2 != nil {
		return 1, 1
	}
	return parsedUID, parsedGID
}

// HashPassword returns the SHA-512 hex digest of plain||salt, per
// spec.md §3.
func HashPassword(plain, salt string) string {
	sum := sha512.Sum512([]byte(plain + salt))
	return hex.EncodeToString(sum[:])
}

// Hash hashes plain with this table's process-wide salt, for callers
// (CoreFacade) that must rehash a password on edit without themselves
// holding the salt.
func (u *Users) Hash(plain string) string {
	return HashPassword(plain, u.salt)
}

// Authorize verifies name/password and, on success, mints a token valid
// for the configured TokenExpiration (in days) and emits userLoggedIn.
// Returns "" on mismatch.
func (u *Users) Authorize(name, password string, tokenExpirationDays int) string {
	u.mu.RLock()
	usr, ok := u.byName[name]
	u.mu.RUnlock()
	if !ok {
		return ""
	}
	if usr.PasswordHash != HashPassword(password, u.salt) {
		return ""
	}

	validUntil := u.now().Add(time.Duration(tokenExpirationDays) * 24 * time.Hour)
	value := u.tokens.Register(name, validUntil)

	at := u.now()
	u.mu.Lock()
	usr.LastLogin = &at
	watchers := append([]LoginWatcher(nil), u.watchers...)
	u.mu.Unlock()

	for _, w := range watchers {
		w(usr.ID, at)
	}
	return value
}

// AuthorizeUnchecked mints an administrative token for name without a
// password check, expiry = now + 9999 days. Used to mint an internal
// token for plugin hosts, per spec.md §4.4/§4.8.
func (u *Users) AuthorizeUnchecked(name string) string {
	validUntil := u.now().Add(9999 * 24 * time.Hour)
	return u.tokens.Register(name, validUntil)
}

// AuthorizeService reports whether value is a valid token whose owning
// user carries permission (or SuperAdmin).
func (u *Users) AuthorizeService(value string, permission model.Permission) bool {
	usr, ok := u.ByToken(value)
	if !ok {
		return false
	}
	return model.Has(usr.Permissions, permission)
}

// CheckToken returns value's expiry and whether it is currently valid.
func (u *Users) CheckToken(value string) (time.Time, bool) {
	validUntil, known := u.tokens.ExpirationOf(value)
	if !known {
		return time.Time{}, false
	}
	return validUntil, u.now().Before(validUntil)
}

// All returns every known user, for Reports/RetentionTimer iteration.
func (u *Users) All() []*model.User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*model.User, 0, len(u.byID))
	for _, usr := range u.byID {
		out = append(out, usr)
	}
	return out
}
