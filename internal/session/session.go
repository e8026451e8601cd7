// Package session holds the authentication state of each browser session:
// the API token in memory and a durable mirror of the role and user id.
package session

import (
    "context"
    "log"
    "sync"
    "time"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

// Session is a snapshot of one browser's authentication state.  Token
// present means authenticated; Role and UserID are only meaningful then.
type Session struct {
    Token  string
    Role   model.Role
    UserID string
}

// Authenticated reports whether the session holds a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// Holder owns one Session.  It is only mutated through Login and Logout,
// both of which replace every field at once.
type Holder struct {
    id    string
    store Store

    // wmu orders Login and Logout together with their store writes.
    wmu sync.Mutex

    mu   sync.RWMutex
    cur  Session
    seen Mirror
}

func newHolder(id string, store Store, remembered Mirror) *Holder {
    return &Holder{id: id, store: store, seen: remembered}
}

// ID is the session id the holder is registered under.
func (h *Holder) ID() string { return h.id }

// Login replaces the session with an authenticated one and mirrors role
// and user id to the durable store.  The token is never persisted.
func (h *Holder) Login(token string, role model.Role, userID string) {
    h.wmu.Lock()
    defer h.wmu.Unlock()

    h.mu.Lock()
    h.cur = Session{Token: token, Role: role, UserID: userID}
    h.seen = Mirror{Role: role, UserID: userID}
    h.mu.Unlock()

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := h.store.Save(ctx, h.id, Mirror{Role: role, UserID: userID}); err != nil {
        log.Printf("session: mirror save failed for %s: %v", h.id, err)
    }
}

// Logout clears every field and removes the durable mirror.
func (h *Holder) Logout() {
    h.wmu.Lock()
    defer h.wmu.Unlock()

    h.mu.Lock()
    h.cur = Session{}
    h.seen = Mirror{}
    h.mu.Unlock()

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := h.store.Delete(ctx, h.id); err != nil {
        log.Printf("session: mirror delete failed for %s: %v", h.id, err)
    }
}

// Current returns a copy of the session.  An unauthenticated session is
// always the zero value.
func (h *Holder) Current() Session {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return h.cur
}

// Token returns the bearer token, empty when logged out.
func (h *Holder) Token() string { return h.Current().Token }

// Remembered returns the last role and user id mirrored for this
// session, which survives restarts even though the token does not.
func (h *Holder) Remembered() Mirror {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return h.seen
}
