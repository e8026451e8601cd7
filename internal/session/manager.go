package session

import (
    "context"
    "errors"
    "log"
    "sync"
    "time"

    "github.com/google/uuid"
)

// Manager maps browser session ids to their holders.  Holders are kept
// in memory; only their mirrors reach the Store.
type Manager struct {
    store Store
    idle  time.Duration

    mu      sync.Mutex
    holders map[string]*entry
}

type entry struct {
    holder   *Holder
    lastSeen time.Time
}

// NewManager returns a manager persisting mirrors to store.  Holders not
// touched for idle are dropped by Sweep; zero disables sweeping.
func NewManager(store Store, idle time.Duration) *Manager {
    return &Manager{store: store, idle: idle, holders: map[string]*entry{}}
}

// NewID returns a fresh random session id.
func NewID() string { return uuid.NewString() }

// Get returns the holder for id, creating it on first use.  A new holder
// picks up any mirror left in the store by a previous process but starts
// without a token.
func (m *Manager) Get(ctx context.Context, id string) *Holder {
    m.mu.Lock()
    if e, ok := m.holders[id]; ok {
        e.lastSeen = time.Now()
        m.mu.Unlock()
        return e.holder
    }
    m.mu.Unlock()

    remembered, err := m.store.Load(ctx, id)
    if err != nil && !errors.Is(err, ErrNotFound) {
        log.Printf("session: mirror load failed for %s: %v", id, err)
    }

    m.mu.Lock()
    defer m.mu.Unlock()
    // another request may have created it while the store was queried
    if e, ok := m.holders[id]; ok {
        e.lastSeen = time.Now()
        return e.holder
    }
    h := newHolder(id, m.store, remembered)
    m.holders[id] = &entry{holder: h, lastSeen: time.Now()}
    return h
}

// Lookup returns the live holder for id without creating one.
func (m *Manager) Lookup(id string) (*Holder, bool) {
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.holders[id]
    if !ok {
        return nil, false
    }
    return e.holder, true
}

// Forget drops the holder for id from memory.  The durable mirror is
// left alone; call Logout first to clear it.
func (m *Manager) Forget(id string) {
    m.mu.Lock()
    delete(m.holders, id)
    m.mu.Unlock()
}

// Len returns the number of live holders.
func (m *Manager) Len() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.holders)
}

// Sweep drops holders idle for longer than the manager's idle window and
// returns how many were dropped.
func (m *Manager) Sweep(now time.Time) int {
    if m.idle <= 0 {
        return 0
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    n := 0
    for id, e := range m.holders {
        if now.Sub(e.lastSeen) > m.idle {
            delete(m.holders, id)
            n++
        }
    }
    return n
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
    if m.idle <= 0 || every <= 0 {
        return
    }
    t := time.NewTicker(every)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case now := <-t.C:
            if n := m.Sweep(now); n > 0 {
                log.Printf("session: swept %d idle sessions", n)
            }
        }
    }
}
