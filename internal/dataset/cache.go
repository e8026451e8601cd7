// Package dataset holds the most recent entry list fetched for each
// session, along with the filtered summaries computed from it.
package dataset

import (
    "sync"
    "time"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/filter"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

// Ticket orders fetches.  A larger ticket was issued later.
type Ticket uint64

// Snapshot is one committed entry list.  Entries must be treated as
// read only; a refresh replaces the whole snapshot.
type Snapshot struct {
    Entries   []model.Entry
    FetchedAt time.Time
    ticket    Ticket
}

type slot struct {
    snap      *Snapshot
    summaries map[string]filter.Summary
}

// Cache keys snapshots by session id.
type Cache struct {
    mu    sync.Mutex
    next  Ticket
    slots map[string]*slot
    now   func() time.Time
}

// New returns an empty cache.
func New() *Cache {
    return &Cache{slots: map[string]*slot{}, now: time.Now}
}

// Begin issues a ticket for a fetch about to start.
func (c *Cache) Begin() Ticket {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.next++
    return c.next
}

// Commit stores entries for sid if t is newer than the snapshot already
// held.  It reports whether the entries were stored; a stale fetch that
// finishes after a newer one is discarded.
func (c *Cache) Commit(sid string, t Ticket, entries []model.Entry) bool {
    c.mu.Lock()
    defer c.mu.Unlock()
    s, ok := c.slots[sid]
    if ok && s.snap != nil && s.snap.ticket >= t {
        return false
    }
    c.slots[sid] = &slot{
        snap:      &Snapshot{Entries: entries, FetchedAt: c.now(), ticket: t},
        summaries: map[string]filter.Summary{},
    }
    return true
}

// Snapshot returns the current snapshot for sid, or nil when nothing has
// been fetched yet.
func (c *Cache) Snapshot(sid string) *Snapshot {
    c.mu.Lock()
    defer c.mu.Unlock()
    if s, ok := c.slots[sid]; ok {
        return s.snap
    }
    return nil
}

// Summary returns the filtered view of sid's snapshot.  Results are
// memoized per snapshot and filter; ok is false with no snapshot.
func (c *Cache) Summary(sid string, spec filter.Spec) (filter.Summary, bool) {
    key := spec.Key()
    c.mu.Lock()
    s, ok := c.slots[sid]
    if !ok || s.snap == nil {
        c.mu.Unlock()
        return filter.Summary{}, false
    }
    if sum, hit := s.summaries[key]; hit {
        c.mu.Unlock()
        return sum, true
    }
    snap := s.snap
    c.mu.Unlock()

    sum := filter.Summarize(snap.Entries, spec)

    c.mu.Lock()
    // Only memoize if the snapshot was not replaced meanwhile.
    if cur, ok := c.slots[sid]; ok && cur.snap == snap {
        cur.summaries[key] = sum
    }
    c.mu.Unlock()
    return sum, true
}

// Drop forgets everything held for sid, e.g. on logout.
func (c *Cache) Drop(sid string) {
    c.mu.Lock()
    delete(c.slots, sid)
    c.mu.Unlock()
}

// Len reports how many sessions have a snapshot.
func (c *Cache) Len() int {
    c.mu.Lock()
    defer c.mu.Unlock()
    return len(c.slots)
}
