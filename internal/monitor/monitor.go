// Package monitor keeps a single reachable/unreachable flag for the
// remote API, refreshed by a periodic liveness probe.
package monitor

import (
    "context"
    "log"
    "sync"
    "sync/atomic"
    "time"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/metrics"
)

// Prober performs one liveness check.  A nil error means reachable.
type Prober func(ctx context.Context) error

// Monitor probes once on Start and then every interval.
type Monitor struct {
    probe    Prober
    interval time.Duration
    timeout  time.Duration
    metrics  *metrics.Metrics

    reachable atomic.Bool

    mu     sync.Mutex
    subs   map[chan bool]struct{}
    cancel context.CancelFunc
    done   chan struct{}
}

// New returns a monitor that starts out reachable, matching what the
// banner shows before the first probe has answered.
func New(probe Prober, interval, timeout time.Duration, m *metrics.Metrics) *Monitor {
    if interval <= 0 {
        interval = 30 * time.Second
    }
    if timeout <= 0 || timeout > interval {
        timeout = interval
    }
    mon := &Monitor{
        probe:    probe,
        interval: interval,
        timeout:  timeout,
        metrics:  m,
        subs:     map[chan bool]struct{}{},
    }
    mon.reachable.Store(true)
    return mon
}

// Reachable reports the outcome of the most recent probe.
func (m *Monitor) Reachable() bool { return m.reachable.Load() }

// Start launches the probe loop.  It probes immediately, then on every
// tick, until ctx is cancelled or Stop is called.  Calling Start twice
// is a no-op.
func (m *Monitor) Start(ctx context.Context) {
    m.mu.Lock()
    if m.cancel != nil {
        m.mu.Unlock()
        return
    }
    ctx, m.cancel = context.WithCancel(ctx)
    m.done = make(chan struct{})
    m.mu.Unlock()

    go m.run(ctx)
}

// Stop ends the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
    m.mu.Lock()
    cancel, done := m.cancel, m.done
    m.mu.Unlock()
    if cancel == nil {
        return
    }
    cancel()
    <-done
}

func (m *Monitor) run(ctx context.Context) {
    defer close(m.done)
    ticker := time.NewTicker(m.interval)
    defer ticker.Stop()

    m.check(ctx)
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            m.check(ctx)
        }
    }
}

// check runs one probe.  The probe timeout never exceeds the interval,
// so probes do not overlap.
func (m *Monitor) check(ctx context.Context) {
    pctx, cancel := context.WithTimeout(ctx, m.timeout)
    err := m.probe(pctx)
    cancel()
    if ctx.Err() != nil {
        return
    }
    ok := err == nil
    m.metrics.Probe(ok)
    if prev := m.reachable.Swap(ok); prev != ok {
        if ok {
            log.Printf("monitor: backend reachable again")
        } else {
            log.Printf("monitor: backend unreachable: %v", err)
        }
        m.broadcast(ok)
    }
}

// Subscribe returns a channel that receives the new state each time it
// flips, and a function that releases the subscription.  Slow readers
// only miss intermediate flips, never the latest state.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
    ch := make(chan bool, 1)
    m.mu.Lock()
    m.subs[ch] = struct{}{}
    m.mu.Unlock()
    return ch, func() {
        m.mu.Lock()
        delete(m.subs, ch)
        m.mu.Unlock()
    }
}

func (m *Monitor) broadcast(state bool) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for ch := range m.subs {
        select {
        case <-ch:
        default:
        }
        select {
        case ch <- state:
        default:
        }
    }
}
