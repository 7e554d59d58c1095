// Package connectivity tracks network reachability with a periodic active
// probe and fans state changes out to subscribers.
package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/fedjobfinder/jobcache/pkg/logging"
)

// Status is the observable connection state.
type Status struct {
	Connected bool
	Expensive bool
}

// Prober answers whether a network path currently exists.
type Prober interface {
	Probe(ctx context.Context) bool
}

// DialProber probes by opening a TCP connection to a well-known address.
type DialProber struct {
	Addr    string
	Timeout time.Duration
}

func (p DialProber) Probe(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Monitor polls a Prober and publishes Status changes. The daemon cannot
// observe metered-link state the way a mobile OS can, so Expensive comes
// from configuration and SetExpensive.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	status  Status
	probed  bool
	subs    map[int]chan Status
	nextSub int
}

// NewMonitor builds a Monitor; initial state is disconnected until the
// first probe completes.
func NewMonitor(prober Prober, interval time.Duration, expensive bool, logger *logging.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		logger:   logger,
		status:   Status{Connected: false, Expensive: expensive},
		subs:     make(map[int]chan Status),
	}
}

// Run probes immediately, then on every tick, until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// Status returns the current connection state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe registers a change-notification channel. The returned cancel
// func must be called to release the subscription. Slow subscribers only
// ever see the latest state; intermediate transitions may be dropped.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Status, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// SetExpensive overrides the constrained-connection flag at runtime.
func (m *Monitor) SetExpensive(expensive bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.Expensive == expensive {
		return
	}
	m.status.Expensive = expensive
	m.notifyLocked(m.status)
}

func (m *Monitor) probe(ctx context.Context) {
	connected := m.prober.Probe(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := !m.probed || m.status.Connected != connected
	m.probed = true
	m.status.Connected = connected

	if !changed {
		return
	}

	m.logger.Info("connectivity changed", "connected", connected, "expensive", m.status.Expensive)
	m.notifyLocked(m.status)
}

func (m *Monitor) notifyLocked(st Status) {
	for _, ch := range m.subs {
		select {
		case ch <- st:
		default:
			// Replace a stale unread state with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
