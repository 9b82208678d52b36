package connectivity

import (
	"sync"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/metrics"
)

// Signal is one reachability report. Nil means the platform could not tell.
type Signal struct {
	IsConnected         *bool `json:"isConnected"`
	IsInternetReachable *bool `json:"isInternetReachable"`
}

// Online treats unknown reachability as online to avoid false offline positives.
func (s Signal) Online() bool {
	return s.IsConnected != nil && *s.IsConnected &&
		(s.IsInternetReachable == nil || *s.IsInternetReachable)
}

// Listener receives the online verdict.
type Listener func(online bool)

// Monitor turns raw signals into an online/offline verdict and fans it out to listeners.
type Monitor struct {
	mu        sync.RWMutex
	online    bool
	last      Signal
	nextID    int
	listeners map[int]Listener
}

// NewMonitor starts with the given verdict until the first signal arrives.
func NewMonitor(initialOnline bool) *Monitor {
	metrics.SetOnline(initialOnline)
	return &Monitor{online: initialOnline, listeners: make(map[int]Listener)}
}

// IsOnline returns the current verdict.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// LastSignal returns the most recent raw signal.
func (m *Monitor) LastSignal() Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Subscribe registers fn and immediately delivers the current verdict to it.
// The returned func unsubscribes; calling it more than once is safe.
func (m *Monitor) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	current := m.online
	m.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Publish records sig and notifies listeners when the verdict changed.
func (m *Monitor) Publish(sig Signal) {
	online := sig.Online()

	m.mu.Lock()
	m.last = sig
	changed := online != m.online
	m.online = online
	var targets []Listener
	if changed {
		targets = make([]Listener, 0, len(m.listeners))
		for _, fn := range m.listeners {
			targets = append(targets, fn)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	logger.WithComponent("connectivity").Infof("connectivity changed: online=%v", online)
	metrics.SetOnline(online)
	for _, fn := range targets {
		fn(online)
	}
}
