package services

import (
	"sync"
	"time"
)

// ActivitySignal is a user-activity event reported by the admin UI.
type ActivitySignal string

const (
	SignalPointerMove ActivitySignal = "pointermove"
	SignalPointerDown ActivitySignal = "pointerdown"
	SignalKeyPress    ActivitySignal = "keypress"
	SignalScroll      ActivitySignal = "scroll"
	SignalTouchStart  ActivitySignal = "touchstart"
)

var activitySignals = map[ActivitySignal]struct{}{
	SignalPointerMove: {},
	SignalPointerDown: {},
	SignalKeyPress:    {},
	SignalScroll:      {},
	SignalTouchStart:  {},
}

func ParseActivitySignal(s string) (ActivitySignal, bool) {
	sig := ActivitySignal(s)
	_, ok := activitySignals[sig]
	return sig, ok
}

// IdleMonitor runs one inactivity countdown per authenticated session and
// calls onExpire when a countdown elapses without activity.
type IdleMonitor struct {
	timeout  time.Duration
	onExpire func(key string)

	mu     sync.Mutex
	timers map[string]*idleTimer
	closed bool
}

type idleTimer struct {
	timer *time.Timer
}

func NewIdleMonitor(timeout time.Duration, onExpire func(key string)) *IdleMonitor {
	return &IdleMonitor{
		timeout:  timeout,
		onExpire: onExpire,
		timers:   make(map[string]*idleTimer),
	}
}

func (m *IdleMonitor) Timeout() time.Duration {
	return m.timeout
}

// Start begins (or restarts) the countdown for key.
func (m *IdleMonitor) Start(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLocked(key)
}

// Ensure starts a countdown for key unless one is already running. Used for
// sessions restored from storage after a restart.
func (m *IdleMonitor) Ensure(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timers[key]; ok {
		return
	}
	m.startLocked(key)
}

func (m *IdleMonitor) startLocked(key string) {
	if m.closed {
		return
	}
	if t, ok := m.timers[key]; ok {
		t.timer.Stop()
	}
	t := &idleTimer{}
	t.timer = time.AfterFunc(m.timeout, func() { m.expire(key, t) })
	m.timers[key] = t
}

// Touch resets the countdown for key. It reports false when key has no
// running countdown; activity never starts one.
func (m *IdleMonitor) Touch(key string, _ ActivitySignal) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timers[key]; !ok {
		return false
	}
	m.startLocked(key)
	return true
}

// Stop cancels the countdown for key.
func (m *IdleMonitor) Stop(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[key]; ok {
		t.timer.Stop()
		delete(m.timers, key)
	}
}

// Active reports whether key has a running countdown.
func (m *IdleMonitor) Active(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[key]
	return ok
}

// Close cancels every countdown without expiring any session.
func (m *IdleMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, t := range m.timers {
		t.timer.Stop()
		delete(m.timers, key)
	}
	m.closed = true
}

func (m *IdleMonitor) expire(key string, t *idleTimer) {
	m.mu.Lock()
	// A reset or stop may have raced with this firing.
	if m.timers[key] != t {
		m.mu.Unlock()
		return
	}
	delete(m.timers, key)
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(key)
	}
}
