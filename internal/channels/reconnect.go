package channels

import (
	"sync"
	"time"
)

// ConnState is the connection lifecycle state of a channel.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateReconnecting
	StateConnected
	// StateLoggedOut is terminal: the session was revoked remotely and a
	// fresh pairing is required. No reconnect attempts are made from here.
	StateLoggedOut
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateConnected:
		return "connected"
	case StateLoggedOut:
		return "logged_out"
	}
	return "unknown"
}

// connTracker holds the reconnect state machine: attempt counter, backoff
// schedule and the current state. All transitions go through it so the
// event handler and the reconnect loop never race.
type connTracker struct {
	mu      sync.Mutex
	state   ConnState
	attempt int
	base    time.Duration
	max     time.Duration
	retries int
}

func newConnTracker(base, max time.Duration, retries int) *connTracker {
	if base <= 0 {
		base = 2 * time.Second
	}
	if max <= 0 {
		max = 2 * time.Minute
	}
	if retries <= 0 {
		retries = 10
	}
	return &connTracker{base: base, max: max, retries: retries}
}

func (t *connTracker) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connected resets the attempt counter. Returns false if the session is
// already logged out; a Connected event after logout is ignored.
func (t *connTracker) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateLoggedOut {
		return false
	}
	t.state = StateConnected
	t.attempt = 0
	return true
}

// Dropped moves to reconnecting and returns the delay before the next
// attempt, or ok=false when retries are exhausted or the session is
// logged out.
func (t *connTracker) Dropped() (delay time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateLoggedOut {
		return 0, false
	}
	if t.attempt >= t.retries {
		t.state = StateDisconnected
		return 0, false
	}
	d := t.base << uint(t.attempt)
	if d > t.max {
		d = t.max
	}
	t.attempt++
	t.state = StateReconnecting
	return d, true
}

// LoggedOut is the terminal transition.
func (t *connTracker) LoggedOut() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateLoggedOut
}
