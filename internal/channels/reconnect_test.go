package channels

import (
	"testing"
	"time"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	tr := newConnTracker(time.Second, 4*time.Second, 5)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second}
	for i, w := range want {
		d, ok := tr.Dropped()
		if !ok {
			t.Fatalf("attempt %d refused", i)
		}
		if d != w {
			t.Fatalf("attempt %d delay %v, want %v", i, d, w)
		}
		if tr.State() != StateReconnecting {
			t.Fatalf("attempt %d state %v", i, tr.State())
		}
	}
	if _, ok := tr.Dropped(); ok {
		t.Fatal("retries not exhausted")
	}
	if tr.State() != StateDisconnected {
		t.Fatalf("state %v after giving up", tr.State())
	}
}

func TestConnectedResetsAttempts(t *testing.T) {
	tr := newConnTracker(time.Second, time.Minute, 3)
	tr.Dropped()
	tr.Dropped()
	if !tr.Connected() {
		t.Fatal("Connected refused")
	}
	if tr.State() != StateConnected {
		t.Fatalf("state %v", tr.State())
	}
	d, ok := tr.Dropped()
	if !ok || d != time.Second {
		t.Fatalf("delay after reset %v ok=%v", d, ok)
	}
}

func TestLoggedOutIsTerminal(t *testing.T) {
	tr := newConnTracker(time.Second, time.Minute, 3)
	tr.LoggedOut()
	if _, ok := tr.Dropped(); ok {
		t.Fatal("reconnect allowed after logout")
	}
	if tr.Connected() {
		t.Fatal("connected accepted after logout")
	}
	if tr.State() != StateLoggedOut {
		t.Fatalf("state %v", tr.State())
	}
}

func TestZeroConfigGetsDefaults(t *testing.T) {
	tr := newConnTracker(0, 0, 0)
	d, ok := tr.Dropped()
	if !ok || d <= 0 {
		t.Fatalf("delay %v ok=%v", d, ok)
	}
}
