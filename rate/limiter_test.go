package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	interval := 10 * time.Millisecond
	l := New(1, interval, time.Hour)
	defer l.Stop()

	tooshort := 1 * time.Millisecond

	key := "session-token"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := l.Allow(key); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterBurst(t *testing.T) {
	interval := 100 * time.Millisecond
	l := New(3, interval, time.Hour)
	defer l.Stop()

	key := "session-token"
	for i := 0; i < 3; i++ {
		if !l.Allow(key) {
			t.Fatalf("burst request %d should have been allowed", i)
		}
	}
	if l.Allow(key) {
		t.Fatal("request beyond the burst should have been denied")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute, time.Hour)
	defer l.Stop()

	if !l.Allow("first") {
		t.Fatal("first key should have been allowed")
	}
	if l.Allow("first") {
		t.Fatal("first key should have been exhausted")
	}
	if !l.Allow("second") {
		t.Fatal("second key must not share the first key's bucket")
	}
}
