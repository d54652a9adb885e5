package abuse

import (
	"fmt"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ok, allows up to the limit", func(t *testing.T) {
		l := NewLimiter(PerMinute(5))

		for i := 0; i < 5; i++ {
			if !l.Allow("key", t0) {
				t.Fatalf("request %d: got denied, want allowed", i)
			}
		}

		if l.Allow("key", t0) {
			t.Errorf("request 5: got allowed, want denied")
		}
	})

	t.Run("ok, tokens refill over time", func(t *testing.T) {
		l := NewLimiter(PerMinute(5))

		for i := 0; i < 5; i++ {
			l.Allow("key", t0)
		}

		if l.Allow("key", t0) {
			t.Fatalf("got allowed, want denied")
		}

		// One token refills every window/limit.
		if !l.Allow("key", t0.Add(12*time.Second)) {
			t.Errorf("got denied after refill, want allowed")
		}
	})

	t.Run("ok, keys are independent", func(t *testing.T) {
		l := NewLimiter(PerMinute(5))

		for i := 0; i < 5; i++ {
			l.Allow("one", t0)
		}

		if l.Allow("one", t0) {
			t.Errorf("key one: got allowed, want denied")
		}

		if !l.Allow("two", t0) {
			t.Errorf("key two: got denied, want allowed")
		}
	})

	t.Run("ok, strictest ceiling wins", func(t *testing.T) {
		l := NewLimiter(PerMinute(2), PerHour(100))

		for i := 0; i < 2; i++ {
			if !l.Allow("key", t0) {
				t.Fatalf("request %d: got denied, want allowed", i)
			}
		}

		if l.Allow("key", t0) {
			t.Errorf("got allowed, want denied by the per-minute ceiling")
		}
	})

	t.Run("ok, idle entries are pruned", func(t *testing.T) {
		l := NewLimiter(PerMinute(5))

		for i := 0; i < 100; i++ {
			l.Allow(fmt.Sprintf("key-%d", i), t0)
		}

		l.Allow("late", t0.Add(2*time.Minute))

		l.mu.Lock()
		n := len(l.entries)
		l.mu.Unlock()

		if n != 1 {
			t.Errorf("got %d entries, want 1", n)
		}
	})

	t.Run("ok, no ceilings allows everything", func(t *testing.T) {
		l := NewLimiter()

		for i := 0; i < 1000; i++ {
			if !l.Allow("key", t0) {
				t.Fatalf("request %d: got denied, want allowed", i)
			}
		}
	})
}
