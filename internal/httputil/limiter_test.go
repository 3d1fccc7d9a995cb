package httputil

import (
	"sync"
	"testing"
)

func TestLimiterPerIP(t *testing.T) {
	l := NewLimiter(2, 10)
	if !l.Acquire("a") || !l.Acquire("a") {
		t.Fatal("first two acquires should succeed")
	}
	if l.Acquire("a") {
		t.Error("third acquire for the same IP should fail")
	}
	if !l.Acquire("b") {
		t.Error("another IP should not be limited")
	}

	l.Release("a")
	if got := l.InFlight("a"); got != 1 {
		t.Errorf("InFlight(a) = %d, want 1", got)
	}
	if !l.Acquire("a") {
		t.Error("acquire after release should succeed")
	}
}

func TestLimiterTotal(t *testing.T) {
	l := NewLimiter(5, 2)
	l.Acquire("a")
	l.Acquire("b")
	if l.Acquire("c") {
		t.Error("global cap should reject a third client")
	}
	l.Release("b")
	if got := l.InFlight("b"); got != 0 {
		t.Errorf("InFlight(b) = %d after release", got)
	}
	if !l.Acquire("c") {
		t.Error("slot should be free after release")
	}
}

func TestLimiterConcurrent(t *testing.T) {
	l := NewLimiter(1000, 1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if l.Acquire("x") {
					l.Release("x")
				}
			}
		}()
	}
	wg.Wait()
	if got := l.InFlight("x"); got != 0 {
		t.Errorf("InFlight = %d after balanced acquire/release", got)
	}
}
