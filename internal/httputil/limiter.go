package httputil

import "sync"

// Limiter bounds in-flight requests per client and in total.
type Limiter struct {
	mu       sync.Mutex
	inFlight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewLimiter returns a Limiter allowing maxPerIP concurrent requests per
// client and maxTotal overall.
func NewLimiter(maxPerIP, maxTotal int) *Limiter {
	return &Limiter{
		inFlight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// Acquire reserves a slot for ip. It returns false when either limit is
// reached; the caller must not call Release in that case.
func (l *Limiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.inFlight[ip] >= l.maxPerIP {
		return false
	}
	l.inFlight[ip]++
	l.total++
	return true
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total--
	l.inFlight[ip]--
	if l.inFlight[ip] <= 0 {
		delete(l.inFlight, ip)
	}
}

// InFlight returns the number of slots ip holds.
func (l *Limiter) InFlight(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[ip]
}
