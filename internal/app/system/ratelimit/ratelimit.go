// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
)

// Limiter counts requests per key in fixed windows.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
// Expired windows are swept in the background until Stop is called.
func New(limit int, duration time.Duration) *Limiter {
	l := newLimiter(limit, duration, time.Now)
	go l.cleanupLoop(duration * 2)
	return l
}

func newLimiter(limit int, duration time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Allow records one request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || l.now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request, preferring
// X-Forwarded-For and X-Real-IP for proxied requests.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles sign-in attempts by client IP and by account
// (an admin email or a vendor code).
type LoginLimiter struct {
	ip      *Limiter
	account *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per account
// per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, accountLimit int, accountWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ip:      New(ipLimit, ipWindow),
		account: New(accountLimit, accountWindow),
	}
}

func accountKey(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// Check records an attempt and returns a TooManyRequests error when either
// limit is exhausted. A nil LoginLimiter allows everything.
func (ll *LoginLimiter) Check(r *http.Request, account string) error {
	if ll == nil {
		return nil
	}
	if !ll.ip.Allow(ClientIP(r)) {
		return apperr.TooManyRequests("Too many login attempts. Please wait a minute before trying again.")
	}
	if key := accountKey(account); key != "" && !ll.account.Allow(key) {
		return apperr.TooManyRequests("Too many login attempts for this account. Please wait a few minutes.")
	}
	return nil
}

// Succeeded clears the account window after a successful sign-in.
func (ll *LoginLimiter) Succeeded(account string) {
	if ll == nil {
		return
	}
	if key := accountKey(account); key != "" {
		ll.account.Reset(key)
	}
}

// Stop ends both background sweeps.
func (ll *LoginLimiter) Stop() {
	if ll == nil {
		return
	}
	ll.ip.Stop()
	ll.account.Stop()
}
