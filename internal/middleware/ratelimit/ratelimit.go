// Package ratelimit slows down abusive write traffic with a fixed-window
// counter per client IP.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds rate limiter configuration
type Config struct {
	// WritesPerMinute caps mutating requests per client per minute.
	WritesPerMinute int
	// SweepInterval controls how often idle clients are forgotten.
	SweepInterval time.Duration
}

// DefaultConfig returns the limits used by the wallet server. Only POST and
// DELETE go through the limiter, so the cap can be tight.
func DefaultConfig() Config {
	return Config{
		WritesPerMinute: 30,
		SweepInterval:   5 * time.Minute,
	}
}

type window struct {
	startedAt time.Time
	count     int
}

// Limiter tracks per-client request windows.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int

	done sync.Once
	stop chan struct{}
}

// NewLimiter creates a limiter and starts its background sweep.
func NewLimiter(cfg Config) *Limiter {
	if cfg.WritesPerMinute <= 0 {
		cfg.WritesPerMinute = DefaultConfig().WritesPerMinute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}

	l := &Limiter{
		windows: make(map[string]*window),
		limit:   cfg.WritesPerMinute,
		stop:    make(chan struct{}),
	}
	go l.sweep(cfg.SweepInterval)
	return l
}

// Allow reports whether a request from clientIP fits in the current window.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[clientIP]
	if !ok || now.Sub(w.startedAt) > time.Minute {
		l.windows[clientIP] = &window{startedAt: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.limit
}

func (l *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			l.mu.Lock()
			for ip, w := range l.windows {
				if w.startedAt.Before(cutoff) {
					delete(l.windows, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.done.Do(func() { close(l.stop) })
}
