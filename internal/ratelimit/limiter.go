// Package ratelimit tracks per-host and per-endpoint check intervals so the
// monitor never probes the same target more often than its budget allows.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds the minimum intervals between completed checks.
type Config struct {
	HostMinInterval     time.Duration
	EndpointMinInterval time.Duration
}

// Limiter decides whether a check should be skipped in favor of replaying
// the last known verdict. Timers advance only on completed probes; skips and
// robots denials never reset them.
type Limiter struct {
	cfg Config

	mu            sync.Mutex
	lastHostCheck map[string]time.Time
	lastURLCheck  map[string]time.Time
}

// New creates a Limiter, applying the 60s/600s defaults for zero values.
func New(cfg Config) *Limiter {
	if cfg.HostMinInterval <= 0 {
		cfg.HostMinInterval = 60 * time.Second
	}
	if cfg.EndpointMinInterval <= 0 {
		cfg.EndpointMinInterval = 600 * time.Second
	}
	return &Limiter{
		cfg:           cfg,
		lastHostCheck: make(map[string]time.Time),
		lastURLCheck:  make(map[string]time.Time),
	}
}

// ShouldSkip reports whether a check of url on host at time now falls inside
// either minimum interval.
func (l *Limiter) ShouldSkip(host, url string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHostCheck[host]; ok && now.Sub(last) < l.cfg.HostMinInterval {
		return true
	}
	if last, ok := l.lastURLCheck[url]; ok && now.Sub(last) < l.cfg.EndpointMinInterval {
		return true
	}
	return false
}

// MarkChecked records a completed probe. Timestamps per key never move
// backwards, so an out-of-order completion cannot widen a budget window.
func (l *Limiter) MarkChecked(host, url string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHostCheck[host]; !ok || now.After(last) {
		l.lastHostCheck[host] = now
	}
	if last, ok := l.lastURLCheck[url]; !ok || now.After(last) {
		l.lastURLCheck[url] = now
	}
}
