// Package ratelimit implements a sliding-window request limiter keyed by an
// arbitrary caller identity (user ID, email, remote address).
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
	}
	go limiter.cleanupOldBuckets()
	return limiter
}

// Allow records one request for key and reports whether it fits in the
// window. An empty key is never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	return l.allow(key, l.maxReqs, l.window)
}

// AllowStrict applies a tighter per-call limit for sensitive endpoints such
// as login and password reset. Strict buckets are tracked separately from the
// general ones.
func (l *Limiter) AllowStrict(key string, maxReqs int, window time.Duration) bool {
	if key == "" {
		return true
	}
	return l.allow("strict:"+key, maxReqs, window)
}

func (l *Limiter) allow(key string, maxReqs int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{requests: []time.Time{}}
		l.buckets[key] = b
	}

	cutoff := now.Add(-window)
	var reqs []time.Time
	for _, t := range b.requests {
		if t.After(cutoff) {
			reqs = append(reqs, t)
		}
	}
	b.requests = reqs
	b.lastSeen = now

	if len(b.requests) >= maxReqs {
		return false
	}

	b.requests = append(b.requests, now)
	return true
}

func (l *Limiter) cleanupOldBuckets() {
	for range l.cleanup.C {
		l.mu.Lock()
		now := time.Now()
		staleThreshold := now.Add(-15 * time.Minute)
		for key, b := range l.buckets {
			if b.lastSeen.Before(staleThreshold) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) Stop() {
	l.cleanup.Stop()
}
