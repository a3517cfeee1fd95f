// Package ratelimit limits requests per client with token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// Rule limits one method and path. A Path ending in "/" matches every path
// below it.
type Rule struct {
	Method string
	Path   string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int // bucket capacity; Limit when zero
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	Rules           []Rule
}

// Info describes the limit that applied to one request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	capacity   float64
	perSecond  float64
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.perSecond)
	}
	b.lastRefill = now
}

func (b *bucket) secondsFor(tokens float64) time.Duration {
	return time.Duration(tokens / b.perSecond * float64(time.Second))
}

// take consumes a token if one is available. reset is when the bucket will be
// full again.
func (b *bucket) take(now time.Time) Info {
	b.refill(now)
	b.lastSeen = now
	info := Info{ResetTime: now.Add(b.secondsFor(b.capacity - b.tokens))}
	if b.tokens >= 1 {
		b.tokens--
		info.Allowed = true
		info.ResetTime = now.Add(b.secondsFor(b.capacity - b.tokens))
	} else {
		info.RetryAfter = max(b.secondsFor(1-b.tokens), time.Second)
	}
	info.Remaining = int(b.tokens)
	return info
}

// Limiter keeps one bucket per client, method and rule.
type Limiter struct {
	cfg     Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a limiter. A positive CleanupInterval starts a goroutine
// that drops idle buckets until Stop is called.
func NewLimiter(cfg Config) *Limiter {
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Hour
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.cleanupLoop(cfg.CleanupInterval)
	}
	return l
}

// Allow reports whether clientID may make a request to method and path.
func (l *Limiter) Allow(clientID, method, path string) Info {
	if !l.cfg.Enabled || l.cfg.Allowlist[clientID] {
		return Info{Allowed: true}
	}
	if l.cfg.Denylist[clientID] {
		return Info{}
	}

	rule, key := l.ruleFor(method, path)
	if rule.Limit <= 0 {
		return Info{Allowed: true}
	}
	if rule.Window <= 0 {
		rule.Window = l.cfg.DefaultWindow
	}

	now := l.now()
	l.mu.Lock()
	b, ok := l.buckets[clientID+"|"+key]
	if !ok {
		capacity := rule.Burst
		if capacity <= 0 {
			capacity = rule.Limit
		}
		b = &bucket{
			capacity:   float64(capacity),
			perSecond:  float64(rule.Limit) / rule.Window.Seconds(),
			tokens:     float64(capacity),
			lastRefill: now,
		}
		l.buckets[clientID+"|"+key] = b
	}
	info := b.take(now)
	l.mu.Unlock()

	info.Limit = rule.Limit
	return info
}

// ruleFor returns the matching rule and its bucket key. Exact paths win over
// prefixes; unmatched requests share the default rule.
func (l *Limiter) ruleFor(method, path string) (Rule, string) {
	if rule, ok := Match(l.cfg.Rules, method, path); ok {
		return rule, rule.Method + " " + rule.Path
	}
	return Rule{Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}, "default"
}

// Match finds the rule for a request. GET /health is never limited.
func Match(rules []Rule, method, path string) (Rule, bool) {
	if method == "GET" && path == "/health" {
		return Rule{}, true
	}
	for _, r := range rules {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	for _, r := range rules {
		if r.Method == method && len(r.Path) > 1 && r.Path[len(r.Path)-1] == '/' &&
			len(path) > len(r.Path) && path[:len(r.Path)] == r.Path {
			return r, true
		}
	}
	return Rule{}, false
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets not used within IdleTTL.
func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
