package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

const rateLimitSweepInterval = 5 * time.Minute

// RateLimiterConfig bounds how many frames a client may submit per window.
type RateLimiterConfig struct {
	Max    int
	Window time.Duration
	// KeyGenerator picks the bucket for a request. An empty key bypasses the limit.
	KeyGenerator func(c *fiber.Ctx) string
}

// DefaultRateLimiterConfig allows 60 requests per minute per client address.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:          60,
		Window:       time.Minute,
		KeyGenerator: ClientAddress,
	}
}

// ClientAddress buckets requests by remote IP.
func ClientAddress(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// quota is the outcome of counting one request against its bucket.
type quota struct {
	used    int
	resetAt time.Time
}

type bucket struct {
	hits     int
	resetAt  time.Time
	lastSeen time.Time
}

// RateLimiter counts requests in fixed windows per key. Buckets idle for
// two windows are swept in the background until Stop.
type RateLimiter struct {
	max    int
	window time.Duration
	keyOf  func(c *fiber.Ctx) string
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaults.KeyGenerator
	}

	rl := &RateLimiter{
		max:     config.Max,
		window:  config.Window,
		keyOf:   config.KeyGenerator,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the background sweep. Calling it again is a no-op.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rl.keyOf(c)
		if key == "" {
			return c.Next()
		}

		now := rl.now()
		q := rl.take(key, now)

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(rl.max-q.used, 0)))
		c.Set("X-RateLimit-Reset", q.resetAt.UTC().Format(time.RFC3339))

		if q.used > rl.max {
			wait := int(q.resetAt.Sub(now)/time.Second) + 1
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(wait))
			return domain.ErrRateLimitExceeded
		}
		return c.Next()
	}
}

func (rl *RateLimiter) take(key string, now time.Time) quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(rl.window)}
		rl.buckets[key] = b
	}
	b.hits++
	b.lastSeen = now
	return quota{used: b.hits, resetAt: b.resetAt}
}

// sweep drops buckets not seen for two windows and reports how many remain.
func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > 2*rl.window {
			delete(rl.buckets, key)
		}
	}
	return len(rl.buckets)
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rateLimitSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep(rl.now())
		}
	}
}
