package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Actions with their own buckets. Anything else shares the default bucket.
const (
	ActionCreateListing = "create_listing"
	ActionUploadImage   = "upload_image"
	ActionPlaceLookup   = "place_lookup"
	ActionAuth          = "auth"
	ActionDefault       = "default"
)

// Limit describes a bucket: Burst tokens, refilled one at a time every Every.
type Limit struct {
	Burst int
	Every time.Duration
}

var DefaultLimits = map[string]Limit{
	ActionCreateListing: {Burst: 5, Every: 2 * time.Minute},
	ActionUploadImage:   {Burst: 20, Every: 3 * time.Second},
	ActionPlaceLookup:   {Burst: 30, Every: time.Second},
	ActionAuth:          {Burst: 5, Every: 12 * time.Second},
	ActionDefault:       {Burst: 60, Every: time.Second},
}

type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillTime time.Duration
	lastRefill time.Time
	lastUsed   time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(limit Limit, now time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     limit.Burst,
		maxTokens:  limit.Burst,
		refillTime: limit.Every,
		lastRefill: now,
		lastUsed:   now,
	}
}

// Allow consumes a token if one is available, otherwise reports how long until the next refill.
func (tb *TokenBucket) Allow(now time.Time) (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.lastUsed = now
	if refills := int(now.Sub(tb.lastRefill) / tb.refillTime); refills > 0 {
		tb.tokens += refills
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = tb.lastRefill.Add(time.Duration(refills) * tb.refillTime)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return now.Sub(tb.lastUsed)
}

// RateLimiter keeps one bucket per subject and action. Subjects are user ids, or
// client IPs on unauthenticated routes.
type RateLimiter struct {
	limits  map[string]Limit
	buckets map[string]*TokenBucket
	mutex   sync.Mutex
	now     func() time.Time
}

func NewRateLimiter(limits map[string]Limit) *RateLimiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &RateLimiter{
		limits:  limits,
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(subject, action string) (bool, time.Duration) {
	key := subject + ":" + action
	now := rl.now()

	rl.mutex.Lock()
	bucket, exists := rl.buckets[key]
	if !exists {
		limit, ok := rl.limits[action]
		if !ok {
			limit = rl.limits[ActionDefault]
		}
		bucket = NewTokenBucket(limit, now)
		rl.buckets[key] = bucket
	}
	rl.mutex.Unlock()

	return bucket.Allow(now)
}

// Cleanup removes buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	removed := 0
	for key, bucket := range rl.buckets {
		if bucket.idleSince(now) > maxIdle {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine prunes idle buckets every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
