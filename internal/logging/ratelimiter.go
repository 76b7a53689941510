package logging

import (
	"crypto/md5"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// RateLimiter limits how often the same message is allowed to be
// captured. It maps a message's hash to its last-seen time, bounded by an
// LRU cache so that a flood of distinct messages can't grow memory
// without limit; a nil RateLimiter allows everything through.
type RateLimiter struct {
	cache       *lru.Cache
	minInterval time.Duration
}

// NewRateLimiter returns a limiter backed by an LRU cache of the given
// size, allowing each distinct message once per minInterval.
func NewRateLimiter(size int, minInterval time.Duration) (*RateLimiter, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{cache: cache, minInterval: minInterval}, nil
}

// Allow reports whether msg should be captured now, and if so records the
// current time against it.
func (rl *RateLimiter) Allow(msg string) bool {
	if rl == nil {
		return true
	}

	h := md5.Sum([]byte(msg))
	key := string(h[:])

	now := time.Now()
	if lastSeen, ok := rl.cache.Get(key); ok {
		if now.Sub(lastSeen.(time.Time)) < rl.minInterval {
			return false
		}
	}
	rl.cache.Add(key, now)
	return true
}
