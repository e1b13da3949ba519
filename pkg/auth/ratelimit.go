package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate limit tiers, derived from Identity.IsAuthenticated.
const (
	TierAuthenticated = "authenticated"
	TierAnonymous     = "anonymous"
)

// RateLimiter checks whether a request should be allowed for an identity.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a tier.
type TierConfig struct {
	RequestsPerMinute int
}

// Tier returns the rate limit tier for an identity.
func Tier(identity *Identity) string {
	if identity == nil || !identity.IsAuthenticated {
		return TierAnonymous
	}
	return TierAuthenticated
}

// InProcessLimiter is a per-subject token bucket limiter kept in memory.
// Each bucket holds a tier's requests-per-minute and refills at the same
// rate, so a subject may burst up to the limit and then sustain it.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	now        func() time.Time
	mu         sync.Mutex
	buckets    map[string]*bucket
	sweptAt    time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
// A tier missing from tiers uses defaultRPM; 0 disables limiting.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		now:        time.Now,
		buckets:    make(map[string]*bucket),
	}
}

// Allow checks if the request is within the rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := Tier(identity)

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	if rpm <= 0 {
		return nil
	}

	key := tier + ":" + identity.Subject

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if !b.limiter.AllowN(now, 1) {
		return NewError(KindRateLimited, "rate limit exceeded", nil)
	}
	return nil
}

// sweep drops buckets idle for a full minute; they have refilled and are
// indistinguishable from new ones. It runs at most once a minute.
// Must be called with l.mu held.
func (l *InProcessLimiter) sweep(now time.Time) {
	if now.Sub(l.sweptAt) < time.Minute {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= time.Minute {
			delete(l.buckets, key)
		}
	}
	l.sweptAt = now
}
