// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter is the token-bucket limiter of C10 / spec.md §3: rate R,
// capacity C=R, refilled continuously. It also tracks an admitted/total
// rolling effective rate for the _dd.limit_psr metric, grounded on
// ddtrace/tracer/rules_sampler.go's rateLimiter.
type rateLimiter struct {
	limiter *rate.Limiter

	mu          sync.Mutex
	prevTime    time.Time
	allowed     float64
	seen        float64
	decayPerSec float64 // exponential decay applied to allowed/seen each second
}

const limiterEffectiveRateDecay = 1.0 / 30.0 // ~30s decay time constant (~20s half-life)

// newRateLimiter returns a limiter admitting at most ratePerSecond events
// per second with burst capacity equal to the rate (capacity=R per
// spec.md §3).
func newRateLimiter(ratePerSecond float64) *rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = math.MaxFloat64
	}
	burst := ratePerSecond
	if burst > float64(math.MaxInt32) {
		burst = float64(math.MaxInt32)
	}
	return &rateLimiter{
		limiter:     rate.NewLimiter(rate.Limit(ratePerSecond), int(math.Ceil(burst))),
		prevTime:    time.Now(),
		decayPerSec: limiterEffectiveRateDecay,
	}
}

// allowOne reports whether one event is admitted at time now, and returns
// the rolling effective admit rate (admitted/total) to be recorded as
// _dd.limit_psr.
func (l *rateLimiter) allowOne(now time.Time) (bool, float64) {
	ok := l.limiter.AllowN(now, 1)
	l.mu.Lock()
	defer l.mu.Unlock()
	dt := now.Sub(l.prevTime).Seconds()
	if dt < 0 {
		dt = 0
	}
	l.prevTime = now
	decay := math.Pow(1-l.decayPerSec, dt)
	l.allowed *= decay
	l.seen *= decay
	l.seen++
	if ok {
		l.allowed++
	}
	if l.seen == 0 {
		return ok, 1
	}
	return ok, l.allowed / l.seen
}

// limit returns the configured events-per-second limit.
func (l *rateLimiter) limit() float64 { return float64(l.limiter.Limit()) }
