package crawler

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// hostRateLimiter holds one token bucket per host. Tokens replenish at a
// steady rate; workers wait cooperatively at dequeue time.
type hostRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newHostRateLimiter(rps float64) *hostRateLimiter {
	if rps <= 0 {
		rps = 2
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &hostRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until a token is available for the host or ctx is done.
func (r *hostRateLimiter) Wait(ctx context.Context, host string) error {
	return r.limiterFor(host).Wait(ctx)
}

// SetHostRate overrides the rate for one host, used to honor Crawl-delay.
func (r *hostRateLimiter) SetHostRate(host string, rps float64) {
	if rps <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[host] = rate.NewLimiter(rate.Limit(rps), 1)
}

func (r *hostRateLimiter) limiterFor(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(r.rps, r.burst)
		r.limiters[host] = limiter
	}
	return limiter
}
