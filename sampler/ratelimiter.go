package sampler

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket handing out credits at a fixed rate up to a
// maximum balance. The bucket starts full. Credits may be fractional, which
// allows rates below one per second.
type RateLimiter struct {
	mu sync.Mutex

	creditsPerSecond float64
	balance          float64
	maxBalance       float64
	lastTick         time.Time

	// timeNow is swapped in tests to control the clock.
	timeNow func() time.Time
}

// NewRateLimiter returns a full bucket refilled at creditsPerSecond and
// capped at maxBalance.
func NewRateLimiter(creditsPerSecond, maxBalance float64) *RateLimiter {
	return &RateLimiter{
		creditsPerSecond: creditsPerSecond,
		balance:          maxBalance,
		maxBalance:       maxBalance,
		lastTick:         time.Now(),
		timeNow:          time.Now,
	}
}

// CheckCredit refills the bucket from the elapsed time then withdraws
// itemCost from it. It returns false when the balance is insufficient, in
// which case nothing is withdrawn. Refill and withdrawal are atomic with
// respect to concurrent callers.
func (r *RateLimiter) CheckCredit(itemCost float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timeNow()
	elapsed := now.Sub(r.lastTick)
	r.lastTick = now

	r.balance += elapsed.Seconds() * r.creditsPerSecond
	if r.balance > r.maxBalance {
		r.balance = r.maxBalance
	}
	if r.balance >= itemCost {
		r.balance -= itemCost
		return true
	}
	return false
}

// Update changes the refill rate and the maximum balance of the bucket.
// The current balance is clamped to the new maximum.
func (r *RateLimiter) Update(creditsPerSecond, maxBalance float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creditsPerSecond = creditsPerSecond
	r.maxBalance = maxBalance
	if r.balance > maxBalance {
		r.balance = maxBalance
	}
}
