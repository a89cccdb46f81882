package sampler

import (
	"math"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-trace-client/model"
)

// RateLimitingSampler keeps at most maxTracesPerSecond traces, regardless
// of the traffic. It is backed by a token bucket whose capacity is at least
// one credit so a fresh sampler always admits the first trace.
type RateLimitingSampler struct {
	maxTracesPerSecond float64
	limiter            *RateLimiter
	tags               []model.Tag
}

// NewRateLimitingSampler returns a sampler admitting up to
// maxTracesPerSecond traces. A negative rate is treated as zero.
func NewRateLimitingSampler(maxTracesPerSecond float64) *RateLimitingSampler {
	if maxTracesPerSecond < 0 {
		log.Warnf("negative rate limit %f, using 0", maxTracesPerSecond)
		maxTracesPerSecond = 0
	}
	return &RateLimitingSampler{
		maxTracesPerSecond: maxTracesPerSecond,
		limiter:            NewRateLimiter(maxTracesPerSecond, math.Max(maxTracesPerSecond, 1)),
		tags:               decisionTags(SamplerTypeRateLimiting, maxTracesPerSecond),
	}
}

// Sample implements Sampler.
func (s *RateLimitingSampler) Sample(id model.TraceID, operation string) SamplingStatus {
	return SamplingStatus{Sampled: s.limiter.CheckCredit(1.0), Tags: s.tags}
}

// MaxTracesPerSecond returns the configured rate limit.
func (s *RateLimitingSampler) MaxTracesPerSecond() float64 {
	return s.maxTracesPerSecond
}

// Close implements Sampler. It is a no-op.
func (s *RateLimitingSampler) Close() {}
