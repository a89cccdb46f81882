package sampler

import (
	"math"
	"sync"

	"github.com/DataDog/datadog-trace-client/model"
)

// GuaranteedThroughputProbabilisticSampler samples probabilistically but
// guarantees a lower bound of traces per second: when the probabilistic
// part rejects a trace, a token bucket refilled at lowerBound credits per
// second can still admit it. Decisions admitted that way are tagged
// "lowerbound" instead of "probabilistic".
type GuaranteedThroughputProbabilisticSampler struct {
	mu sync.RWMutex

	probabilistic  *ProbabilisticSampler
	lowerBound     float64
	limiter        *RateLimiter
	lowerBoundTags []model.Tag
}

// NewGuaranteedThroughputProbabilisticSampler returns a sampler with the
// given lower bound, in traces per second, and probabilistic sampling rate.
// The rate is clamped into [0, 1], the lower bound bucket holds at least
// one credit.
func NewGuaranteedThroughputProbabilisticSampler(lowerBound, samplingRate float64) *GuaranteedThroughputProbabilisticSampler {
	if lowerBound < 0 {
		lowerBound = 0
	}
	probabilistic := NewProbabilisticSampler(samplingRate)
	return &GuaranteedThroughputProbabilisticSampler{
		probabilistic:  probabilistic,
		lowerBound:     lowerBound,
		limiter:        NewRateLimiter(lowerBound, math.Max(lowerBound, 1)),
		lowerBoundTags: decisionTags(SamplerTypeLowerBound, probabilistic.SamplingRate()),
	}
}

// Sample implements Sampler. Both the probabilistic decision and the token
// bucket run on every call: a probabilistically sampled trace still
// consumes a credit, which keeps the effective rate at
// max(rate, lowerBound/traffic).
func (s *GuaranteedThroughputProbabilisticSampler) Sample(id model.TraceID, operation string) SamplingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	probStatus := s.probabilistic.Sample(id, operation)
	admitted := s.limiter.CheckCredit(1.0)
	if probStatus.Sampled {
		return probStatus
	}
	if admitted {
		return SamplingStatus{Sampled: true, Tags: s.lowerBoundTags}
	}
	return probStatus
}

// Update replaces the lower bound and the sampling rate in place. The rate
// is clamped into [0, 1]. The bucket balance accumulated so far is kept.
func (s *GuaranteedThroughputProbabilisticSampler) Update(lowerBound, samplingRate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lowerBound < 0 {
		lowerBound = 0
	}
	if samplingRate != s.probabilistic.SamplingRate() {
		s.probabilistic = NewProbabilisticSampler(samplingRate)
		s.lowerBoundTags = decisionTags(SamplerTypeLowerBound, s.probabilistic.SamplingRate())
	}
	if lowerBound != s.lowerBound {
		s.lowerBound = lowerBound
		s.limiter.Update(lowerBound, math.Max(lowerBound, 1))
	}
}

// LowerBound returns the current guaranteed traces per second.
func (s *GuaranteedThroughputProbabilisticSampler) LowerBound() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lowerBound
}

// SamplingRate returns the current probabilistic sampling rate.
func (s *GuaranteedThroughputProbabilisticSampler) SamplingRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.probabilistic.SamplingRate()
}

// Close implements Sampler. It is a no-op.
func (s *GuaranteedThroughputProbabilisticSampler) Close() {}
