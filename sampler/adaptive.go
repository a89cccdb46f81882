package sampler

import (
	"sync"

	"github.com/DataDog/datadog-trace-client/model"
)

// DefaultMaxOperations caps the number of per-operation samplers an
// adaptive sampler keeps when no explicit limit is configured.
const DefaultMaxOperations = 2000

// AdaptiveSampler keeps one guaranteed-throughput sampler per operation
// name, bounded by maxOperations. Operations beyond the bound fall back to
// a shared probabilistic sampler at the default rate; they are not tracked
// and nothing is evicted to make room for them.
type AdaptiveSampler struct {
	mu sync.RWMutex

	samplers       map[string]*GuaranteedThroughputProbabilisticSampler
	defaultSampler *ProbabilisticSampler
	defaultRate    float64
	lowerBound     float64
	maxOperations  int
}

// NewAdaptiveSampler builds an adaptive sampler from per-operation
// strategies. Operations listed in the strategies get a sampler at their
// own rate, all with the default lower bound.
func NewAdaptiveSampler(strategies *PerOperationSamplingStrategies, maxOperations int) *AdaptiveSampler {
	if maxOperations <= 0 {
		maxOperations = DefaultMaxOperations
	}
	s := &AdaptiveSampler{
		samplers:       make(map[string]*GuaranteedThroughputProbabilisticSampler),
		defaultSampler: NewProbabilisticSampler(strategies.DefaultSamplingProbability),
		defaultRate:    strategies.DefaultSamplingProbability,
		lowerBound:     strategies.DefaultLowerBoundTracesPerSecond,
		maxOperations:  maxOperations,
	}
	for _, strategy := range strategies.PerOperationStrategies {
		if strategy == nil || strategy.Probabilistic == nil {
			continue
		}
		if len(s.samplers) >= maxOperations {
			break
		}
		s.samplers[strategy.Operation] = NewGuaranteedThroughputProbabilisticSampler(
			s.lowerBound, strategy.Probabilistic.SamplingRate)
	}
	return s
}

// Sample implements Sampler. The first decision for an unseen operation
// creates its per-operation sampler, unless the bound is reached, in which
// case the decision is purely probabilistic at the default rate.
func (s *AdaptiveSampler) Sample(id model.TraceID, operation string) SamplingStatus {
	s.mu.RLock()
	opSampler, ok := s.samplers[operation]
	s.mu.RUnlock()
	if ok {
		return opSampler.Sample(id, operation)
	}

	s.mu.Lock()
	// The operation may have been inserted while we upgraded the lock.
	opSampler, ok = s.samplers[operation]
	if !ok && len(s.samplers) < s.maxOperations {
		opSampler = NewGuaranteedThroughputProbabilisticSampler(s.lowerBound, s.defaultRate)
		s.samplers[operation] = opSampler
		ok = true
	}
	defaultSampler := s.defaultSampler
	s.mu.Unlock()

	if ok {
		return opSampler.Sample(id, operation)
	}
	return defaultSampler.Sample(id, operation)
}

// Update replaces the defaults and refreshes per-operation samplers from
// the given strategies. Listed operations are updated in place or inserted
// within the bound; operations absent from the update keep their current
// parameters.
func (s *AdaptiveSampler) Update(strategies *PerOperationSamplingStrategies) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lowerBound = strategies.DefaultLowerBoundTracesPerSecond
	if strategies.DefaultSamplingProbability != s.defaultRate {
		s.defaultRate = strategies.DefaultSamplingProbability
		s.defaultSampler = NewProbabilisticSampler(s.defaultRate)
	}
	for _, strategy := range strategies.PerOperationStrategies {
		if strategy == nil || strategy.Probabilistic == nil {
			continue
		}
		if opSampler, ok := s.samplers[strategy.Operation]; ok {
			opSampler.Update(s.lowerBound, strategy.Probabilistic.SamplingRate)
		} else if len(s.samplers) < s.maxOperations {
			s.samplers[strategy.Operation] = NewGuaranteedThroughputProbabilisticSampler(
				s.lowerBound, strategy.Probabilistic.SamplingRate)
		}
	}
}

// OperationCount returns the number of per-operation samplers currently
// tracked. It never exceeds the configured maximum.
func (s *AdaptiveSampler) OperationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samplers)
}

// Close implements Sampler. It is a no-op.
func (s *AdaptiveSampler) Close() {}
