package sampler

import (
	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-trace-client/model"
)

const (
	// 2^64 - 1
	maxTraceID      = ^uint64(0)
	maxTraceIDFloat = float64(maxTraceID)
)

// ProbabilisticSampler keeps a fixed fraction of all traces. The sampling
// rate is turned into a 64-bit boundary at construction so the decision is
// a single integer comparison on the low half of the trace ID.
type ProbabilisticSampler struct {
	samplingRate float64
	boundary     uint64
	tags         []model.Tag
}

// NewProbabilisticSampler returns a sampler keeping traces at the given
// rate. A rate outside [0, 1] is clamped to the nearest valid value.
func NewProbabilisticSampler(samplingRate float64) *ProbabilisticSampler {
	if samplingRate < 0 || samplingRate > 1 {
		log.Warnf("sampling rate %f out of [0, 1], clamping", samplingRate)
		if samplingRate < 0 {
			samplingRate = 0
		} else {
			samplingRate = 1
		}
	}
	return &ProbabilisticSampler{
		samplingRate: samplingRate,
		boundary:     uint64(samplingRate * maxTraceIDFloat),
		tags:         decisionTags(SamplerTypeProbabilistic, samplingRate),
	}
}

// Sample implements Sampler.
func (s *ProbabilisticSampler) Sample(id model.TraceID, operation string) SamplingStatus {
	if s.samplingRate >= 1 {
		return SamplingStatus{Sampled: true, Tags: s.tags}
	}
	return SamplingStatus{Sampled: id.Low < s.boundary, Tags: s.tags}
}

// SamplingRate returns the effective, clamped sampling rate.
func (s *ProbabilisticSampler) SamplingRate() float64 {
	return s.samplingRate
}

// Close implements Sampler. It is a no-op.
func (s *ProbabilisticSampler) Close() {}
