package sampler

import (
	"github.com/DataDog/datadog-trace-client/model"
)

// ConstSampler takes the same decision for every trace.
type ConstSampler struct {
	decision bool
	tags     []model.Tag
}

// NewConstSampler returns a sampler always returning the given decision.
func NewConstSampler(decision bool) *ConstSampler {
	return &ConstSampler{
		decision: decision,
		tags:     decisionTags(SamplerTypeConst, decision),
	}
}

// Sample implements Sampler.
func (s *ConstSampler) Sample(id model.TraceID, operation string) SamplingStatus {
	return SamplingStatus{Sampled: s.decision, Tags: s.tags}
}

// Decision returns the constant decision of this sampler.
func (s *ConstSampler) Decision() bool {
	return s.decision
}

// Close implements Sampler. It is a no-op.
func (s *ConstSampler) Close() {}
