// Package sampler contains all the logic of the client-side trace sampling.
//
// A sampler decides, from a trace ID and an operation name, whether the
// spans of a trace are recorded at all. Decisions are taken on the hot path
// of the host application so every implementation here is non-blocking:
// at worst a short-lived uncontended lock is taken.
//
// Each decision carries a pair of tags identifying the sampler that took it
// and its parameter. The surrounding tracer adds them verbatim to the root
// span so the collector can later undo the sampling bias.
package sampler

import (
	"github.com/DataDog/datadog-trace-client/model"
)

const (
	// SamplerTypeTagKey reports which sampler took the decision.
	SamplerTypeTagKey = "sampler.type"

	// SamplerParamTagKey reports the parameter of the sampler that took
	// the decision, like the sampling probability.
	SamplerParamTagKey = "sampler.param"

	// SamplerTypeConst is the type of sampler that always makes the same decision.
	SamplerTypeConst = "const"

	// SamplerTypeProbabilistic is the type of sampler that samples traces
	// with a certain fixed probability.
	SamplerTypeProbabilistic = "probabilistic"

	// SamplerTypeRateLimiting is the type of sampler that samples only up
	// to a fixed number of traces per second.
	SamplerTypeRateLimiting = "ratelimiting"

	// SamplerTypeLowerBound is the type reported when the guaranteed
	// throughput sampler admits a trace through its lower bound while the
	// probabilistic part rejected it.
	SamplerTypeLowerBound = "lowerbound"
)

// SamplingStatus is the outcome of a single sampling decision: whether the
// trace is kept, and the tags describing why.
type SamplingStatus struct {
	Sampled bool
	Tags    []model.Tag
}

// Sampler is the common interface of all sampling strategies.
type Sampler interface {
	// Sample decides if a trace with the given ID and root operation name
	// should be recorded. Safe for concurrent use, never blocks on I/O.
	Sample(id model.TraceID, operation string) SamplingStatus

	// Close releases any background resource held by the sampler.
	Close()
}

func decisionTags(samplerType string, param interface{}) []model.Tag {
	return []model.Tag{
		{Key: SamplerTypeTagKey, Value: samplerType},
		{Key: SamplerParamTagKey, Value: param},
	}
}
