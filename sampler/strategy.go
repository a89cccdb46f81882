package sampler

// Sampling strategies as served by the control plane. The JSON field names
// follow the agent sampling endpoint so a response can be decoded directly
// into a StrategyResponse.

// ProbabilisticSamplingStrategy samples a fixed fraction of all traces.
type ProbabilisticSamplingStrategy struct {
	SamplingRate float64 `json:"samplingRate"`
}

// RateLimitingSamplingStrategy samples up to a fixed number of traces per
// second.
type RateLimitingSamplingStrategy struct {
	MaxTracesPerSecond float64 `json:"maxTracesPerSecond"`
}

// OperationSamplingStrategy is a probabilistic strategy scoped to a single
// operation name.
type OperationSamplingStrategy struct {
	Operation     string                         `json:"operation"`
	Probabilistic *ProbabilisticSamplingStrategy `json:"probabilisticSampling"`
}

// PerOperationSamplingStrategies carries the defaults and the
// per-operation strategies driving an adaptive sampler.
type PerOperationSamplingStrategies struct {
	DefaultSamplingProbability       float64                      `json:"defaultSamplingProbability"`
	DefaultLowerBoundTracesPerSecond float64                      `json:"defaultLowerBoundTracesPerSecond"`
	PerOperationStrategies           []*OperationSamplingStrategy `json:"perOperationStrategies"`
}

// StrategyResponse is the sampling configuration of one service. Exactly
// one of the three fields is expected to be set; when several are, the most
// specific one (per-operation first, then probabilistic) wins.
type StrategyResponse struct {
	Probabilistic     *ProbabilisticSamplingStrategy  `json:"probabilisticSampling"`
	RateLimiting      *RateLimitingSamplingStrategy   `json:"rateLimitingSampling"`
	OperationSampling *PerOperationSamplingStrategies `json:"operationSampling"`
}
