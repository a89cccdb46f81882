package sampler

import (
	"testing"

	log "github.com/cihub/seelog"
	"github.com/stretchr/testify/assert"

	"github.com/DataDog/datadog-trace-client/model"
)

const (
	testOperationName          = "op"
	testFirstTimeOperationName = "firstTimeOp"
	testDefaultSamplingRate    = 0.5
	testDefaultMaxOperations   = 10
)

// testMaxID is the first trace ID low half rejected by a probabilistic
// sampler at rate 0.5.
const testMaxID = uint64(1) << 63

func init() {
	// Disable debug logs in these tests
	log.UseLogger(log.Disabled)
}

func traceIDWithLow(low uint64) model.TraceID {
	return model.TraceID{Low: low}
}

// assertDecisionTags checks the universal tag invariant: exactly one
// sampler.type entry and exactly one sampler.param entry.
func assertDecisionTags(t *testing.T, status SamplingStatus, wantType string, wantParam interface{}) {
	t.Helper()
	assert := assert.New(t)

	typeCount := 0
	paramCount := 0
	for _, tag := range status.Tags {
		switch tag.Key {
		case SamplerTypeTagKey:
			assert.Equal(wantType, tag.Value)
			typeCount++
		case SamplerParamTagKey:
			assert.Equal(wantParam, tag.Value)
			paramCount++
		}
	}
	assert.Equal(1, typeCount, "expected exactly one sampler.type tag")
	assert.Equal(1, paramCount, "expected exactly one sampler.param tag")
}

func TestSamplerDecisionTags(t *testing.T) {
	for _, tt := range []struct {
		name      string
		sampler   Sampler
		wantType  string
		wantParam interface{}
	}{
		{"const true", NewConstSampler(true), SamplerTypeConst, true},
		{"const false", NewConstSampler(false), SamplerTypeConst, false},
		{"probabilistic", NewProbabilisticSampler(0.1), SamplerTypeProbabilistic, 0.1},
		{"ratelimiting", NewRateLimitingSampler(0.1), SamplerTypeRateLimiting, 0.1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.sampler.Sample(model.TraceID{}, testOperationName)
			assertDecisionTags(t, status, tt.wantType, tt.wantParam)
			tt.sampler.Close()
		})
	}
}

func TestConstSampler(t *testing.T) {
	assert := assert.New(t)

	assert.True(NewConstSampler(true).Sample(model.TraceID{}, testOperationName).Sampled)
	assert.False(NewConstSampler(false).Sample(model.TraceID{}, testOperationName).Sampled)
}

func TestProbabilisticSampler(t *testing.T) {
	assert := assert.New(t)

	sampler := NewProbabilisticSampler(testDefaultSamplingRate)

	status := sampler.Sample(traceIDWithLow(testMaxID+10), testOperationName)
	assert.False(status.Sampled)
	assertDecisionTags(t, status, SamplerTypeProbabilistic, testDefaultSamplingRate)

	status = sampler.Sample(traceIDWithLow(testMaxID-20), testOperationName)
	assert.True(status.Sampled)
	assertDecisionTags(t, status, SamplerTypeProbabilistic, testDefaultSamplingRate)
}

func TestProbabilisticSamplerClampsRate(t *testing.T) {
	assert := assert.New(t)

	sampler := NewProbabilisticSampler(-0.1)
	assert.Equal(0.0, sampler.SamplingRate())
	assert.False(sampler.Sample(traceIDWithLow(0), testOperationName).Sampled)

	sampler = NewProbabilisticSampler(1.1)
	assert.Equal(1.0, sampler.SamplingRate())
	assert.True(sampler.Sample(traceIDWithLow(maxTraceID), testOperationName).Sampled)
}

func TestProbabilisticSamplerBoundaries(t *testing.T) {
	assert := assert.New(t)

	// Rate 0 never samples, rate 1 samples everything including the
	// largest possible ID.
	never := NewProbabilisticSampler(0)
	always := NewProbabilisticSampler(1)
	for _, low := range []uint64{0, 1, testMaxID, maxTraceID} {
		assert.False(never.Sample(traceIDWithLow(low), testOperationName).Sampled)
		assert.True(always.Sample(traceIDWithLow(low), testOperationName).Sampled)
	}
}

func TestRateLimitingSampler(t *testing.T) {
	assert := assert.New(t)

	// A fresh bucket at 2 credits/s holds 2 credits.
	sampler := NewRateLimitingSampler(2)
	assert.True(sampler.Sample(model.TraceID{}, testOperationName).Sampled)
	assert.True(sampler.Sample(model.TraceID{}, testOperationName).Sampled)
	assert.False(sampler.Sample(model.TraceID{}, testOperationName).Sampled)

	// A rate below one still admits the first trace thanks to the
	// minimum capacity of one credit.
	sampler = NewRateLimitingSampler(0.1)
	assert.True(sampler.Sample(model.TraceID{}, testOperationName).Sampled)
	assert.False(sampler.Sample(model.TraceID{}, testOperationName).Sampled)
}

func TestGuaranteedThroughputProbabilisticSamplerUpdate(t *testing.T) {
	assert := assert.New(t)

	sampler := NewGuaranteedThroughputProbabilisticSampler(2.0, 0.5)
	assert.Equal(2.0, sampler.LowerBound())
	assert.Equal(0.5, sampler.SamplingRate())

	sampler.Update(1.0, 0.6)
	assert.Equal(1.0, sampler.LowerBound())
	assert.Equal(0.6, sampler.SamplingRate())

	// Out-of-range rates are clamped on update too.
	sampler.Update(1.0, 1.1)
	assert.Equal(1.0, sampler.SamplingRate())
}

func TestGuaranteedThroughputProbabilisticSamplerLowerBound(t *testing.T) {
	assert := assert.New(t)

	// With a probabilistic rate of 0 every admission comes from the
	// lower bound bucket, tagged accordingly.
	sampler := NewGuaranteedThroughputProbabilisticSampler(1.0, 0)

	status := sampler.Sample(traceIDWithLow(testMaxID), testOperationName)
	assert.True(status.Sampled)
	assertDecisionTags(t, status, SamplerTypeLowerBound, 0.0)

	// The single credit is spent, the next decision is a probabilistic reject.
	status = sampler.Sample(traceIDWithLow(testMaxID), testOperationName)
	assert.False(status.Sampled)
	assertDecisionTags(t, status, SamplerTypeProbabilistic, 0.0)
}

func TestGuaranteedThroughputSampledCallConsumesCredit(t *testing.T) {
	assert := assert.New(t)

	// A probabilistically sampled trace still consumes a lower bound
	// credit, so a following probabilistic miss finds the bucket empty.
	sampler := NewGuaranteedThroughputProbabilisticSampler(1.0, testDefaultSamplingRate)

	status := sampler.Sample(traceIDWithLow(testMaxID-20), testOperationName)
	assert.True(status.Sampled)
	assertDecisionTags(t, status, SamplerTypeProbabilistic, testDefaultSamplingRate)

	status = sampler.Sample(traceIDWithLow(testMaxID+10), testOperationName)
	assert.False(status.Sampled)
}
