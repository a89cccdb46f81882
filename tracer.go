// Package traceclient ties a sampler and a reporter into the tracer handle
// embedded in host applications. Span construction and context propagation
// live with the host; the tracer only takes the keep/drop decision for new
// traces and forwards finished spans to the reporter.
package traceclient

import (
	"sync"

	"github.com/DataDog/datadog-trace-client/model"
	"github.com/DataDog/datadog-trace-client/reporter"
	"github.com/DataDog/datadog-trace-client/sampler"
)

// Tracer owns the sampling and reporting pipeline of one service.
type Tracer struct {
	serviceName string
	sampler     sampler.Sampler
	reporter    reporter.Reporter
	closeOnce   sync.Once
}

// NewTracer returns a tracer using the injected sampler and reporter. Both
// are owned by the tracer from this point on and closed with it.
func NewTracer(serviceName string, smp sampler.Sampler, rep reporter.Reporter) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		sampler:     smp,
		reporter:    rep,
	}
}

// ServiceName returns the name of the instrumented service.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// SampleTrace decides whether a new trace is recorded. The returned tags
// are meant to be set verbatim on the root span when the trace is kept.
func (t *Tracer) SampleTrace(id model.TraceID, operation string) sampler.SamplingStatus {
	return t.sampler.Sample(id, operation)
}

// ReportSpan forwards a finished span to the reporter. Never blocks on I/O.
func (t *Tracer) ReportSpan(span *model.Span) {
	t.reporter.Report(span)
}

// Close drains the reporter then stops the sampler. Idempotent.
func (t *Tracer) Close() {
	t.closeOnce.Do(func() {
		t.reporter.Close()
		t.sampler.Close()
	})
}
