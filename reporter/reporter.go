// Package reporter contains the sinks for finished spans. The interesting
// one is the RemoteReporter, which decouples the host application from the
// network through a bounded queue and a single worker goroutine: a full
// queue delays the caller briefly at most, then drops rather than block.
package reporter

import (
	"sync"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-trace-client/model"
)

// Reporter is a sink for finished spans.
type Reporter interface {
	// Report submits a finished span. It never blocks on I/O.
	Report(span *model.Span)

	// Close blocks until in-flight spans are drained, then releases any
	// resource held by the reporter. It is idempotent.
	Close()
}

// NullReporter discards every span.
type NullReporter struct{}

// NewNullReporter returns a reporter that does nothing.
func NewNullReporter() *NullReporter {
	return &NullReporter{}
}

// Report implements Reporter.
func (r *NullReporter) Report(span *model.Span) {}

// Close implements Reporter.
func (r *NullReporter) Close() {}

// InMemoryReporter keeps reported spans in memory, for tests.
type InMemoryReporter struct {
	mu    sync.Mutex
	spans []*model.Span
}

// NewInMemoryReporter returns an empty in-memory reporter.
func NewInMemoryReporter() *InMemoryReporter {
	return &InMemoryReporter{}
}

// Report implements Reporter.
func (r *InMemoryReporter) Report(span *model.Span) {
	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()
}

// SpansSubmitted returns how many spans were reported since the last Reset.
func (r *InMemoryReporter) SpansSubmitted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}

// Spans returns a copy of the reported spans.
func (r *InMemoryReporter) Spans() []*model.Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	spans := make([]*model.Span, len(r.spans))
	copy(spans, r.spans)
	return spans
}

// Reset forgets all reported spans.
func (r *InMemoryReporter) Reset() {
	r.mu.Lock()
	r.spans = nil
	r.mu.Unlock()
}

// Close implements Reporter.
func (r *InMemoryReporter) Close() {}

// LoggingReporter emits one log line per span.
type LoggingReporter struct{}

// NewLoggingReporter returns a reporter logging every span.
func NewLoggingReporter() *LoggingReporter {
	return &LoggingReporter{}
}

// Report implements Reporter.
func (r *LoggingReporter) Report(span *model.Span) {
	log.Infof("reporting span: service=%s operation=%s trace_id=%s duration=%s",
		span.Service, span.Operation, span.TraceID, span.Duration)
}

// Close implements Reporter.
func (r *LoggingReporter) Close() {}

// CompositeReporter fans every span out to an ordered list of reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter returns a reporter delegating to the given
// reporters, in order.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

// Report implements Reporter. Children are called sequentially, each call
// completing before the next starts.
func (r *CompositeReporter) Report(span *model.Span) {
	for _, reporter := range r.reporters {
		reporter.Report(span)
	}
}

// Close implements Reporter. Children are closed in order; a panicking
// child is logged and does not prevent the others from closing.
func (r *CompositeReporter) Close() {
	for _, reporter := range r.reporters {
		closeChild(reporter)
	}
}

func closeChild(r Reporter) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("reporter panicked on close: %v", err)
		}
	}()
	r.Close()
}
