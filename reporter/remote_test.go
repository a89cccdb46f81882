package reporter

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DataDog/datadog-trace-client/model"
	"github.com/DataDog/datadog-trace-client/statsd"
)

// fakeTransport batches spans in memory. When gate is set, Append blocks
// until the gate is released, simulating a slow wire.
type fakeTransport struct {
	mu        sync.Mutex
	batchSize int
	buffer    []*model.Span
	sent      []*model.Span
	flushErr  error
	closed    int

	gate chan struct{}
}

func newFakeTransport(batchSize int) *fakeTransport {
	return &fakeTransport{batchSize: batchSize}
}

func (t *fakeTransport) Append(span *model.Span) (int, error) {
	if t.gate != nil {
		<-t.gate
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer = append(t.buffer, span)
	if len(t.buffer) >= t.batchSize {
		return t.flushLocked()
	}
	return 0, nil
}

func (t *fakeTransport) Flush() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

func (t *fakeTransport) flushLocked() (int, error) {
	n := len(t.buffer)
	if n == 0 {
		return 0, nil
	}
	batch := t.buffer
	t.buffer = nil
	if t.flushErr != nil {
		return 0, t.flushErr
	}
	t.sent = append(t.sent, batch...)
	return n, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return nil
}

func (t *fakeTransport) sentSpans() []*model.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	spans := make([]*model.Span, len(t.sent))
	copy(spans, t.sent)
	return spans
}

func (t *fakeTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func TestRemoteReporterDrainsOnClose(t *testing.T) {
	assert := assert.New(t)

	transport := newFakeTransport(10)
	stats := &statsd.TestStatsClient{}
	r := NewRemoteReporter(transport, RemoteReporterConfig{FlushInterval: time.Millisecond}, stats)

	const spanCount = 100
	for i := 0; i < spanCount; i++ {
		r.Report(testSpan(fmt.Sprintf("op-%d", i)))
	}
	time.Sleep(5 * time.Millisecond)
	r.Close()

	// Everything reported before Close reaches the transport, in order.
	sent := transport.sentSpans()
	assert.Len(sent, spanCount)
	for i, span := range sent {
		assert.Equal(fmt.Sprintf("op-%d", i), span.Operation)
	}
	assert.EqualValues(spanCount, stats.CountSum("datadog.trace_client.reporter.spans.submitted"))
	assert.EqualValues(spanCount, stats.CountSum("datadog.trace_client.reporter.spans.sent"))
	assert.Zero(stats.CountSum("datadog.trace_client.reporter.spans.dropped"))
	assert.Equal(1, transport.closeCount())
}

func TestRemoteReporterTinyQueueDeliversAll(t *testing.T) {
	assert := assert.New(t)

	// A one-slot queue with a healthy worker loses nothing: the producer
	// briefly waits for the worker instead of dropping.
	transport := newFakeTransport(10)
	stats := &statsd.TestStatsClient{}
	r := NewRemoteReporter(transport, RemoteReporterConfig{
		QueueSize:     1,
		FlushInterval: time.Millisecond,
	}, stats)

	const spanCount = 100
	for i := 0; i < spanCount; i++ {
		r.Report(testSpan(fmt.Sprintf("op-%d", i)))
	}
	time.Sleep(5 * time.Millisecond)
	r.Close()

	sent := transport.sentSpans()
	assert.Len(sent, spanCount)
	for i, span := range sent {
		assert.Equal(fmt.Sprintf("op-%d", i), span.Operation)
	}
	assert.Zero(stats.CountSum("datadog.trace_client.reporter.spans.dropped"))
}

func TestRemoteReporterPeriodicFlush(t *testing.T) {
	assert := assert.New(t)

	// The batch threshold is never hit, so only the ticker can move the
	// single span to the wire.
	transport := newFakeTransport(1000)
	r := NewRemoteReporter(transport, RemoteReporterConfig{FlushInterval: time.Millisecond}, &statsd.TestStatsClient{})
	defer r.Close()

	r.Report(testSpan("op"))

	deadline := time.Now().Add(time.Second)
	for len(transport.sentSpans()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Len(transport.sentSpans(), 1)
}

func TestRemoteReporterQueueFullDrops(t *testing.T) {
	assert := assert.New(t)

	transport := newFakeTransport(1000)
	transport.gate = make(chan struct{})
	stats := &statsd.TestStatsClient{}
	r := NewRemoteReporter(transport, RemoteReporterConfig{
		QueueSize:     5,
		FlushInterval: time.Hour,
		ReportTimeout: time.Millisecond,
	}, stats)

	// The worker is stuck on the first span, at most one span is in its
	// hands and QueueSize more fit in the queue. The rest must be dropped
	// once the report timeout expires.
	for i := 0; i < 20; i++ {
		r.Report(testSpan(fmt.Sprintf("op-%d", i)))
	}
	assert.NotZero(stats.CountSum("datadog.trace_client.reporter.spans.dropped"))
	assert.EqualValues(20,
		stats.CountSum("datadog.trace_client.reporter.spans.submitted")+
			stats.CountSum("datadog.trace_client.reporter.spans.dropped"))

	close(transport.gate)
	r.Close()
}

func TestRemoteReporterCloseIdempotent(t *testing.T) {
	assert := assert.New(t)

	transport := newFakeTransport(10)
	r := NewRemoteReporter(transport, RemoteReporterConfig{}, &statsd.TestStatsClient{})

	r.Report(testSpan("op"))
	r.Close()
	r.Close()

	assert.Equal(1, transport.closeCount())
	assert.Len(transport.sentSpans(), 1)
}

func TestRemoteReporterDropsAfterClose(t *testing.T) {
	assert := assert.New(t)

	transport := newFakeTransport(10)
	stats := &statsd.TestStatsClient{}
	r := NewRemoteReporter(transport, RemoteReporterConfig{}, stats)
	r.Close()

	r.Report(testSpan("op"))
	assert.EqualValues(1, stats.CountSum("datadog.trace_client.reporter.spans.dropped"))
	assert.Empty(transport.sentSpans())
}

func TestRemoteReporterFlushErrors(t *testing.T) {
	assert := assert.New(t)

	transport := newFakeTransport(1000)
	transport.flushErr = errors.New("wire down")
	stats := &statsd.TestStatsClient{}
	r := NewRemoteReporter(transport, RemoteReporterConfig{FlushInterval: time.Hour}, stats)

	r.Report(testSpan("op"))
	r.Close()

	assert.NotZero(stats.CountSum("datadog.trace_client.reporter.batches.failed"))
	assert.Zero(stats.CountSum("datadog.trace_client.reporter.spans.sent"))
}

func TestRemoteReporterCloseTimeoutForcesWorker(t *testing.T) {
	assert := assert.New(t)

	transport := newFakeTransport(1000)
	transport.gate = make(chan struct{})
	stats := &statsd.TestStatsClient{}
	r := NewRemoteReporter(transport, RemoteReporterConfig{
		QueueSize:     10,
		FlushInterval: time.Hour,
		CloseTimeout:  50 * time.Millisecond,
		ReportTimeout: time.Millisecond,
	}, stats)

	// The worker hangs on the wire with more spans queued behind it. The
	// close sentinel fits in the queue, but draining never finishes within
	// the close timeout.
	for i := 0; i < 3; i++ {
		r.Report(testSpan(fmt.Sprintf("op-%d", i)))
	}

	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the close timeout")
	}

	// Once the wire unblocks, the forced exit must account for every span:
	// delivered or counted dropped, with the transport closed.
	close(transport.gate)
	deadline := time.Now().Add(time.Second)
	for transport.closeCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(1, transport.closeCount())
	total := int64(len(transport.sentSpans())) + stats.CountSum("datadog.trace_client.reporter.spans.dropped")
	assert.EqualValues(3, total)
}

func TestRemoteReporterForcedExit(t *testing.T) {
	assert := assert.New(t)

	transport := newFakeTransport(1000)
	transport.gate = make(chan struct{})
	stats := &statsd.TestStatsClient{}
	r := NewRemoteReporter(transport, RemoteReporterConfig{
		QueueSize:     2,
		FlushInterval: time.Hour,
		CloseTimeout:  50 * time.Millisecond,
		ReportTimeout: time.Millisecond,
	}, stats)

	// Jam the worker on the wire and fill the queue so the close sentinel
	// cannot be enqueued in time.
	for i := 0; i < 5; i++ {
		r.Report(testSpan(fmt.Sprintf("op-%d", i)))
	}

	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the close timeout")
	}

	// Unblock the worker so it can observe the forced exit.
	close(transport.gate)
	time.Sleep(10 * time.Millisecond)
	assert.NotZero(stats.CountSum("datadog.trace_client.reporter.spans.dropped"))
}
