package reporter

import (
	"sync"
	"sync/atomic"
	"time"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-trace-client/model"
	"github.com/DataDog/datadog-trace-client/statsd"
	"github.com/DataDog/datadog-trace-client/watchdog"
)

// Default RemoteReporter tuning. The queue absorbs production bursts while
// the worker is on the wire; the flush interval caps how stale a buffered
// span can get on low-traffic services.
const (
	DefaultQueueSize     = 100
	DefaultFlushInterval = time.Second
	DefaultCloseTimeout  = 2 * time.Second
	DefaultReportTimeout = 100 * time.Millisecond
)

// Metric names of the reporter pipeline.
const (
	statSpansSubmitted  = "datadog.trace_client.reporter.spans.submitted"
	statSpansDropped    = "datadog.trace_client.reporter.spans.dropped"
	statSpansSent       = "datadog.trace_client.reporter.spans.sent"
	statTransportFailed = "datadog.trace_client.reporter.spans.transport_failed"
	statBatchesFailed   = "datadog.trace_client.reporter.batches.failed"
	statFlushDuration   = "datadog.trace_client.reporter.flush_duration"
)

// RemoteReporterConfig tunes the queue and timing of a RemoteReporter.
// Zero values select the defaults above.
type RemoteReporterConfig struct {
	// QueueSize is the capacity of the span queue.
	QueueSize int
	// FlushInterval is the maximum time between two transport flushes.
	FlushInterval time.Duration
	// CloseTimeout bounds how long Close waits for the worker to drain.
	CloseTimeout time.Duration
	// ReportTimeout bounds how long Report waits on a full queue before
	// dropping the span.
	ReportTimeout time.Duration
}

func (c RemoteReporterConfig) withDefaults() RemoteReporterConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = DefaultCloseTimeout
	}
	if c.ReportTimeout <= 0 {
		c.ReportTimeout = DefaultReportTimeout
	}
	return c
}

type commandType int

const (
	spanCommand commandType = iota
	flushCommand
	closeCommand
)

// command is the unit consumed by the worker. Close is a terminal sentinel
// in the queue, not a side channel, so everything enqueued before it is
// handled first.
type command struct {
	typ  commandType
	span *model.Span
}

// RemoteReporter enqueues finished spans on a bounded queue drained by a
// single worker goroutine into a Transport. Producers wait at most the
// report timeout on a full queue; past that the span is dropped and
// counted.
type RemoteReporter struct {
	transport   Transport
	conf        RemoteReporterConfig
	statsClient statsd.StatsClient

	queue     chan command
	closed    int32
	closeOnce sync.Once
	forceExit chan struct{}
	exitWG    sync.WaitGroup
}

// NewRemoteReporter starts a reporter shipping spans through the given
// transport. A nil statsClient falls back to the global statsd client.
func NewRemoteReporter(transport Transport, conf RemoteReporterConfig, statsClient statsd.StatsClient) *RemoteReporter {
	if statsClient == nil {
		statsClient = statsd.Client
	}
	conf = conf.withDefaults()
	r := &RemoteReporter{
		transport:   transport,
		conf:        conf,
		statsClient: statsClient,
		queue:       make(chan command, conf.QueueSize),
		forceExit:   make(chan struct{}),
	}

	r.exitWG.Add(1)
	go func() {
		defer watchdog.LogOnPanic()
		r.run()
	}()

	return r
}

// Report implements Reporter. It never blocks on I/O: a full queue makes
// Report wait briefly for the worker to catch up, and the span is dropped
// and counted only when that wait expires or the reporter is closed.
func (r *RemoteReporter) Report(span *model.Span) {
	if atomic.LoadInt32(&r.closed) != 0 {
		r.statsClient.Count(statSpansDropped, 1, nil, 1)
		return
	}
	cmd := command{typ: spanCommand, span: span}
	select {
	case r.queue <- cmd:
		r.statsClient.Count(statSpansSubmitted, 1, nil, 1)
		return
	default:
	}

	// The queue is momentarily full. A healthy worker frees a slot well
	// within the report timeout; only a worker stuck on the wire makes the
	// span drop.
	t := time.NewTimer(r.conf.ReportTimeout)
	defer t.Stop()
	select {
	case r.queue <- cmd:
		r.statsClient.Count(statSpansSubmitted, 1, nil, 1)
	case <-t.C:
		log.Debugf("reporter queue full, dropping span of operation %s", span.Operation)
		r.statsClient.Count(statSpansDropped, 1, nil, 1)
	}
}

// Flush asks the worker to flush the transport buffer out of cycle. It
// never waits; a full queue means a flush is not needed anyway since the
// worker is busy draining.
func (r *RemoteReporter) Flush() {
	if atomic.LoadInt32(&r.closed) != 0 {
		return
	}
	select {
	case r.queue <- command{typ: flushCommand}:
	default:
	}
}

// Close implements Reporter. Spans enqueued before Close began are drained
// to the transport; if draining takes longer than the close timeout the
// worker is forced out and whatever is left is counted as dropped.
func (r *RemoteReporter) Close() {
	r.closeOnce.Do(func() {
		atomic.StoreInt32(&r.closed, 1)

		// No producer can enqueue anymore, so the sentinel eventually fits
		// unless the worker itself is stuck on the wire.
		forced := false
		select {
		case r.queue <- command{typ: closeCommand}:
		case <-time.After(r.conf.CloseTimeout):
			log.Errorf("reporter queue jammed for %s, forcing worker exit", r.conf.CloseTimeout)
			close(r.forceExit)
			forced = true
		}

		done := make(chan struct{})
		go func() {
			r.exitWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(r.conf.CloseTimeout):
			log.Errorf("reporter worker did not exit within %s", r.conf.CloseTimeout)
			// The sentinel went in but draining never finished: tell the
			// worker to give up so the leftovers get counted as dropped.
			if !forced {
				close(r.forceExit)
			}
		}
	})
}

// run is the worker main loop: one goroutine owns the transport and
// consumes commands in FIFO order, flushing on the configured interval.
func (r *RemoteReporter) run() {
	defer r.exitWG.Done()

	t := time.NewTicker(r.conf.FlushInterval)
	defer t.Stop()

	for {
		select {
		case cmd := <-r.queue:
			switch cmd.typ {
			case spanCommand:
				r.append(cmd.span)
			case flushCommand:
				r.flush()
			case closeCommand:
				r.drainAndExit()
				return
			}
		case <-t.C:
			r.flush()
		case <-r.forceExit:
			r.dropRemaining()
			r.flush()
			r.closeTransport()
			return
		}
	}
}

func (r *RemoteReporter) append(span *model.Span) {
	sent, err := r.transport.Append(span)
	if err != nil {
		log.Errorf("transport failed to accept span: %v", err)
		r.statsClient.Count(statTransportFailed, 1, nil, 1)
		return
	}
	if sent > 0 {
		r.statsClient.Count(statSpansSent, int64(sent), nil, 1)
	}
}

func (r *RemoteReporter) flush() {
	start := time.Now()
	sent, err := r.transport.Flush()
	if err != nil {
		log.Errorf("failed to flush span batch: %v", err)
		r.statsClient.Count(statBatchesFailed, 1, nil, 1)
		return
	}
	if sent > 0 {
		r.statsClient.Gauge(statFlushDuration, time.Since(start).Seconds(), nil, 1)
		r.statsClient.Count(statSpansSent, int64(sent), nil, 1)
	}
}

// drainAndExit handles the close sentinel: whatever was enqueued before it
// is appended, then the transport is flushed and closed.
func (r *RemoteReporter) drainAndExit() {
	for {
		select {
		case cmd := <-r.queue:
			switch cmd.typ {
			case spanCommand:
				r.append(cmd.span)
			case flushCommand:
				r.flush()
			}
		default:
			r.flush()
			r.closeTransport()
			return
		}
	}
}

// dropRemaining counts everything still queued as dropped. Only reached on
// forced exit, when draining normally is no longer an option.
func (r *RemoteReporter) dropRemaining() {
	dropped := 0
	for {
		select {
		case cmd := <-r.queue:
			if cmd.typ == spanCommand {
				dropped++
			}
		default:
			if dropped > 0 {
				log.Errorf("dropping %d spans still queued at forced exit", dropped)
				r.statsClient.Count(statSpansDropped, int64(dropped), nil, 1)
			}
			return
		}
	}
}

func (r *RemoteReporter) closeTransport() {
	if err := r.transport.Close(); err != nil {
		log.Errorf("failed to close transport: %v", err)
	}
}
