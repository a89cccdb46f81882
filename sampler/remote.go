package sampler

import (
	"sync"
	"time"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-trace-client/model"
	"github.com/DataDog/datadog-trace-client/statsd"
	"github.com/DataDog/datadog-trace-client/watchdog"
)

// DefaultPollInterval is how often the remotely controlled sampler asks
// the control plane for fresh strategies when no interval is configured.
const DefaultPollInterval = time.Minute

// RemotelyControlledSampler delegates every decision to a sampler that is
// periodically rebuilt from the strategies served for the service. The
// delegate swap is atomic with respect to in-flight decisions: a Sample
// call observes either the old or the new delegate, never a mix.
type RemotelyControlledSampler struct {
	serviceName   string
	pollInterval  time.Duration
	maxOperations int
	fetcher       StrategyFetcher
	statsClient   statsd.StatsClient

	mu      sync.RWMutex
	sampler Sampler
	closed  bool

	exit   chan struct{}
	exitWG sync.WaitGroup
}

// NewRemotelyControlledSampler returns a sampler starting with initial as
// its delegate and refreshing it every pollInterval from the fetcher. A
// nil initial delegate starts probabilistic at rate 0.001, the usual
// conservative default until the first refresh lands.
func NewRemotelyControlledSampler(
	serviceName string,
	initial Sampler,
	fetcher StrategyFetcher,
	pollInterval time.Duration,
	maxOperations int,
	statsClient statsd.StatsClient,
) *RemotelyControlledSampler {
	if initial == nil {
		initial = NewProbabilisticSampler(0.001)
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxOperations <= 0 {
		maxOperations = DefaultMaxOperations
	}
	if statsClient == nil {
		statsClient = statsd.Client
	}
	s := &RemotelyControlledSampler{
		serviceName:   serviceName,
		pollInterval:  pollInterval,
		maxOperations: maxOperations,
		fetcher:       fetcher,
		statsClient:   statsClient,
		sampler:       initial,
		exit:          make(chan struct{}),
	}

	s.exitWG.Add(1)
	go func() {
		defer watchdog.LogOnPanic()
		s.run()
	}()

	return s
}

// Sample implements Sampler. After Close it returns a not-sampled status
// without consulting any delegate: the client must keep degrading quietly
// rather than fail the host.
func (s *RemotelyControlledSampler) Sample(id model.TraceID, operation string) SamplingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return SamplingStatus{}
	}
	return s.sampler.Sample(id, operation)
}

// Sampler returns the currently active delegate.
func (s *RemotelyControlledSampler) Sampler() Sampler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sampler
}

// Close stops the refresher, waits for it to exit and closes the current
// delegate. It is idempotent.
func (s *RemotelyControlledSampler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.exit)
	s.exitWG.Wait()

	s.mu.RLock()
	delegate := s.sampler
	s.mu.RUnlock()
	delegate.Close()
}

// run is the refresher main loop.
func (s *RemotelyControlledSampler) run() {
	defer s.exitWG.Done()

	t := time.NewTicker(s.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.refresh()
		case <-s.exit:
			return
		}
	}
}

// refresh fetches the strategies for the service and applies them. On any
// fetch failure the current delegate stays and we retry next cycle.
func (s *RemotelyControlledSampler) refresh() {
	strategies, err := s.fetcher.Fetch(s.serviceName)
	if err != nil {
		log.Errorf("failed to fetch sampling strategies for service %s: %v", s.serviceName, err)
		s.statsClient.Count("datadog.trace_client.sampler.fetch_errors", 1, nil, 1)
		return
	}

	select {
	case <-s.exit:
		// Closed while the fetch was in flight, discard the result.
		return
	default:
	}

	s.applyStrategies(strategies)
	s.statsClient.Count("datadog.trace_client.sampler.updates", 1, nil, 1)
}

func (s *RemotelyControlledSampler) applyStrategies(strategies *StrategyResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strategies.OperationSampling != nil:
		if adaptive, ok := s.sampler.(*AdaptiveSampler); ok {
			adaptive.Update(strategies.OperationSampling)
		} else {
			s.sampler = NewAdaptiveSampler(strategies.OperationSampling, s.maxOperations)
		}
	case strategies.Probabilistic != nil:
		rate := strategies.Probabilistic.SamplingRate
		if probabilistic, ok := s.sampler.(*ProbabilisticSampler); !ok || probabilistic.SamplingRate() != rate {
			s.sampler = NewProbabilisticSampler(rate)
		}
	case strategies.RateLimiting != nil:
		limit := strategies.RateLimiting.MaxTracesPerSecond
		if limiting, ok := s.sampler.(*RateLimitingSampler); !ok || limiting.MaxTracesPerSecond() != limit {
			s.sampler = NewRateLimitingSampler(limit)
		}
	default:
		log.Debugf("empty sampling strategy response for service %s, keeping current sampler", s.serviceName)
	}
}
