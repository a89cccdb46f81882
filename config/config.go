// Package config reads the client configuration from a flat ini file and
// assembles the sampling and reporting pipeline from it.
package config

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-trace-client/reporter"
	"github.com/DataDog/datadog-trace-client/sampler"
	"github.com/DataDog/datadog-trace-client/statsd"
	"github.com/DataDog/datadog-trace-client/transport"
)

// ClientConfig holds everything needed to build a tracer: the identity of
// the service, the sampling strategy and the reporting pipeline tuning.
type ClientConfig struct {
	ServiceName string

	// AgentAddr is the "host:port" the UDP transport ships batches to.
	AgentAddr string
	// StatsdAddr is the "host:port" of the dogstatsd endpoint; empty
	// leaves the global statsd client untouched.
	StatsdAddr string
	// LogLevel is the seelog minimum level ("debug", "info", ...).
	LogLevel string

	// SamplerType is one of "const", "probabilistic", "ratelimiting" or
	// "remote".
	SamplerType string
	// SamplerParam is the decision (0/1), rate or limit of the sampler.
	SamplerParam float64
	// SamplingServerURL is the strategy endpoint polled by the remote
	// sampler.
	SamplingServerURL string
	// SamplingPollInterval is how often the remote sampler refreshes.
	SamplingPollInterval time.Duration
	// MaxOperations bounds the adaptive sampler's per-operation map.
	MaxOperations int

	// QueueSize, FlushInterval and MaxBatchSpans tune the remote reporter
	// and its transport.
	QueueSize     int
	FlushInterval time.Duration
	MaxBatchSpans int
}

// DefaultClientConfig returns the configuration used when no ini file is
// provided: remote-controlled sampling against the local agent.
func DefaultClientConfig(serviceName string) *ClientConfig {
	return &ClientConfig{
		ServiceName:          serviceName,
		AgentAddr:            transport.DefaultAgentAddr,
		LogLevel:             "info",
		SamplerType:          "remote",
		SamplerParam:         0.001,
		SamplingServerURL:    "http://localhost:5778/sampling",
		SamplingPollInterval: sampler.DefaultPollInterval,
		MaxOperations:        sampler.DefaultMaxOperations,
		QueueSize:            reporter.DefaultQueueSize,
		FlushInterval:        reporter.DefaultFlushInterval,
		MaxBatchSpans:        transport.DefaultMaxBatchSpans,
	}
}

// NewClientConfig loads the [trace.client] and [trace.sampler] sections of
// the ini file at configPath on top of the defaults.
func NewClientConfig(configPath string) (*ClientConfig, error) {
	file, err := NewIni(configPath)
	if err != nil {
		return nil, err
	}
	return newClientConfigFromFile(file)
}

func newClientConfigFromFile(file *File) (*ClientConfig, error) {
	serviceName, err := file.Get("trace.client", "service_name")
	if err != nil {
		return nil, err
	}
	c := DefaultClientConfig(serviceName)

	c.AgentAddr = file.GetDefault("trace.client", "agent_addr", c.AgentAddr)
	c.StatsdAddr = file.GetDefault("trace.client", "statsd_addr", c.StatsdAddr)
	c.LogLevel = file.GetDefault("trace.client", "log_level", c.LogLevel)
	c.QueueSize = file.GetInt("trace.client", "queue_size", c.QueueSize)
	c.FlushInterval = file.GetDuration("trace.client", "flush_interval", c.FlushInterval)
	c.MaxBatchSpans = file.GetInt("trace.client", "max_batch_spans", c.MaxBatchSpans)

	c.SamplerType = file.GetDefault("trace.sampler", "type", c.SamplerType)
	c.SamplerParam = file.GetFloat("trace.sampler", "param", c.SamplerParam)
	c.SamplingServerURL = file.GetDefault("trace.sampler", "sampling_server_url", c.SamplingServerURL)
	c.SamplingPollInterval = file.GetDuration("trace.sampler", "poll_interval", c.SamplingPollInterval)
	c.MaxOperations = file.GetInt("trace.sampler", "max_operations", c.MaxOperations)

	return c, nil
}

// Configure applies the process-wide parts of the configuration: the log
// level and, when an address is set, the global dogstatsd client.
func (c *ClientConfig) Configure() error {
	if err := NewLoggerLevel(c.LogLevel); err != nil {
		return err
	}
	if c.StatsdAddr != "" {
		return statsd.Configure(c.StatsdAddr)
	}
	return nil
}

// NewSampler builds the sampler described by the configuration.
func (c *ClientConfig) NewSampler(statsClient statsd.StatsClient) (sampler.Sampler, error) {
	switch c.SamplerType {
	case "const":
		return sampler.NewConstSampler(c.SamplerParam != 0), nil
	case "probabilistic":
		return sampler.NewProbabilisticSampler(c.SamplerParam), nil
	case "ratelimiting":
		return sampler.NewRateLimitingSampler(c.SamplerParam), nil
	case "remote", "":
		initial := sampler.NewProbabilisticSampler(c.SamplerParam)
		fetcher := sampler.NewHTTPStrategyFetcher(c.SamplingServerURL)
		return sampler.NewRemotelyControlledSampler(
			c.ServiceName, initial, fetcher, c.SamplingPollInterval, c.MaxOperations, statsClient), nil
	default:
		return nil, fmt.Errorf("unknown sampler type %q", c.SamplerType)
	}
}

// NewReporter builds the remote reporter and its UDP transport.
func (c *ClientConfig) NewReporter(statsClient statsd.StatsClient) (reporter.Reporter, error) {
	sender, err := transport.NewUDPSender(c.AgentAddr)
	if err != nil {
		return nil, err
	}
	udp := transport.NewUDPTransport(c.ServiceName, sender, c.MaxBatchSpans)
	conf := reporter.RemoteReporterConfig{
		QueueSize:     c.QueueSize,
		FlushInterval: c.FlushInterval,
	}
	return reporter.NewRemoteReporter(udp, conf, statsClient), nil
}
