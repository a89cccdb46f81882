package statsd

import (
	"github.com/DataDog/datadog-go/statsd"
)

// StatsClient represents a client capable of sending stats to some stat endpoint.
type StatsClient interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
}

// Client is a global Statsd client. When a client is configured via
// Configure, that becomes the new global Statsd client in the package.
// The zero value is safe to call: a nil dogstatsd client drops everything.
var Client StatsClient = (*statsd.Client)(nil)

// Configure creates a statsd client for the given address ("host:port")
// and sets it as the global client of the package.
func Configure(addr string) error {
	client, err := statsd.New(addr)
	if err != nil {
		return err
	}

	Client = client
	return nil
}
