package statsd

import (
	"sync"
)

// StatsClientGaugeArgs represents arguments to a StatsClient Gauge method call.
type StatsClientGaugeArgs struct {
	Name  string
	Value float64
	Tags  []string
	Rate  float64
}

// StatsClientCountArgs represents arguments to a StatsClient Count method call.
type StatsClientCountArgs struct {
	Name  string
	Value int64
	Tags  []string
	Rate  float64
}

// CountSummary contains a summary of all Count method calls to a
// particular TestStatsClient for a particular key.
type CountSummary struct {
	Calls []StatsClientCountArgs
	Sum   int64
}

// TestStatsClient is a mocked StatsClient that records all calls and
// replies with configurable error return values.
type TestStatsClient struct {
	mu sync.Mutex

	GaugeErr   error
	GaugeCalls []StatsClientGaugeArgs
	CountErr   error
	CountCalls []StatsClientCountArgs
}

// Gauge records a call to a Gauge operation and replies with GaugeErr.
func (c *TestStatsClient) Gauge(name string, value float64, tags []string, rate float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GaugeCalls = append(c.GaugeCalls, StatsClientGaugeArgs{Name: name, Value: value, Tags: tags, Rate: rate})
	return c.GaugeErr
}

// Count records a call to a Count operation and replies with CountErr.
func (c *TestStatsClient) Count(name string, value int64, tags []string, rate float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CountCalls = append(c.CountCalls, StatsClientCountArgs{Name: name, Value: value, Tags: tags, Rate: rate})
	return c.CountErr
}

// Histogram records nothing: the client core only gauges and counts.
func (c *TestStatsClient) Histogram(name string, value float64, tags []string, rate float64) error {
	return nil
}

// CountSum returns the sum of all Count calls recorded for name.
func (c *TestStatsClient) CountSum(name string) int64 {
	if summary, ok := c.GetCountSummaries()[name]; ok {
		return summary.Sum
	}
	return 0
}

// GetCountSummaries computes summaries for all names supplied as
// parameters to Count calls.
func (c *TestStatsClient) GetCountSummaries() map[string]*CountSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := map[string]*CountSummary{}
	for _, countCall := range c.CountCalls {
		summary, ok := result[countCall.Name]
		if !ok {
			summary = &CountSummary{}
			result[countCall.Name] = summary
		}
		summary.Calls = append(summary.Calls, countCall)
		summary.Sum += countCall.Value
	}
	return result
}
