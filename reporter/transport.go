package reporter

import (
	"github.com/DataDog/datadog-trace-client/model"
)

// Transport accumulates spans into batches and ships them to the agent.
// The RemoteReporter guarantees that all calls happen on its worker
// goroutine, so implementations need not be safe for concurrent use.
type Transport interface {
	// Append buffers a span and returns the number of spans just sent: 0
	// while the batch is accumulating, more when the buffer threshold
	// triggered an automatic flush.
	Append(span *model.Span) (int, error)

	// Flush sends the current buffer and returns the number of spans sent.
	Flush() (int, error)

	// Close releases the resources of the transport. Idempotent.
	Close() error
}
