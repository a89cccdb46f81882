package model

import (
	"fmt"
	"math/rand"
	"time"
)

// TraceID is a 128-bit trace identifier split in two 64-bit halves.
// The low half is the input of probabilistic sampling decisions.
type TraceID struct {
	High uint64 `codec:"trace_id_high" json:"trace_id_high"`
	Low  uint64 `codec:"trace_id_low" json:"trace_id_low"`
}

// IsValid tells if the trace ID carries an actual identifier.
func (t TraceID) IsValid() bool {
	return t.High != 0 || t.Low != 0
}

func (t TraceID) String() string {
	if t.High == 0 {
		return fmt.Sprintf("%x", t.Low)
	}
	return fmt.Sprintf("%x%016x", t.High, t.Low)
}

// RandomID generates a random uint64 that we use for IDs
func RandomID() uint64 {
	return uint64(rand.Int63())
}

// Span is the record of one unit of work as handed to a reporter.
// It is immutable from that point on: reporters and transports may
// read it from their own goroutines but never modify it.
type Span struct {
	TraceID   TraceID       `codec:"trace_id" json:"trace_id"`
	SpanID    uint64        `codec:"span_id" json:"span_id"`
	ParentID  uint64        `codec:"parent_id" json:"parent_id"`
	Service   string        `codec:"service" json:"service"`
	Operation string        `codec:"operation" json:"operation"`
	Start     time.Time     `codec:"start" json:"start"`
	Duration  time.Duration `codec:"duration" json:"duration"`
	Tags      []Tag         `codec:"tags" json:"tags"`
}

// End returns the end time of the span.
func (s *Span) End() time.Time {
	return s.Start.Add(s.Duration)
}
