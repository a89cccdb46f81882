// Package transport ships span batches to the agent over UDP datagrams,
// encoded as msgpack. Serialization and socket I/O live here so the
// reporter package only ever sees the Transport interface.
package transport

import (
	"bytes"
	"fmt"
	"net"

	"github.com/ugorji/go/codec"

	"github.com/DataDog/datadog-trace-client/model"
)

const (
	// DefaultAgentAddr is where the agent listens for span batches.
	DefaultAgentAddr = "localhost:8126"

	// DefaultMaxBatchSpans is the number of buffered spans that triggers
	// an automatic flush on Append.
	DefaultMaxBatchSpans = 100

	// maxPacketSize is the largest datagram we are willing to emit. A
	// batch encoding over this limit is dropped rather than truncated.
	maxPacketSize = 65000
)

// PacketSender ships one serialized batch as a single datagram.
type PacketSender interface {
	Send(data []byte) error
	Close() error
}

// udpSender is the production PacketSender, one UDP socket to the agent.
type udpSender struct {
	conn net.Conn
}

// NewUDPSender opens a UDP socket towards addr ("host:port").
func NewUDPSender(addr string) (PacketSender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot dial agent at %s: %v", addr, err)
	}
	return &udpSender{conn: conn}, nil
}

func (s *udpSender) Send(data []byte) error {
	_, err := s.conn.Write(data)
	return err
}

func (s *udpSender) Close() error {
	return s.conn.Close()
}

// Batch is the wire unit: all the spans of one flush for one service.
type Batch struct {
	Service string        `codec:"service" json:"service"`
	Spans   []*model.Span `codec:"spans" json:"spans"`
}

// UDPTransport buffers spans and emits one msgpack-encoded datagram per
// batch. It is confined to the reporter worker goroutine and holds no
// locks.
type UDPTransport struct {
	service       string
	sender        PacketSender
	maxBatchSpans int

	spans   []*model.Span
	buf     *bytes.Buffer
	encoder *codec.Encoder
	closed  bool
}

// NewUDPTransport returns a transport batching up to maxBatchSpans spans
// for the given service. maxBatchSpans <= 0 selects the default.
func NewUDPTransport(service string, sender PacketSender, maxBatchSpans int) *UDPTransport {
	if maxBatchSpans <= 0 {
		maxBatchSpans = DefaultMaxBatchSpans
	}
	buf := &bytes.Buffer{}
	return &UDPTransport{
		service:       service,
		sender:        sender,
		maxBatchSpans: maxBatchSpans,
		spans:         make([]*model.Span, 0, maxBatchSpans),
		buf:           buf,
		encoder:       codec.NewEncoder(buf, &codec.MsgpackHandle{}),
	}
}

// Append implements reporter.Transport.
func (t *UDPTransport) Append(span *model.Span) (int, error) {
	if t.closed {
		return 0, fmt.Errorf("transport is closed")
	}
	t.spans = append(t.spans, span)
	if len(t.spans) >= t.maxBatchSpans {
		return t.Flush()
	}
	return 0, nil
}

// Flush implements reporter.Transport. The batch is dropped whether the
// send succeeds or not: the client never retries spans.
func (t *UDPTransport) Flush() (int, error) {
	if t.closed {
		return 0, fmt.Errorf("transport is closed")
	}
	count := len(t.spans)
	if count == 0 {
		return 0, nil
	}

	batch := Batch{Service: t.service, Spans: t.spans}
	t.spans = t.spans[:0]

	t.buf.Reset()
	t.encoder.Reset(t.buf)
	if err := t.encoder.Encode(&batch); err != nil {
		return 0, fmt.Errorf("failed to encode batch of %d spans: %v", count, err)
	}
	if t.buf.Len() > maxPacketSize {
		return 0, fmt.Errorf("batch of %d spans encodes to %d bytes, over the %d datagram limit",
			count, t.buf.Len(), maxPacketSize)
	}
	if err := t.sender.Send(t.buf.Bytes()); err != nil {
		return 0, fmt.Errorf("failed to send batch of %d spans: %v", count, err)
	}
	return count, nil
}

// Close implements reporter.Transport. Idempotent; buffered spans are not
// flushed, callers flush first.
func (t *UDPTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.sender.Close()
}
