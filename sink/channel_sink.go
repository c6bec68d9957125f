// Package sink provides the EventSink implementations the fan-out
// delivers into: per-connection channels, durable storage, and the
// search index.
package sink

import (
	"context"

	"chat-core/domain/event"
)

// ChannelSink bridges the fan-out to one connection's write loop.
// Consume is called by the router; the transport drains Events and
// pushes them onto the wire.
type ChannelSink struct {
	Events chan event.Envelope
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{Events: make(chan event.Envelope, bufferSize)}
}

// Consume hands the envelope to the connection's channel. The router's
// delivery context bounds the wait, so one slow consumer cannot stall
// the broadcast to everyone else.
func (s *ChannelSink) Consume(ctx context.Context, env event.Envelope) error {
	select {
	case s.Events <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
