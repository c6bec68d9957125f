package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-core/contract"
	"chat-core/domain/event"
)

// Compile-time assertion that the fanout satisfies the Worker contract.
var _ contract.Worker = (*EventFanout)(nil)

// EventFanout is the broadcast router: the single goroutine that drains
// the ordered pipeline and delivers each envelope to its audience.
//
// Deliveries are sequential per envelope, so global send order is
// preserved for every recipient. A recipient that cannot accept within
// the sink timeout loses that delivery (logged, isolated); the fan-out
// to the remaining recipients is never aborted.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.Registry
	permanentSinks []contract.EventSink
	in             chan event.Envelope
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.Registry,
	permanentSinks []contract.EventSink, in chan event.Envelope,
	sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		permanentSinks: permanentSinks,
		in:             in,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return ctx.Err()
		case env, ok := <-w.in:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.Fanout(ctx, env)
		}
	}
}

// Fanout delivers one envelope: first to the permanent sinks
// (persistence, index, projections), then to every registered
// connection matching the audience selector.
func (w *EventFanout) Fanout(ctx context.Context, env event.Envelope) {
	for _, sink := range w.permanentSinks {
		w.deliver(ctx, sink, env)
	}

	if env.Audience == event.SenderOnly {
		if env.Reply != nil {
			w.deliver(ctx, env.Reply, env)
		}
		return
	}

	for _, member := range w.registry.Snapshot() {
		if env.Audience == event.AllExcept && member.Session.ConnID == env.Sender {
			continue
		}
		w.deliver(ctx, member.Sink, env)
	}
}

// deliver pushes the envelope into one sink with a bounded wait.
// Failures are per-recipient: logged and swallowed.
func (w *EventFanout) deliver(ctx context.Context, sink event.Consumer, env event.Envelope) {
	deliveryCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()

	if err := sink.Consume(deliveryCtx, env); err != nil {
		w.log.Warn("Delivery failure",
			"event", env.Event.EventName(),
			"audience", env.Audience.String(),
			"error", err)
	}
}
