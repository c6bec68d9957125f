// Package projection builds local read models from delivered events.
// It never emits events back into the pipeline.
package projection

import (
	"context"
	"sync"

	"chat-core/domain"
	"chat-core/domain/event"
)

// Timeline accumulates the messages a single recipient has observed,
// in delivery order. It doubles as an EventSink, so it can be attached
// wherever a connection sink could.
type Timeline struct {
	mu       sync.Mutex
	messages []domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Consume(ctx context.Context, env event.Envelope) error {
	posted, ok := env.Event.(event.MessagePosted)
	if !ok {
		return nil
	}
	t.mu.Lock()
	t.messages = append(t.messages, posted.Message)
	t.mu.Unlock()
	return nil
}

// Messages returns a copy of the observed timeline.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}
