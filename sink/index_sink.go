package sink

import (
	"context"
	"log/slog"

	"chat-core/domain"
	"chat-core/domain/event"
)

// Indexer is the write side of the search index.
type Indexer interface {
	Add(message domain.Message) error
}

// IndexSink feeds broadcast messages into the full-text index.
// Indexing failures are logged, never propagated.
type IndexSink struct {
	index Indexer
	log   *slog.Logger
}

func NewIndexSink(index Indexer, log *slog.Logger) *IndexSink {
	return &IndexSink{index: index, log: log}
}

func (s *IndexSink) Consume(ctx context.Context, env event.Envelope) error {
	posted, ok := env.Event.(event.MessagePosted)
	if !ok || posted.Message.IsSystem() {
		return nil
	}
	if err := s.index.Add(posted.Message); err != nil {
		s.log.Error("Index failure", "message_id", posted.Message.ID, "error", err)
	}
	return nil
}
