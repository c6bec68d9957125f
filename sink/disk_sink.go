package sink

import (
	"context"
	"log/slog"

	"chat-core/contract"
	"chat-core/domain/event"
)

// DiskSink persists broadcast messages into the history store.
// Persistence is best-effort: a failed append is logged and never
// surfaces to the fan-out, so live delivery is never blocked on disk.
type DiskSink struct {
	history contract.HistoryProvider
	log     *slog.Logger
}

func NewDiskSink(history contract.HistoryProvider, log *slog.Logger) *DiskSink {
	return &DiskSink{history: history, log: log}
}

func (s *DiskSink) Consume(ctx context.Context, env event.Envelope) error {
	posted, ok := env.Event.(event.MessagePosted)
	if !ok {
		return nil
	}
	// System notices are broadcast-only, never part of history.
	if posted.Message.IsSystem() {
		return nil
	}
	if err := s.history.Append(posted.Message); err != nil {
		s.log.Error("Persistence failure",
			"message_id", posted.Message.ID,
			"author", posted.Message.Username,
			"error", err)
	}
	return nil
}
