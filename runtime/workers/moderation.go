package workers

import (
	"context"
	"log/slog"

	"chat-core/domain/event"
	"chat-core/moderation"

	"github.com/abadojack/whatlanggo"
)

// ModerationWorker is the first pipeline stage. It censors message
// content and forwards every other envelope untouched. It is a single
// goroutine between two FIFO channels, so it never reorders events.
type ModerationWorker struct {
	moderator *moderation.Moderator
	in        chan event.Envelope
	out       chan event.Envelope
	log       *slog.Logger
}

func NewModerationWorker(moderator *moderation.Moderator,
	in, out chan event.Envelope, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{moderator: moderator, in: in, out: out, log: log}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case env, ok := <-w.in:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.out <- w.moderate(env):
			}
		}
	}
}

func (w *ModerationWorker) moderate(env event.Envelope) event.Envelope {
	posted, ok := env.Event.(event.MessagePosted)
	if !ok || w.moderator == nil {
		return env
	}

	censored, hits := w.moderator.Censor(posted.Message.Content)
	if len(hits) == 0 {
		return env
	}

	info := whatlanggo.Detect(posted.Message.Content)
	w.log.Warn("Censored message content",
		"author", posted.Message.Username,
		"lang", info.Lang.Iso6391(),
		"hits", len(hits))

	posted.Message.Content = censored
	env.Event = posted
	return env
}
