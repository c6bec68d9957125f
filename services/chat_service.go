// Package services implements the application operations on top of the
// registry, the ordered dispatcher and the stores.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chat-core/contract"
	"chat-core/domain"
	"chat-core/domain/event"
	apperrors "chat-core/errors"
	"chat-core/validation"

	"github.com/google/uuid"
)

// JoinCommand carries everything needed to admit a connection.
type JoinCommand struct {
	ConnID   domain.ConnectionID
	Username string
	Sink     contract.EventSink
}

// PostMessageCommand carries one sendMessage request.
type PostMessageCommand struct {
	ConnID     domain.ConnectionID
	Content    string
	Attachment *domain.Attachment
	IsStamp    bool
	Reply      contract.EventSink
}

// SearchCommand carries one full-text query.
type SearchCommand struct {
	ConnID domain.ConnectionID
	Query  string
	Reply  contract.EventSink
}

type IChatService interface {
	Join(ctx context.Context, cmd JoinCommand) (domain.Session, error)
	PostMessage(ctx context.Context, cmd PostMessageCommand) error
	Disconnect(ctx context.Context, connID domain.ConnectionID) error
	SearchMessages(ctx context.Context, cmd SearchCommand) error
}

// ChatService wires validation, the session registry and the broadcast
// pipeline together. All events flow through the dispatcher, so the
// order in which operations are accepted here is the order every
// recipient observes.
type ChatService struct {
	log          *slog.Logger
	registry     contract.Registry
	dispatcher   contract.Dispatcher
	history      contract.HistoryProvider
	searcher     contract.Searcher
	historyLimit int
	searchLimit  int
}

func NewChatService(
	log *slog.Logger,
	registry contract.Registry,
	dispatcher contract.Dispatcher,
	history contract.HistoryProvider,
	searcher contract.Searcher,
	historyLimit int,
	searchLimit int,
) *ChatService {
	return &ChatService{
		log:          log,
		registry:     registry,
		dispatcher:   dispatcher,
		history:      history,
		searcher:     searcher,
		historyLimit: historyLimit,
		searchLimit:  searchLimit,
	}
}

// Join validates the username, registers the session and announces it.
// The joiner receives recent history before anyone hears about them;
// the presence events ride the same pipeline, so everybody observes
// join, then count, in that order.
func (s *ChatService) Join(ctx context.Context, cmd JoinCommand) (domain.Session, error) {
	if err := validation.ValidateUsername(cmd.Username); err != nil {
		s.notifyError(ctx, cmd.Sink, "invalid username")
		return domain.Session{}, err
	}
	username := validation.Sanitize(strings.TrimSpace(cmd.Username))

	session, err := s.registry.Register(cmd.ConnID, username, cmd.Sink)
	if err != nil {
		s.notifyError(ctx, cmd.Sink, "already joined")
		return domain.Session{}, err
	}

	messages, err := s.history.FetchRecent(s.historyLimit)
	if err != nil {
		// History is best-effort: the joiner still gets in.
		s.log.Warn("History fetch failed", "username", username, "error", err)
		messages = nil
	}

	if err := s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.MessageHistory{Messages: messages},
		Audience: event.SenderOnly,
		Sender:   cmd.ConnID,
		Reply:    cmd.Sink,
	}); err != nil {
		return domain.Session{}, err
	}

	if err := s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.UserJoined{Username: username},
		Audience: event.AllExcept,
		Sender:   cmd.ConnID,
	}); err != nil {
		return domain.Session{}, err
	}

	if err := s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.UserCount{Count: s.registry.Count()},
		Audience: event.All,
	}); err != nil {
		return domain.Session{}, err
	}

	s.log.Info("Session joined", "conn_id", cmd.ConnID, "username", username)
	return session, nil
}

// PostMessage validates and broadcasts one message. Nothing is
// enqueued on failure, so an invalid send leaves the shared state
// untouched apart from the error notice to the sender.
func (s *ChatService) PostMessage(ctx context.Context, cmd PostMessageCommand) error {
	session, ok := s.registry.Lookup(cmd.ConnID)
	if !ok {
		s.notifyError(ctx, cmd.Reply, "join before sending messages")
		return apperrors.ErrNotJoined
	}

	if cmd.Attachment != nil {
		if err := validation.ValidateAttachment(*cmd.Attachment); err != nil {
			s.notifyError(ctx, cmd.Reply, "invalid attachment")
			return err
		}
	}
	if err := validation.ValidateMessage(cmd.Content, cmd.Attachment, cmd.IsStamp); err != nil {
		s.notifyError(ctx, cmd.Reply, "invalid message")
		return err
	}

	message := domain.Message{
		ID:         uuid.New(),
		Username:   session.Username,
		Content:    validation.Sanitize(strings.TrimSpace(cmd.Content)),
		CreatedAt:  time.Now().UTC(),
		Attachment: cmd.Attachment,
		IsStamp:    cmd.IsStamp,
	}

	return s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.MessagePosted{Message: message},
		Audience: event.All,
		Sender:   cmd.ConnID,
	})
}

// Disconnect removes the session and announces the departure. Unknown
// connections are a no-op, so transport teardown can always call this.
func (s *ChatService) Disconnect(ctx context.Context, connID domain.ConnectionID) error {
	session, ok := s.registry.Unregister(connID)
	if !ok {
		return nil
	}

	if err := s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.UserLeft{Username: session.Username},
		Audience: event.All,
	}); err != nil {
		return err
	}

	err := s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.UserCount{Count: s.registry.Count()},
		Audience: event.All,
	})
	if err == nil {
		s.log.Info("Session left", "conn_id", connID, "username", session.Username)
	}
	return err
}

// SearchMessages answers a full-text query, replying only to the asker.
func (s *ChatService) SearchMessages(ctx context.Context, cmd SearchCommand) error {
	if _, ok := s.registry.Lookup(cmd.ConnID); !ok {
		s.notifyError(ctx, cmd.Reply, "join before searching")
		return apperrors.ErrNotJoined
	}

	messages, err := s.searcher.Search(ctx, cmd.Query, s.searchLimit)
	if err != nil {
		s.log.Warn("Search failed", "query", cmd.Query, "error", err)
		s.notifyError(ctx, cmd.Reply, "search unavailable")
		return err
	}

	return s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.SearchResults{Query: cmd.Query, Messages: messages},
		Audience: event.SenderOnly,
		Sender:   cmd.ConnID,
		Reply:    cmd.Reply,
	})
}

// notifyError sends a sender-only notice through the pipeline. Failures
// here are logged and dropped; the caller already has the real error.
func (s *ChatService) notifyError(ctx context.Context, reply contract.EventSink, message string) {
	if reply == nil {
		return
	}
	err := s.dispatcher.Enqueue(ctx, event.Envelope{
		Event:    event.ErrorNotice{Message: message},
		Audience: event.SenderOnly,
		Reply:    reply,
	})
	if err != nil {
		s.log.Warn("Error notice dropped", "notice", message, "error", err)
	}
}
