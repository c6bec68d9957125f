package services

import (
	"context"

	"chat-core/contract"
	"chat-core/domain"
	apperrors "chat-core/errors"

	"github.com/qmuntal/stateless"
)

// Connection lifecycle states.
const (
	StateUnjoined = "Unjoined"
	StateJoined   = "Joined"
	StateClosed   = "Closed"
)

const (
	TriggerJoin       = "join"
	TriggerDisconnect = "disconnect"
)

// ChatSession guards one connection's operations behind a lifecycle
// state machine: join exactly once, send only while joined, disconnect
// from anywhere. The transport owns one ChatSession per connection and
// calls it from a single goroutine.
type ChatSession struct {
	svc     IChatService
	connID  domain.ConnectionID
	sink    contract.EventSink
	machine *stateless.StateMachine
}

func NewChatSession(svc IChatService, connID domain.ConnectionID, sink contract.EventSink) *ChatSession {
	machine := stateless.NewStateMachine(StateUnjoined)
	machine.Configure(StateUnjoined).
		Permit(TriggerJoin, StateJoined).
		Permit(TriggerDisconnect, StateClosed)
	machine.Configure(StateJoined).
		Permit(TriggerDisconnect, StateClosed)
	machine.Configure(StateClosed).
		Ignore(TriggerDisconnect)

	return &ChatSession{
		svc:     svc,
		connID:  connID,
		sink:    sink,
		machine: machine,
	}
}

func (s *ChatSession) ConnID() domain.ConnectionID { return s.connID }

// Join admits the connection under the given username. A second join
// on a live session fails without touching the shared registry.
func (s *ChatSession) Join(ctx context.Context, username string) (domain.Session, error) {
	if closed, _ := s.machine.IsInState(StateClosed); closed {
		return domain.Session{}, apperrors.ErrSessionClosed
	}
	if joined, _ := s.machine.IsInState(StateJoined); joined {
		return domain.Session{}, apperrors.ErrAlreadyJoined
	}

	session, err := s.svc.Join(ctx, JoinCommand{
		ConnID:   s.connID,
		Username: username,
		Sink:     s.sink,
	})
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.machine.FireCtx(ctx, TriggerJoin); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Send posts a message. Before join the service rejects it and the
// sender alone is told.
func (s *ChatSession) Send(ctx context.Context, content string, attachment *domain.Attachment, isStamp bool) error {
	if closed, _ := s.machine.IsInState(StateClosed); closed {
		return apperrors.ErrSessionClosed
	}
	return s.svc.PostMessage(ctx, PostMessageCommand{
		ConnID:     s.connID,
		Content:    content,
		Attachment: attachment,
		IsStamp:    isStamp,
		Reply:      s.sink,
	})
}

// Search runs a full-text query scoped to this session.
func (s *ChatSession) Search(ctx context.Context, query string) error {
	if closed, _ := s.machine.IsInState(StateClosed); closed {
		return apperrors.ErrSessionClosed
	}
	return s.svc.SearchMessages(ctx, SearchCommand{
		ConnID: s.connID,
		Query:  query,
		Reply:  s.sink,
	})
}

// Disconnect closes the session. Safe to call more than once.
func (s *ChatSession) Disconnect(ctx context.Context) error {
	if closed, _ := s.machine.IsInState(StateClosed); closed {
		return nil
	}
	wasJoined, _ := s.machine.IsInState(StateJoined)
	if err := s.machine.FireCtx(ctx, TriggerDisconnect); err != nil {
		return err
	}
	if !wasJoined {
		return nil
	}
	return s.svc.Disconnect(ctx, s.connID)
}
