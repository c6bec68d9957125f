// Package event defines the outbound events produced by the core and
// the audience rules the router applies when fanning them out.
package event

import (
	"context"

	"chat-core/domain"
)

// Audience selects which registered connections receive an event.
type Audience int

const (
	// All delivers to every registered session, sender included.
	All Audience = iota
	// AllExcept delivers to every registered session but the sender.
	AllExcept
	// SenderOnly delivers to the originating connection only, whether
	// or not it holds a session. Used for errors and history seeds.
	SenderOnly
)

func (a Audience) String() string {
	switch a {
	case All:
		return "all"
	case AllExcept:
		return "all-except"
	case SenderOnly:
		return "sender-only"
	}
	return "unknown"
}

// DomainEvent is implemented by every outbound event type.
type DomainEvent interface {
	EventName() string
}

// Consumer receives routed envelopes. Connection sinks, the disk sink
// and the search index sink all implement it.
type Consumer interface {
	Consume(ctx context.Context, env Envelope) error
}

// Envelope pairs an event with its audience. Sender identifies the
// originating connection for AllExcept filtering; Reply carries the
// originating connection's sink so SenderOnly events reach connections
// that hold no session yet.
type Envelope struct {
	Event    DomainEvent
	Audience Audience
	Sender   domain.ConnectionID
	Reply    Consumer
}

type MessagePosted struct {
	Message domain.Message
}

func (MessagePosted) EventName() string { return "message" }

type UserJoined struct {
	Username string
}

func (UserJoined) EventName() string { return "userJoined" }

type UserLeft struct {
	Username string
}

func (UserLeft) EventName() string { return "userLeft" }

type UserCount struct {
	Count int
}

func (UserCount) EventName() string { return "userCount" }

type MessageHistory struct {
	Messages []domain.Message
}

func (MessageHistory) EventName() string { return "messageHistory" }

type SearchResults struct {
	Query    string
	Messages []domain.Message
}

func (SearchResults) EventName() string { return "searchResults" }

type ErrorNotice struct {
	Message string
}

func (ErrorNotice) EventName() string { return "error" }
