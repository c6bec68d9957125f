// Package ws exposes the chat core over WebSocket plus a small HTTP
// surface for health and authentication.
package ws

import (
	"encoding/json"
	"fmt"

	"chat-core/domain"
	"chat-core/domain/event"

	"github.com/samber/lo"
)

// Inbound frame types.
const (
	TypeJoin           = "join"
	TypeSendMessage    = "sendMessage"
	TypeSearchMessages = "searchMessages"
)

// InboundFrame is one client request. Type selects which of the other
// fields matter.
type InboundFrame struct {
	Type       string             `json:"type"`
	Username   string             `json:"username,omitempty"`
	Content    string             `json:"content,omitempty"`
	Attachment *AttachmentPayload `json:"attachment,omitempty"`
	IsStamp    bool               `json:"is_stamp,omitempty"`
	Query      string             `json:"query,omitempty"`
}

type AttachmentPayload struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

func (p *AttachmentPayload) toDomain() *domain.Attachment {
	if p == nil {
		return nil
	}
	return &domain.Attachment{URL: p.URL, Name: p.Name, Size: p.Size, MimeType: p.Type}
}

// MessagePayload is the wire form of one message. Timestamps are unix
// milliseconds; attachment fields are flattened.
type MessagePayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
	FileType  string `json:"file_type,omitempty"`
	IsStamp   bool   `json:"is_stamp,omitempty"`
}

func toMessagePayload(m domain.Message) MessagePayload {
	payload := MessagePayload{
		ID:        m.ID.String(),
		Username:  m.Username,
		Content:   m.Content,
		Timestamp: m.CreatedAt.UnixMilli(),
		IsStamp:   m.IsStamp,
	}
	if att := m.Attachment; att != nil {
		payload.FileURL = att.URL
		payload.FileName = att.Name
		payload.FileSize = att.Size
		payload.FileType = att.MimeType
	}
	return payload
}

func toMessagePayloads(messages []domain.Message) []MessagePayload {
	return lo.Map(messages, func(m domain.Message, _ int) MessagePayload {
		return toMessagePayload(m)
	})
}

type outboundFrame struct {
	Type     string           `json:"type"`
	Message  *MessagePayload  `json:"message,omitempty"`
	Messages []MessagePayload `json:"messages,omitempty"`
	Username string           `json:"username,omitempty"`
	Count    *int             `json:"count,omitempty"`
	Query    string           `json:"query,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// EncodeEnvelope turns a routed envelope into its wire frame. The frame
// type is the event name, so clients switch on one field.
func EncodeEnvelope(env event.Envelope) ([]byte, error) {
	frame := outboundFrame{Type: env.Event.EventName()}

	switch evt := env.Event.(type) {
	case event.MessagePosted:
		payload := toMessagePayload(evt.Message)
		frame.Message = &payload
	case event.MessageHistory:
		frame.Messages = toMessagePayloads(evt.Messages)
	case event.UserJoined:
		frame.Username = evt.Username
	case event.UserLeft:
		frame.Username = evt.Username
	case event.UserCount:
		count := evt.Count
		frame.Count = &count
	case event.SearchResults:
		frame.Query = evt.Query
		frame.Messages = toMessagePayloads(evt.Messages)
	case event.ErrorNotice:
		frame.Error = evt.Message
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event.EventName())
	}

	return json.Marshal(frame)
}
