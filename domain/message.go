// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once constructed by the core.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SystemUsername is the reserved sender of synthetic presence notices.
// Messages carrying it are broadcast live but never persisted.
const SystemUsername = "System"

// Attachment describes a file already uploaded elsewhere.
// The core only carries the descriptor, never the bytes.
type Attachment struct {
	URL      string
	Name     string
	Size     int64
	MimeType string
}

// Message represents an immutable chat event.
// Content may be empty when an attachment or stamp is present.
type Message struct {
	ID         uuid.UUID
	Username   string
	Content    string
	CreatedAt  time.Time
	Attachment *Attachment
	IsStamp    bool
}

// NewSystemNotification builds a Message-shaped notice for live broadcast.
func NewSystemNotification(content string) Message {
	return Message{
		ID:        uuid.New(),
		Username:  SystemUsername,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// IsSystem reports whether the message is a synthetic notice
// rather than something a participant said.
func (m Message) IsSystem() bool {
	return m.Username == SystemUsername
}
