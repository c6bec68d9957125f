// Package validation holds the pure input rules applied before any
// user-supplied text is stored or broadcast.
package validation

import (
	"fmt"
	"strings"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxUsernameLength = 20
	MaxMessageLength  = 500
)

// sanitizer escapes the five HTML-significant characters plus '/'
// (attribute breakout). Single pass, so escaping already-escaped text
// double-escapes the leading '&' and nothing else.
var sanitizer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// ValidateUsername rejects names that are empty or longer than 20
// characters after trimming. Trimming for storage is the caller's job.
func ValidateUsername(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%w: username is empty", errors.ErrInvalidUsername)
	}
	if len([]rune(trimmed)) > MaxUsernameLength {
		return fmt.Errorf("%w: username exceeds %d characters", errors.ErrInvalidUsername, MaxUsernameLength)
	}
	return nil
}

// ValidateMessage checks a sendMessage payload. Empty content is
// acceptable only with an attachment or a stamp; stamps are reaction
// tokens and skip the length rules entirely.
func ValidateMessage(content string, attachment *domain.Attachment, isStamp bool) error {
	if isStamp {
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("%w: stamp carries no content", errors.ErrInvalidMessage)
		}
		return nil
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" && attachment == nil {
		return fmt.Errorf("%w: message is empty", errors.ErrInvalidMessage)
	}
	if len([]rune(trimmed)) > MaxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", errors.ErrInvalidMessage, MaxMessageLength)
	}
	return nil
}

// ValidateAttachment checks the descriptor of an already-uploaded file.
// The declared MIME type must be one mimetype knows about.
func ValidateAttachment(att domain.Attachment) error {
	if att.URL == "" || att.Name == "" {
		return fmt.Errorf("%w: url and name are required", errors.ErrInvalidAttachment)
	}
	if att.Size <= 0 {
		return fmt.Errorf("%w: size must be positive", errors.ErrInvalidAttachment)
	}
	if mimetype.Lookup(att.MimeType) == nil {
		return fmt.Errorf("%w: unknown mime type %q", errors.ErrInvalidAttachment, att.MimeType)
	}
	return nil
}

// Sanitize escapes user-supplied text for safe embedding. Applied to
// every username and message content before broadcast or persistence.
func Sanitize(text string) string {
	return sanitizer.Replace(text)
}
