// Package search maintains the full-text index over chat messages.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"chat-core/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// MessageIndex wraps a bluge writer. Every field a search hit needs is
// stored on the document, so results come straight from the index
// without a detour through BadgerDB.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Add indexes one message, replacing any previous document with the
// same ID.
func (i *MessageIndex) Add(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("username", message.Username).StoreValue()).
		AddField(bluge.NewKeywordField("created_at",
			strconv.FormatInt(message.CreatedAt.UnixNano(), 10)).StoreValue())

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s: %w", message.ID, err)
	}
	return nil
}

// Search runs a match query against message content and returns up to
// limit hits, best match first.
func (i *MessageIndex) Search(ctx context.Context, query string, limit int) ([]domain.Message, error) {
	if limit <= 0 || query == "" {
		return nil, nil
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	match := bluge.NewMatchQuery(query).SetField("content")
	request := bluge.NewTopNSearch(limit, match)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	var messages []domain.Message
	for {
		hit, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterating hits: %w", err)
		}
		if hit == nil {
			break
		}

		var message domain.Message
		err = hit.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					message.ID = id
				}
			case "content":
				message.Content = string(value)
			case "username":
				message.Username = string(value)
			case "created_at":
				if nanos, parseErr := strconv.ParseInt(string(value), 10, 64); parseErr == nil {
					message.CreatedAt = time.Unix(0, nanos).UTC()
				}
			}
			return true
		})
		if err != nil {
			i.log.Warn("Skipping unreadable hit", "error", err)
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}
