// Package repositories contains the BadgerDB-backed stores for
// messages and user accounts.
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-core/domain"
	apperrors "chat-core/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "msg:"

// storedMessage is the durable form of a chat message. Attachment
// fields are flattened so the on-disk schema stays stable even if the
// in-memory shape evolves.
type storedMessage struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	FileURL   string    `json:"file_url,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	FileType  string    `json:"file_type,omitempty"`
	IsStamp   bool      `json:"is_stamp,omitempty"`
}

// MessageRepository persists messages under keys ordered by creation
// time, so a forward scan yields chronological order and a reverse
// scan yields the most recent entries first.
type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// messageKey builds "msg:{unixnano:019d}:{uuid}". The zero-padded
// nanosecond timestamp keeps byte order equal to time order.
func messageKey(at time.Time, id uuid.UUID) []byte {
	return fmt.Appendf(nil, "%s%019d:%s", messagePrefix, at.UnixNano(), id)
}

func (r *MessageRepository) Append(message domain.Message) error {
	stored := storedMessage{
		ID:        message.ID,
		Username:  message.Username,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
		IsStamp:   message.IsStamp,
	}
	if att := message.Attachment; att != nil {
		stored.FileURL = att.URL
		stored.FileName = att.Name
		stored.FileSize = att.Size
		stored.FileType = att.MimeType
	}

	value, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.CreatedAt, message.ID), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}

// FetchRecent returns up to limit messages, oldest first. It walks the
// keyspace backwards to find the newest entries, then reverses so the
// caller can replay them in chronological order.
func (r *MessageRepository) FetchRecent(limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(messagePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last possible key.
		seek := append([]byte(messagePrefix), 0xFF)
		for it.Seek(seek); it.Valid() && len(messages) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var stored storedMessage
				if err := json.Unmarshal(val, &stored); err != nil {
					return err
				}
				messages = append(messages, stored.toDomain())
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s storedMessage) toDomain() domain.Message {
	message := domain.Message{
		ID:        s.ID,
		Username:  s.Username,
		Content:   s.Content,
		CreatedAt: s.CreatedAt,
		IsStamp:   s.IsStamp,
	}
	if s.FileURL != "" || s.FileName != "" {
		message.Attachment = &domain.Attachment{
			URL:      s.FileURL,
			Name:     s.FileName,
			Size:     s.FileSize,
			MimeType: s.FileType,
		}
	}
	return message
}
