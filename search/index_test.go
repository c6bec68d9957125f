package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-core/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *MessageIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewMessageIndex(writer, logs.GetLoggerFromLevel(slog.LevelError))
}

func indexedMessage(username, content string) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Username:  username,
		Content:   content,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMessageIndex_SearchFindsMatchingContent(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)

	// Given three indexed messages
	req.NoError(index.Add(indexedMessage("alice", "deploy finished on staging")))
	req.NoError(index.Add(indexedMessage("bob", "lunch anyone")))
	req.NoError(index.Add(indexedMessage("carol", "staging is broken again")))

	// When searching for a content term
	hits, err := index.Search(context.Background(), "staging", 10)
	req.NoError(err)

	// Then only the matching messages come back, fields intact
	req.Len(hits, 2)
	for _, hit := range hits {
		req.Contains(hit.Content, "staging")
		req.NotEmpty(hit.Username)
		req.NotEqual(uuid.Nil, hit.ID)
		req.Equal(2026, hit.CreatedAt.Year())
	}
}

func TestMessageIndex_SearchHonorsLimit(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)

	for i := 0; i < 5; i++ {
		req.NoError(index.Add(indexedMessage("alice", "release notes draft")))
	}

	hits, err := index.Search(context.Background(), "release", 2)
	req.NoError(err)
	req.Len(hits, 2)
}

func TestMessageIndex_SearchEmptyQuery(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)

	req.NoError(index.Add(indexedMessage("alice", "hello")))

	hits, err := index.Search(context.Background(), "", 10)
	req.NoError(err)
	req.Empty(hits)
}

func TestMessageIndex_SearchNoMatches(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)

	req.NoError(index.Add(indexedMessage("alice", "hello world")))

	hits, err := index.Search(context.Background(), "zeppelin", 10)
	req.NoError(err)
	req.Empty(hits)
}
