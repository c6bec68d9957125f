package projection

import (
	"context"
	"testing"
	"time"

	"chat-core/domain"
	"chat-core/domain/event"

	"github.com/stretchr/testify/require"
)

func TestTimeline_Consume_MessagePosted(t *testing.T) {
	timeline := NewTimeline()
	ctx := context.Background()

	env1 := event.Envelope{
		Event: event.MessagePosted{Message: domain.Message{
			Username:  "Alice",
			Content:   "Hello Bob",
			CreatedAt: time.Now(),
		}},
		Audience: event.All,
	}
	env2 := event.Envelope{
		Event: event.MessagePosted{Message: domain.Message{
			Username:  "Clara",
			Content:   "Hi Bob",
			CreatedAt: time.Now().Add(time.Second),
		}},
		Audience: event.All,
	}

	err := timeline.Consume(ctx, env1)
	require.NoError(t, err)
	err = timeline.Consume(ctx, env2)
	require.NoError(t, err)

	messages := timeline.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "Alice", messages[0].Username)
	require.Equal(t, "Clara", messages[1].Username)
}

func TestTimeline_Consume_IgnoresPresenceEvents(t *testing.T) {
	timeline := NewTimeline()
	ctx := context.Background()

	require.NoError(t, timeline.Consume(ctx, event.Envelope{Event: event.UserJoined{Username: "Alice"}}))
	require.NoError(t, timeline.Consume(ctx, event.Envelope{Event: event.UserCount{Count: 1}}))

	require.Empty(t, timeline.Messages())
}
