package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"chat-core/contract"
	"chat-core/domain"
	"chat-core/domain/event"
	apperrors "chat-core/errors"
	"chat-core/mocks"
	"chat-core/runtime"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingDispatcher captures envelopes in acceptance order, standing
// in for the pipeline.
type recordingDispatcher struct {
	mu        sync.Mutex
	envelopes []event.Envelope
}

func (d *recordingDispatcher) Enqueue(ctx context.Context, env event.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.envelopes = append(d.envelopes, env)
	return nil
}

func (d *recordingDispatcher) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.envelopes))
	for i, env := range d.envelopes {
		out[i] = env.Event.EventName()
	}
	return out
}

func (d *recordingDispatcher) at(i int) event.Envelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.envelopes[i]
}

func (d *recordingDispatcher) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.envelopes)
}

type nopSink struct{}

func (nopSink) Consume(ctx context.Context, env event.Envelope) error { return nil }

type fixture struct {
	svc        *ChatService
	registry   contract.Registry
	dispatcher *recordingDispatcher
	history    *mocks.MockHistoryProvider
	searcher   *mocks.MockSearcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	registry := runtime.NewRegistry()
	dispatcher := &recordingDispatcher{}
	history := mocks.NewMockHistoryProvider(ctrl)
	searcher := mocks.NewMockSearcher(ctrl)
	svc := NewChatService(log, registry, dispatcher, history, searcher, 50, 20)
	return &fixture{svc: svc, registry: registry, dispatcher: dispatcher, history: history, searcher: searcher}
}

func TestChatService_Join_AnnouncesInOrder(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	past := []domain.Message{{ID: uuid.New(), Username: "bob", Content: "earlier"}}
	f.history.EXPECT().FetchRecent(50).Return(past, nil)

	// When alice joins
	session, err := f.svc.Join(context.Background(), JoinCommand{
		ConnID: "conn-alice", Username: "alice", Sink: nopSink{},
	})
	req.NoError(err)
	req.Equal("alice", session.Username)
	req.Equal(1, f.registry.Count())

	// Then history goes to her alone, presence to the rest, count to all
	req.Equal([]string{"messageHistory", "userJoined", "userCount"}, f.dispatcher.names())

	historyEnv := f.dispatcher.at(0)
	req.Equal(event.SenderOnly, historyEnv.Audience)
	req.Equal(past, historyEnv.Event.(event.MessageHistory).Messages)

	joinedEnv := f.dispatcher.at(1)
	req.Equal(event.AllExcept, joinedEnv.Audience)
	req.Equal(domain.ConnectionID("conn-alice"), joinedEnv.Sender)
	req.Equal("alice", joinedEnv.Event.(event.UserJoined).Username)

	countEnv := f.dispatcher.at(2)
	req.Equal(event.All, countEnv.Audience)
	req.Equal(1, countEnv.Event.(event.UserCount).Count)
}

func TestChatService_Join_SanitizesUsername(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.history.EXPECT().FetchRecent(50).Return(nil, nil)

	session, err := f.svc.Join(context.Background(), JoinCommand{
		ConnID: "c1", Username: "  <alice>  ", Sink: nopSink{},
	})
	req.NoError(err)
	req.Equal("&lt;alice&gt;", session.Username)
}

func TestChatService_Join_InvalidUsernameLeavesRegistryUntouched(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.svc.Join(context.Background(), JoinCommand{
		ConnID: "c1", Username: "   ", Sink: nopSink{},
	})
	req.ErrorIs(err, apperrors.ErrInvalidUsername)
	req.Equal(0, f.registry.Count())

	// Only the sender hears about it
	req.Equal([]string{"error"}, f.dispatcher.names())
	req.Equal(event.SenderOnly, f.dispatcher.at(0).Audience)
}

func TestChatService_Join_DuplicateConnectionRejected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.history.EXPECT().FetchRecent(50).Return(nil, nil)

	_, err := f.svc.Join(context.Background(), JoinCommand{ConnID: "c1", Username: "alice", Sink: nopSink{}})
	req.NoError(err)

	_, err = f.svc.Join(context.Background(), JoinCommand{ConnID: "c1", Username: "imposter", Sink: nopSink{}})
	req.ErrorIs(err, apperrors.ErrAlreadyJoined)
	req.Equal(1, f.registry.Count())
}

func TestChatService_Join_SurvivesHistoryFailure(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.history.EXPECT().FetchRecent(50).Return(nil, fmt.Errorf("store offline"))

	_, err := f.svc.Join(context.Background(), JoinCommand{ConnID: "c1", Username: "alice", Sink: nopSink{}})
	req.NoError(err)

	// The joiner still gets a (now empty) history event
	req.Equal([]string{"messageHistory", "userJoined", "userCount"}, f.dispatcher.names())
	req.Empty(f.dispatcher.at(0).Event.(event.MessageHistory).Messages)
}

func joinedFixture(t *testing.T, connID, username string) *fixture {
	t.Helper()
	f := newFixture(t)
	f.history.EXPECT().FetchRecent(50).Return(nil, nil)
	_, err := f.svc.Join(context.Background(), JoinCommand{
		ConnID: domain.ConnectionID(connID), Username: username, Sink: nopSink{},
	})
	require.NoError(t, err)
	f.dispatcher.envelopes = nil
	return f
}

func TestChatService_PostMessage_BroadcastsToAll(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	err := f.svc.PostMessage(context.Background(), PostMessageCommand{
		ConnID: "c1", Content: "hello <world>", Reply: nopSink{},
	})
	req.NoError(err)

	req.Equal(1, f.dispatcher.len())
	env := f.dispatcher.at(0)
	req.Equal(event.All, env.Audience)
	req.Equal(domain.ConnectionID("c1"), env.Sender)

	posted := env.Event.(event.MessagePosted)
	req.Equal("alice", posted.Message.Username)
	req.Equal("hello &lt;world&gt;", posted.Message.Content)
	req.NotEqual(uuid.Nil, posted.Message.ID)
	req.Equal(time.UTC, posted.Message.CreatedAt.Location())
}

func TestChatService_PostMessage_BeforeJoin(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	err := f.svc.PostMessage(context.Background(), PostMessageCommand{
		ConnID: "stranger", Content: "hello", Reply: nopSink{},
	})
	req.ErrorIs(err, apperrors.ErrNotJoined)

	// Error notice only, no broadcast
	req.Equal([]string{"error"}, f.dispatcher.names())
	req.Equal(event.SenderOnly, f.dispatcher.at(0).Audience)
}

func TestChatService_PostMessage_RejectsOversizedContent(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	err := f.svc.PostMessage(context.Background(), PostMessageCommand{
		ConnID: "c1", Content: strings.Repeat("x", 501), Reply: nopSink{},
	})
	req.ErrorIs(err, apperrors.ErrInvalidMessage)
	req.Equal([]string{"error"}, f.dispatcher.names())
}

func TestChatService_PostMessage_RejectsBadAttachment(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	err := f.svc.PostMessage(context.Background(), PostMessageCommand{
		ConnID:     "c1",
		Content:    "see attached",
		Attachment: &domain.Attachment{URL: "https://x/y", Name: "y", Size: 0, MimeType: "application/pdf"},
		Reply:      nopSink{},
	})
	req.ErrorIs(err, apperrors.ErrInvalidAttachment)
	req.Equal([]string{"error"}, f.dispatcher.names())
}

func TestChatService_PostMessage_AcceptsAttachmentOnlyMessage(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	err := f.svc.PostMessage(context.Background(), PostMessageCommand{
		ConnID:     "c1",
		Content:    "",
		Attachment: &domain.Attachment{URL: "https://x/y.png", Name: "y.png", Size: 10, MimeType: "image/png"},
		Reply:      nopSink{},
	})
	req.NoError(err)
	req.Equal([]string{"message"}, f.dispatcher.names())
}

func TestChatService_PostMessage_PreservesAcceptanceOrder(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	req.NoError(f.svc.PostMessage(context.Background(), PostMessageCommand{ConnID: "c1", Content: "M1", Reply: nopSink{}}))
	req.NoError(f.svc.PostMessage(context.Background(), PostMessageCommand{ConnID: "c1", Content: "M2", Reply: nopSink{}}))

	req.Equal(2, f.dispatcher.len())
	req.Equal("M1", f.dispatcher.at(0).Event.(event.MessagePosted).Message.Content)
	req.Equal("M2", f.dispatcher.at(1).Event.(event.MessagePosted).Message.Content)
}

func TestChatService_Disconnect_AnnouncesDeparture(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	req.NoError(f.svc.Disconnect(context.Background(), "c1"))
	req.Equal(0, f.registry.Count())

	req.Equal([]string{"userLeft", "userCount"}, f.dispatcher.names())
	req.Equal("alice", f.dispatcher.at(0).Event.(event.UserLeft).Username)
	req.Equal(0, f.dispatcher.at(1).Event.(event.UserCount).Count)
}

func TestChatService_Disconnect_UnknownConnectionIsNoop(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Disconnect(context.Background(), "ghost"))
	req.Equal(0, f.dispatcher.len())
}

func TestChatService_SearchMessages_RepliesToAskerOnly(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	hits := []domain.Message{{ID: uuid.New(), Username: "bob", Content: "deploy done"}}
	f.searcher.EXPECT().Search(gomock.Any(), "deploy", 20).Return(hits, nil)

	req.NoError(f.svc.SearchMessages(context.Background(), SearchCommand{
		ConnID: "c1", Query: "deploy", Reply: nopSink{},
	}))

	req.Equal([]string{"searchResults"}, f.dispatcher.names())
	env := f.dispatcher.at(0)
	req.Equal(event.SenderOnly, env.Audience)
	results := env.Event.(event.SearchResults)
	req.Equal("deploy", results.Query)
	req.Equal(hits, results.Messages)
}

func TestChatService_SearchMessages_FailureBecomesNotice(t *testing.T) {
	req := require.New(t)
	f := joinedFixture(t, "c1", "alice")

	f.searcher.EXPECT().Search(gomock.Any(), "deploy", 20).Return(nil, fmt.Errorf("index gone"))

	err := f.svc.SearchMessages(context.Background(), SearchCommand{
		ConnID: "c1", Query: "deploy", Reply: nopSink{},
	})
	req.Error(err)
	req.Equal([]string{"error"}, f.dispatcher.names())
}
