package sink

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/mocks"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDiskSink_PersistsPostedMessages(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	history := mocks.NewMockHistoryProvider(ctrl)
	msg := domain.Message{
		ID:        uuid.New(),
		Username:  "alice",
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
	history.EXPECT().Append(msg).Return(nil).Times(1)

	diskSink := NewDiskSink(history, log)
	err := diskSink.Consume(context.Background(), event.Envelope{
		Event:    event.MessagePosted{Message: msg},
		Audience: event.All,
	})
	req.NoError(err)
}

func TestDiskSink_AppendFailureIsSwallowed(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	history := mocks.NewMockHistoryProvider(ctrl)
	history.EXPECT().Append(gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)

	diskSink := NewDiskSink(history, log)

	// Given the store fails, delivery must still be reported as fine
	err := diskSink.Consume(context.Background(), event.Envelope{
		Event:    event.MessagePosted{Message: domain.Message{Username: "alice", Content: "hi"}},
		Audience: event.All,
	})
	req.NoError(err)
}

func TestDiskSink_SkipsSystemNotifications(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Append must never be called for system notices
	history := mocks.NewMockHistoryProvider(ctrl)

	diskSink := NewDiskSink(history, log)
	err := diskSink.Consume(context.Background(), event.Envelope{
		Event:    event.MessagePosted{Message: domain.NewSystemNotification("alice joined")},
		Audience: event.All,
	})
	req.NoError(err)
}

func TestDiskSink_IgnoresNonMessageEvents(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	history := mocks.NewMockHistoryProvider(ctrl)

	diskSink := NewDiskSink(history, log)
	err := diskSink.Consume(context.Background(), event.Envelope{
		Event:    event.UserCount{Count: 3},
		Audience: event.All,
	})
	req.NoError(err)
}
