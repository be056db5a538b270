package runtime

import (
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"chat-direct/errors"
	"chat-direct/mocks"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReconciler_Drain_PushesBacklogAsOneBatch(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIMessageStore(ctrl)
	session := mocks.NewMockSession(ctrl)

	pending := []chat.Message{
		storedMessage("alice", "bob", "first"),
		storedMessage("alice", "bob", "second"),
	}
	store.EXPECT().FindPending(chat.UserID("bob")).Return(pending, nil)

	// Then the whole backlog arrives as a single pending-messages batch
	var batch event.PendingMessages
	session.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			batch = e.(event.PendingMessages)
			return nil
		}).Times(1)

	reconciler := NewReconciler(slog.Default(), store)
	err := reconciler.Drain(context.Background(), "bob", session)

	req.NoError(err)
	req.Len(batch.Messages, 2)
	req.Equal("first", batch.Messages[0].Content)
	req.Equal("second", batch.Messages[1].Content)
}

func TestReconciler_Drain_EmptyBacklogPushesNothing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIMessageStore(ctrl)
	session := mocks.NewMockSession(ctrl)

	// Given no pending messages, the session receives nothing.
	store.EXPECT().FindPending(chat.UserID("bob")).Return(nil, nil)

	reconciler := NewReconciler(slog.Default(), store)
	req.NoError(reconciler.Drain(context.Background(), "bob", session))
}

func TestReconciler_Drain_SessionGoneIsNotAnError(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIMessageStore(ctrl)
	session := mocks.NewMockSession(ctrl)

	store.EXPECT().FindPending(chat.UserID("bob")).
		Return([]chat.Message{storedMessage("alice", "bob", "hello")}, nil)
	session.EXPECT().ID().Return("s1").AnyTimes()
	session.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.ErrSessionClosed)

	// The backlog stays queued; the next reconnect replays it.
	reconciler := NewReconciler(slog.Default(), store)
	req.NoError(reconciler.Drain(context.Background(), "bob", session))
}
