package runtime

import (
	"chat-direct/contract"
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"chat-direct/errors"
	"chat-direct/mocks"
	"context"
	goerrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func sessions(ss ...contract.Session) []contract.Session { return ss }

func storedMessage(sender, receiver chat.UserID, content string) chat.Message {
	at := time.Now().UTC()
	return chat.Message{
		ID:        chat.NewMessageID(at),
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		CreatedAt: at,
		Status:    chat.StatusSending,
	}
}

func TestCoordinator_Send_OfflineReceiver_StaysQueued(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)

	message := storedMessage("alice", "bob", "hello")

	// Given the receiver has no live session
	store.EXPECT().Create(chat.UserID("alice"), chat.UserID("bob"), "hello").Return(message, nil)
	presence.EXPECT().Lookup(chat.UserID("bob")).Return(nil)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	// When sending
	created, err := coordinator.Send(context.Background(), chat.SendCommand{
		Sender: "alice", Receiver: "bob", Content: "hello",
	})

	// Then the message stays queued at sending; no status update happens
	req.NoError(err)
	req.Equal(chat.StatusSending, created.Status)
	req.Equal(message.ID, created.ID)
}

func TestCoordinator_Send_OnlineReceiver_DeliveredExactlyOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)
	receiverSession := mocks.NewMockSession(ctrl)
	senderSession := mocks.NewMockSession(ctrl)

	message := storedMessage("alice", "bob", "hello")
	delivered := message
	delivered.Status = chat.StatusDelivered

	store.EXPECT().Create(chat.UserID("alice"), chat.UserID("bob"), "hello").Return(message, nil)
	presence.EXPECT().Lookup(chat.UserID("bob")).Return(sessions(receiverSession))

	coordinator := NewCoordinator(slog.Default(), presence, store)

	// Then the receiver gets exactly one new-message carrying delivered
	var pushed event.NewMessage
	receiverSession.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			pushed = e.(event.NewMessage)
			return nil
		}).Times(1)

	// And the stored status moves to delivered
	store.EXPECT().UpdateStatus(message.ID, chat.StatusDelivered).Return(delivered, nil)

	// And the sender gets a message-sent confirmation
	presence.EXPECT().Lookup(chat.UserID("alice")).Return(sessions(senderSession))
	var confirmed event.MessageSent
	senderSession.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			confirmed = e.(event.MessageSent)
			return nil
		}).Times(1)

	created, err := coordinator.Send(context.Background(), chat.SendCommand{
		Sender: "alice", Receiver: "bob", Content: "hello",
	})

	req.NoError(err)
	req.Equal(message.ID, created.ID)
	req.Equal(chat.StatusDelivered, pushed.Message.Status)
	req.Equal(message.ID, pushed.Message.ID)
	req.Equal(chat.StatusDelivered, confirmed.Message.Status)
}

func TestCoordinator_Send_PushRefused_FallsBackToQueued(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)
	receiverSession := mocks.NewMockSession(ctrl)

	message := storedMessage("alice", "bob", "hello")

	store.EXPECT().Create(chat.UserID("alice"), chat.UserID("bob"), "hello").Return(message, nil)
	presence.EXPECT().Lookup(chat.UserID("bob")).Return(sessions(receiverSession))

	// Given the only live session refuses the push (disconnect race)
	receiverSession.EXPECT().ID().Return("s1").AnyTimes()
	receiverSession.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.ErrSessionClosed)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	created, err := coordinator.Send(context.Background(), chat.SendCommand{
		Sender: "alice", Receiver: "bob", Content: "hello",
	})

	// Then the message is left queued: no status update, no sender echo
	req.NoError(err)
	req.Equal(chat.StatusSending, created.Status)
}

func TestCoordinator_Send_UnknownReceiver(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)

	store.EXPECT().Create(chat.UserID("alice"), chat.UserID("ghost"), "hello").
		Return(chat.Message{}, errors.ErrUnknownReceiver)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	_, err := coordinator.Send(context.Background(), chat.SendCommand{
		Sender: "alice", Receiver: "ghost", Content: "hello",
	})

	req.ErrorIs(err, errors.ErrUnknownReceiver)
}

func TestCoordinator_Send_RejectsEmptyContent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	// The store is never reached: validation rejects the command first.
	_, err := coordinator.Send(context.Background(), chat.SendCommand{
		Sender: "alice", Receiver: "bob", Content: "",
	})

	req.Error(err)
}

func TestCoordinator_Send_PersistenceFailure_NotifiesSender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)
	senderSession := mocks.NewMockSession(ctrl)

	store.EXPECT().Create(chat.UserID("alice"), chat.UserID("bob"), "hello").
		Return(chat.Message{}, goerrors.New("disk full"))

	// Then the sender is told about the failed delivery
	presence.EXPECT().Lookup(chat.UserID("alice")).Return(sessions(senderSession))
	var notified event.DeliveryError
	senderSession.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			notified = e.(event.DeliveryError)
			return nil
		}).Times(1)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	_, err := coordinator.Send(context.Background(), chat.SendCommand{
		Sender: "alice", Receiver: "bob", Content: "hello",
	})

	req.ErrorIs(err, errors.ErrDelivery)
	req.NotEmpty(notified.Reason)
}

func TestCoordinator_AcknowledgeRead_NonRecipientIsDropped(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)

	message := storedMessage("alice", "bob", "hello")
	message.Status = chat.StatusDelivered
	store.EXPECT().Get(message.ID).Return(message, nil)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	// When someone other than the addressed recipient acknowledges
	err := coordinator.AcknowledgeRead(context.Background(), chat.ReadCommand{
		Reader: "clara", MessageID: message.ID,
	})

	// Then nothing changes and no error surfaces
	req.NoError(err)
}

func TestCoordinator_AcknowledgeRead_NotifiesSender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)
	senderSession := mocks.NewMockSession(ctrl)

	message := storedMessage("alice", "bob", "hello")
	message.Status = chat.StatusDelivered
	read := message
	read.Status = chat.StatusRead

	store.EXPECT().Get(message.ID).Return(message, nil)
	store.EXPECT().UpdateStatus(message.ID, chat.StatusRead).Return(read, nil)

	presence.EXPECT().Lookup(chat.UserID("alice")).Return(sessions(senderSession))
	var receipt event.MessageRead
	senderSession.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			receipt = e.(event.MessageRead)
			return nil
		}).Times(1)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	err := coordinator.AcknowledgeRead(context.Background(), chat.ReadCommand{
		Reader: "bob", MessageID: message.ID,
	})

	req.NoError(err)
	req.Equal(message.ID, receipt.MessageID)
	req.Equal(chat.UserID("bob"), receipt.ReadBy)
}

func TestCoordinator_AcknowledgeRead_AlreadyRead(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	store := mocks.NewMockIMessageStore(ctrl)

	message := storedMessage("alice", "bob", "hello")
	message.Status = chat.StatusRead
	store.EXPECT().Get(message.ID).Return(message, nil)

	coordinator := NewCoordinator(slog.Default(), presence, store)

	// A redundant acknowledgment after a replayed delivery is a no-op.
	err := coordinator.AcknowledgeRead(context.Background(), chat.ReadCommand{
		Reader: "bob", MessageID: message.ID,
	})

	req.NoError(err)
}
