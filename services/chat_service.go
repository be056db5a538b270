package services

import (
	"chat-direct/contract"
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"chat-direct/errors"
	"chat-direct/projection"
	"chat-direct/runtime"
	"chat-direct/runtime/workers"
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

type IChatService interface {
	Connect(ctx context.Context, user chat.UserID, s contract.Session) error
	Disconnect(user chat.UserID, sessionID string)
	Send(ctx context.Context, cmd chat.SendCommand) (chat.Message, error)
	AcknowledgeRead(ctx context.Context, cmd chat.ReadCommand) error
	History(q chat.HistoryQuery) (projection.PageResult, error)
	DeleteMessage(user chat.UserID, messageID string) error
}

// ChatService is the single entry point transports talk to. It owns the
// connect/disconnect choreography and delegates sends, acknowledgments, and
// history queries to the runtime and projection layers.
type ChatService struct {
	log         *slog.Logger
	presence    contract.IPresence
	store       contract.IMessageStore
	users       contract.IUserDirectory
	coordinator *runtime.Coordinator
	reconciler  *runtime.Reconciler
	fanout      *workers.StatusFanout
	validate    *validator.Validate
}

func NewChatService(
	log *slog.Logger,
	presence contract.IPresence,
	store contract.IMessageStore,
	users contract.IUserDirectory,
	coordinator *runtime.Coordinator,
	reconciler *runtime.Reconciler,
	fanout *workers.StatusFanout,
) *ChatService {
	return &ChatService{
		log:         log,
		presence:    presence,
		store:       store,
		users:       users,
		coordinator: coordinator,
		reconciler:  reconciler,
		fanout:      fanout,
		validate:    validator.New(),
	}
}

// Connect registers an authenticated session and runs the connect
// choreography: record the identity, push the online-users snapshot to the
// new session, broadcast the online transition at most once, then replay the
// pending backlog through the reconciler. A connect error means the session
// was not registered; a failed catch-up alone never fails the connect.
func (s *ChatService) Connect(ctx context.Context, user chat.UserID, session contract.Session) error {
	if err := s.users.Save(user); err != nil {
		return err
	}

	first := s.presence.Register(user, session)

	if err := session.Consume(ctx, event.OnlineUsers{Users: s.presence.AllOnline()}); err != nil {
		s.log.Debug("snapshot push dropped", "user", user, "error", err)
	}

	if first {
		s.fanout.Publish(event.UserStatusChanged{
			UserID:          user,
			Status:          "online",
			OriginSessionID: session.ID(),
		})
	}

	if err := s.reconciler.Drain(ctx, user, session); err != nil {
		// The session stays registered; the next reconnect replays the
		// backlog.
		s.log.Error("catch-up drain failed", "user", user, "error", err)
	}
	return nil
}

// Disconnect removes the session and broadcasts the offline transition if it
// was the user's last one. Safe to call while sends or reads for this user
// are still in flight.
func (s *ChatService) Disconnect(user chat.UserID, sessionID string) {
	if last := s.presence.Unregister(user, sessionID); last {
		s.fanout.Publish(event.UserStatusChanged{
			UserID:          user,
			Status:          "offline",
			OriginSessionID: sessionID,
		})
	}
}

func (s *ChatService) Send(ctx context.Context, cmd chat.SendCommand) (chat.Message, error) {
	return s.coordinator.Send(ctx, cmd)
}

func (s *ChatService) AcknowledgeRead(ctx context.Context, cmd chat.ReadCommand) error {
	return s.coordinator.AcknowledgeRead(ctx, cmd)
}

// History serves one page of the conversation between q.User and q.With.
func (s *ChatService) History(q chat.HistoryQuery) (projection.PageResult, error) {
	if err := s.validate.Struct(q); err != nil {
		return projection.PageResult{}, err
	}
	messages, err := s.store.Conversation(q.User, q.With, q.IncludeDeleted)
	if err != nil {
		return projection.PageResult{}, err
	}
	return projection.Paginate(messages, projection.PageOptions{
		Page:   q.Page,
		Limit:  q.Limit,
		Before: q.Before,
		After:  q.After,
	}), nil
}

// DeleteMessage soft-deletes one of the caller's own messages. A message
// sent by someone else is reported not found, never revealed.
func (s *ChatService) DeleteMessage(user chat.UserID, messageID string) error {
	message, err := s.store.Get(messageID)
	if err != nil {
		return err
	}
	if message.Sender != user {
		return errors.ErrMessageNotFound
	}
	return s.store.SoftDelete(messageID)
}
