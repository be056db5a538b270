package runtime

import (
	"chat-direct/contract"
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"chat-direct/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Coordinator drives the per-message delivery state machine:
// sending --(persisted)--> sending --(pushed live or left queued)-->
// delivered-or-pending --(recipient ack)--> read.
//
// Persistence success is the durability boundary. Pushes are best-effort: a
// session that refuses an event is treated as a recipient that just went
// offline and the message stays queued for the catch-up path.
type Coordinator struct {
	log      *slog.Logger
	presence contract.IPresence
	store    contract.IMessageStore
	validate *validator.Validate
}

func NewCoordinator(log *slog.Logger, presence contract.IPresence, store contract.IMessageStore) *Coordinator {
	return &Coordinator{
		log:      log,
		presence: presence,
		store:    store,
		validate: validator.New(),
	}
}

// Send persists the message and routes it to the receiver's live sessions if
// any. The created message is returned to the caller in every success case,
// as the sender-side optimistic echo; its stored status may already have
// moved to delivered behind it.
func (c *Coordinator) Send(ctx context.Context, cmd chat.SendCommand) (chat.Message, error) {
	if err := c.validate.Struct(cmd); err != nil {
		return chat.Message{}, err
	}

	message, err := c.store.Create(cmd.Sender, cmd.Receiver, cmd.Content)
	if err != nil {
		if goerrors.Is(err, errors.ErrEmptyContent) || goerrors.Is(err, errors.ErrUnknownReceiver) {
			return chat.Message{}, err
		}
		// The store is the durability boundary: a persistence failure must
		// reach the sender visibly, never a silent loss.
		c.pushToUser(ctx, cmd.Sender, event.DeliveryError{Reason: "failed to persist message"})
		return chat.Message{}, fmt.Errorf("%w: %v", errors.ErrDelivery, err)
	}

	receivers := c.presence.Lookup(cmd.Receiver)
	if len(receivers) == 0 {
		// Offline receiver: leave status at sending, the catch-up
		// reconciler picks it up on the next connect.
		return message, nil
	}

	live := message
	live.Status = chat.StatusDelivered
	pushed := false
	for _, s := range receivers {
		if err := s.Consume(ctx, event.NewMessage{Message: live}); err != nil {
			c.log.Debug("receiver session refused push",
				"message_id", message.ID, "session_id", s.ID(), "error", err)
			continue
		}
		pushed = true
	}
	if !pushed {
		// Push raced a disconnect; fall back to queued.
		return message, nil
	}

	updated, err := c.store.UpdateStatus(message.ID, chat.StatusDelivered)
	if err != nil {
		// The receiver got the event; an ack or the next reconnect settles
		// the stored status.
		c.log.Warn("could not record delivered status", "message_id", message.ID, "error", err)
		updated = live
	}

	c.pushToUser(ctx, cmd.Sender, event.MessageSent{Message: updated})
	return message, nil
}

// AcknowledgeRead marks a message read on behalf of its addressed recipient
// and notifies the original sender if still connected. An acknowledgment
// from anyone else is a logged no-op: only the addressed recipient may mark
// a message read.
func (c *Coordinator) AcknowledgeRead(ctx context.Context, cmd chat.ReadCommand) error {
	if err := c.validate.Struct(cmd); err != nil {
		return err
	}

	message, err := c.store.Get(cmd.MessageID)
	if err != nil {
		return err
	}
	if message.Receiver != cmd.Reader {
		c.log.Warn("read acknowledgment from non-recipient dropped",
			"message_id", cmd.MessageID, "reader", cmd.Reader, "receiver", message.Receiver)
		return nil
	}
	if message.Status == chat.StatusRead {
		// Redundant ack after a re-delivery; nothing left to do.
		return nil
	}

	if _, err := c.store.UpdateStatus(cmd.MessageID, chat.StatusRead); err != nil {
		return err
	}

	c.pushToUser(ctx, message.Sender, event.MessageRead{
		MessageID: cmd.MessageID,
		ReadBy:    cmd.Reader,
	})
	return nil
}

// pushToUser fans an event out to every live session of one user,
// best-effort.
func (c *Coordinator) pushToUser(ctx context.Context, user chat.UserID, e event.DomainEvent) {
	for _, s := range c.presence.Lookup(user) {
		if err := s.Consume(ctx, e); err != nil {
			c.log.Debug("push dropped", "user", user, "session_id", s.ID(), "error", err)
		}
	}
}
