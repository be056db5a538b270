package runtime

import (
	"chat-direct/contract"
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"context"
	"log/slog"
)

// Reconciler replays messages that accumulated while their receiver was
// offline. It runs synchronously right after a session registers and pushes
// the backlog as a single batch, ascending by creation time.
//
// Statuses are deliberately untouched: a reconnect alone must not mark
// anything delivered or read. The same message may therefore be replayed on
// a later reconnect; every message id is unique, so the consumer merges
// redundant deliveries idempotently.
type Reconciler struct {
	log   *slog.Logger
	store contract.IMessageStore
}

func NewReconciler(log *slog.Logger, store contract.IMessageStore) *Reconciler {
	return &Reconciler{log: log, store: store}
}

// Drain pushes the user's pending backlog to the newly registered session.
// A refused push is dropped, not retried: the next reconnect replays it.
func (r *Reconciler) Drain(ctx context.Context, user chat.UserID, s contract.Session) error {
	pending, err := r.store.FindPending(user)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if err := s.Consume(ctx, event.PendingMessages{Messages: pending}); err != nil {
		r.log.Warn("session gone before catch-up completed",
			"user", user, "session_id", s.ID(), "count", len(pending))
		return nil
	}
	r.log.Debug("catch-up batch pushed", "user", user, "count", len(pending))
	return nil
}
