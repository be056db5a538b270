package workers

import (
	"chat-direct/contract"
	"chat-direct/domain/event"
	"context"
	"log/slog"
)

// StatusFanout broadcasts presence transitions to every live session except
// the one that caused them.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries; a session that refuses the push simply
// misses the notification. StatusFanout is not a message broker.
type StatusFanout struct {
	log      *slog.Logger
	presence contract.IPresence
	events   chan event.DomainEvent
}

func NewStatusFanout(log *slog.Logger, presence contract.IPresence, bufferSize int) *StatusFanout {
	return &StatusFanout{
		log:      log,
		presence: presence,
		events:   make(chan event.DomainEvent, bufferSize),
	}
}

// Publish enqueues a transition without blocking the connection path. A full
// channel drops the broadcast: presence notifications are advisory.
func (w *StatusFanout) Publish(e event.DomainEvent) {
	select {
	case w.events <- e:
	default:
		w.log.Warn("status fanout channel full, dropping broadcast", "event", e.EventName())
	}
}

func (w *StatusFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case e := <-w.events:
			w.broadcast(ctx, e)
		}
	}
}

func (w *StatusFanout) broadcast(ctx context.Context, e event.DomainEvent) {
	origin := ""
	if sc, ok := e.(event.UserStatusChanged); ok {
		origin = sc.OriginSessionID
	}
	for _, s := range w.presence.Sessions() {
		if s.ID() == origin {
			continue
		}
		if err := s.Consume(ctx, e); err != nil {
			w.log.Debug("broadcast dropped", "session_id", s.ID(), "error", err)
		}
	}
}
