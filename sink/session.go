// Package sink carries events from the core to one connected client.
package sink

import (
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"chat-direct/errors"
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the opaque handle for one live transport connection. The core
// pushes events into its buffered channel; the transport layer drains it.
// Sessions are never persisted and die with the connection.
type Session struct {
	id      string
	owner   chat.UserID
	created time.Time
	events  chan event.DomainEvent
	done    chan struct{}
}

func NewSession(owner chat.UserID, bufferSize int) *Session {
	return &Session{
		id:      uuid.NewString(),
		owner:   owner,
		created: time.Now().UTC(),
		events:  make(chan event.DomainEvent, bufferSize),
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() string         { return s.id }
func (s *Session) Owner() chat.UserID { return s.owner }
func (s *Session) CreatedAt() time.Time {
	return s.created
}

// Events is drained by the transport layer owning the connection.
func (s *Session) Events() <-chan event.DomainEvent { return s.events }

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Consume pushes an event to the session without ever blocking the caller.
// A closed or saturated session returns ErrSessionClosed so the coordinator
// can treat the recipient as having just gone offline and fall back to the
// queued state.
func (s *Session) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case s.events <- e:
		return nil
	default:
		return errors.ErrSessionClosed
	}
}

// Close makes all subsequent pushes fail. The owning transport calls it
// exactly once on disconnect.
func (s *Session) Close() {
	close(s.done)
}
