//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"context"
	"reflect"
)

// EventSink receives domain events destined for one consumer.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Session is one live transport connection owned by a user. Pushing through
// Consume is best-effort: a closed session returns errors.ErrSessionClosed
// and the caller falls back to the queued state.
type Session interface {
	EventSink
	ID() string
	Owner() chat.UserID
}

// IPresence is the registry of currently reachable users. It is injected
// into every component that needs it and reconstructed empty on restart.
type IPresence interface {
	// Register adds a session to the user's active set and reports whether
	// this was the offline->online transition. It emits nothing itself;
	// callers broadcast at most once per actual transition.
	Register(user chat.UserID, s Session) (first bool)
	// Unregister removes the given session and reports whether the user just
	// went offline.
	Unregister(user chat.UserID, sessionID string) (last bool)
	Lookup(user chat.UserID) []Session
	IsOnline(user chat.UserID) bool
	AllOnline() []chat.UserID
	// Sessions returns every live session, for status broadcasts.
	Sessions() []Session
}

// IMessageStore is the durable message record with its forward-only status
// machine. Every mutation is atomic and visible to subsequent reads.
type IMessageStore interface {
	Create(sender, receiver chat.UserID, content string) (chat.Message, error)
	Get(id string) (chat.Message, error)
	UpdateStatus(id string, s chat.Status) (chat.Message, error)
	// FindPending returns the receiver's messages with status != read,
	// oldest first.
	FindPending(receiver chat.UserID) ([]chat.Message, error)
	// Conversation returns the full ascending history of the unordered pair.
	Conversation(a, b chat.UserID, includeDeleted bool) ([]chat.Message, error)
	SoftDelete(id string) error
}

// IUserDirectory knows which user identities exist. Identity lifecycle is
// external; the directory only answers membership.
type IUserDirectory interface {
	Save(user chat.UserID) error
	Exists(user chat.UserID) (bool, error)
}

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision without a manual naming method.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
