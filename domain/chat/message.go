// Package chat contains core concepts of the direct-message system.
// This file defines Message records and their identity scheme.
// No runtime, network, or UI logic should be added here.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserID is the opaque, stable identity of a user.
// Profile data lives outside this module; only the identifier crosses in.
type UserID string

// Valid reports whether the identifier is usable as a storage key segment:
// non-empty and free of the ':' and '|' delimiters the key families and
// conversation keys are built on.
func (u UserID) Valid() bool {
	return u != "" && !strings.ContainsAny(string(u), ":|")
}

// Message is the durable unit exchanged between exactly two users.
// Status and Deleted are the only fields mutable after creation.
type Message struct {
	ID        string
	Sender    UserID
	Receiver  UserID
	Content   string
	CreatedAt time.Time
	Status    Status
	Deleted   bool
}

// NewMessageID builds an identifier that sorts lexicographically in creation
// order: a 19-digit zero-padded UnixNano followed by a UUID as a collision
// disconnector if two messages are created at the same nanosecond.
func NewMessageID(at time.Time) string {
	return fmt.Sprintf("%019d-%s", at.UnixNano(), uuid.New())
}

// ConversationKey identifies the unordered pair {a, b}. Both orders of the
// same two users yield the same key.
func ConversationKey(a, b UserID) string {
	if strings.Compare(string(a), string(b)) > 0 {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}

// Between reports whether the message belongs to the conversation of the
// unordered pair {a, b}.
func (m Message) Between(a, b UserID) bool {
	return ConversationKey(m.Sender, m.Receiver) == ConversationKey(a, b)
}
