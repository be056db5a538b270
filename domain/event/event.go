// Package event defines the events pushed to live sessions.
// Wire names mirror the public protocol and must stay stable.
package event

import (
	"chat-direct/domain/chat"
)

type DomainEvent interface {
	EventName() string
}

// OnlineUsers is the snapshot sent to a session right after it registers.
type OnlineUsers struct {
	Users []chat.UserID
}

func (OnlineUsers) EventName() string { return "online-users" }

// UserStatusChanged is broadcast once per actual offline<->online transition.
type UserStatusChanged struct {
	UserID chat.UserID
	Status string // "online" or "offline"
	// OriginSessionID excludes the session that caused the transition from
	// the broadcast.
	OriginSessionID string
}

func (UserStatusChanged) EventName() string { return "user-status-changed" }

// PendingMessages carries the catch-up batch on reconnect, ascending by
// creation time. Statuses are untouched; deduplication by message ID is the
// consumer's responsibility.
type PendingMessages struct {
	Messages []chat.Message
}

func (PendingMessages) EventName() string { return "pending-messages" }

// NewMessage is the live delivery of a single message to its receiver.
type NewMessage struct {
	Message chat.Message
}

func (NewMessage) EventName() string { return "new-message" }

// MessageSent confirms delivery back to the sender, carrying the message
// with status already at delivered.
type MessageSent struct {
	Message chat.Message
}

func (MessageSent) EventName() string { return "message-sent" }

// MessageRead notifies the original sender that the recipient read the
// message.
type MessageRead struct {
	MessageID string
	ReadBy    chat.UserID
}

func (MessageRead) EventName() string { return "message-read" }

// DeliveryError reports a failed send to the sender. The message, if any was
// created, is reported failed rather than silently lost.
type DeliveryError struct {
	Reason string
}

func (DeliveryError) EventName() string { return "delivery-error" }
