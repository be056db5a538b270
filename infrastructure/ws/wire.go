package ws

import (
	"chat-direct/domain/chat"
	"chat-direct/domain/event"
	"chat-direct/projection"
	"time"

	"github.com/samber/lo"
)

// Frame is the envelope of every websocket exchange, both directions.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound is the client-to-server frame shape. Only the fields relevant to
// the given Type are read; the sender identity always comes from the
// session, never from the payload.
type Inbound struct {
	Type           string `json:"type"`
	Receiver       string `json:"receiver,omitempty"`
	Content        string `json:"content,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	With           string `json:"with,omitempty"`
	Page           int    `json:"page,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Before         string `json:"before,omitempty"`
	After          string `json:"after,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

type wireMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Deleted   bool      `json:"deleted,omitempty"`
}

func toWireMessage(m chat.Message) wireMessage {
	return wireMessage{
		ID:        m.ID,
		Sender:    string(m.Sender),
		Receiver:  string(m.Receiver),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Status:    string(m.Status),
		Deleted:   m.Deleted,
	}
}

func toWireMessages(messages []chat.Message) []wireMessage {
	return lo.Map(messages, func(m chat.Message, _ int) wireMessage {
		return toWireMessage(m)
	})
}

// toFrame translates a domain event into its public frame. Frame type names
// are the protocol; they must not drift.
func toFrame(e event.DomainEvent) Frame {
	switch evt := e.(type) {
	case event.OnlineUsers:
		return Frame{Type: evt.EventName(), Payload: map[string]any{
			"users": evt.Users,
		}}
	case event.UserStatusChanged:
		return Frame{Type: evt.EventName(), Payload: map[string]any{
			"user_id": evt.UserID,
			"status":  evt.Status,
		}}
	case event.PendingMessages:
		return Frame{Type: evt.EventName(), Payload: toWireMessages(evt.Messages)}
	case event.NewMessage:
		return Frame{Type: evt.EventName(), Payload: toWireMessage(evt.Message)}
	case event.MessageSent:
		return Frame{Type: evt.EventName(), Payload: toWireMessage(evt.Message)}
	case event.MessageRead:
		return Frame{Type: evt.EventName(), Payload: map[string]any{
			"message_id": evt.MessageID,
			"read_by":    evt.ReadBy,
		}}
	case event.DeliveryError:
		return Frame{Type: evt.EventName(), Payload: map[string]any{
			"reason": evt.Reason,
		}}
	default:
		return Frame{Type: e.EventName()}
	}
}

type wireDateGroup struct {
	Date     string        `json:"date"`
	Messages []wireMessage `json:"messages"`
}

type wireGap struct {
	Before     string `json:"before"`
	After      string `json:"after"`
	DurationMs int64  `json:"duration_ms"`
}

type wirePage struct {
	MessagesByDate []wireDateGroup `json:"messages_by_date"`
	Pagination     struct {
		CurrentPage   int  `json:"current_page"`
		TotalPages    int  `json:"total_pages"`
		TotalMessages int  `json:"total_messages"`
		HasMore       bool `json:"has_more"`
		Limit         int  `json:"limit"`
	} `json:"pagination"`
	Gaps     []wireGap `json:"gaps"`
	Metadata struct {
		OldestMessageID string `json:"oldest_message_id"`
		NewestMessageID string `json:"newest_message_id"`
	} `json:"metadata"`
}

func toWirePage(res projection.PageResult) wirePage {
	var page wirePage
	page.MessagesByDate = lo.Map(res.MessagesByDate, func(g projection.DateGroup, _ int) wireDateGroup {
		return wireDateGroup{Date: g.Date, Messages: toWireMessages(g.Messages)}
	})
	page.Gaps = lo.Map(res.Gaps, func(g projection.Gap, _ int) wireGap {
		return wireGap{Before: g.BeforeID, After: g.AfterID, DurationMs: g.Duration.Milliseconds()}
	})
	page.Pagination.CurrentPage = res.Pagination.CurrentPage
	page.Pagination.TotalPages = res.Pagination.TotalPages
	page.Pagination.TotalMessages = res.Pagination.TotalMessages
	page.Pagination.HasMore = res.Pagination.HasMore
	page.Pagination.Limit = res.Pagination.Limit
	page.Metadata.OldestMessageID = res.Metadata.OldestMessageID
	page.Metadata.NewestMessageID = res.Metadata.NewestMessageID
	return page
}
