// Package ws exposes the chat core over a websocket endpoint. It owns the
// translation between frames and domain commands; no delivery logic lives
// here.
package ws

import (
	"chat-direct/auth"
	"chat-direct/domain/chat"
	"chat-direct/services"
	"chat-direct/sink"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated requests to websocket sessions and pumps
// frames between the connection and the chat service.
type Handler struct {
	log        *slog.Logger
	service    services.IChatService
	tokens     *auth.Tokens
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewHandler(log *slog.Logger, service services.IChatService, tokens *auth.Tokens, bufferSize int) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		tokens:     tokens,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			// The handshake is authenticated by token, not by origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// extractToken accepts the token as a bearer Authorization header or as a
// "token" query parameter for browser clients that cannot set headers on a
// websocket handshake.
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	user, err := h.tokens.Validate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session := sink.NewSession(user, h.bufferSize)
	writer := &frameWriter{conn: conn}

	// Writer pump: session events -> frames. The session is the only buffer;
	// a slow connection sheds load there, not here.
	var pumps sync.WaitGroup
	pumps.Add(1)
	go func() {
		defer pumps.Done()
		for {
			select {
			case <-session.Done():
				return
			case e := <-session.Events():
				if err := writer.Write(toFrame(e)); err != nil {
					h.log.Debug("event write failed", "user", user, "error", err)
					return
				}
			}
		}
	}()

	if err := h.service.Connect(ctx, user, session); err != nil {
		h.log.Error("connect choreography failed", "user", user, "error", err)
		h.service.Disconnect(user, session.ID())
		session.Close()
		pumps.Wait()
		return
	}
	h.log.Info("session opened", "user", user, "session_id", session.ID())

	defer func() {
		h.service.Disconnect(user, session.ID())
		session.Close()
		pumps.Wait()
		h.log.Info("session closed", "user", user, "session_id", session.ID())
	}()

	// Reader pump: frames -> commands, sequential per connection so one
	// sender's messages keep creation order.
	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		h.dispatch(ctx, user, &in, writer)
	}
}

func (h *Handler) dispatch(ctx context.Context, user chat.UserID, in *Inbound, writer *frameWriter) {
	switch in.Type {
	case "send":
		message, err := h.service.Send(ctx, chat.SendCommand{
			Sender:   user,
			Receiver: chat.UserID(in.Receiver),
			Content:  in.Content,
		})
		if err != nil {
			h.log.Warn("send rejected", "user", user, "error", err)
			writer.Error(err.Error())
			return
		}
		// Optimistic echo with the stored status, under its own frame type:
		// message-sent is reserved for the delivered confirmation, which
		// follows if the receiver was live.
		_ = writer.Write(Frame{Type: "message-queued", Payload: toWireMessage(message)})

	case "read":
		if err := h.service.AcknowledgeRead(ctx, chat.ReadCommand{
			Reader:    user,
			MessageID: in.MessageID,
		}); err != nil {
			h.log.Warn("read ack rejected", "user", user, "message_id", in.MessageID, "error", err)
			writer.Error(err.Error())
		}

	case "history":
		res, err := h.service.History(chat.HistoryQuery{
			User:           user,
			With:           chat.UserID(in.With),
			Page:           in.Page,
			Limit:          in.Limit,
			Before:         in.Before,
			After:          in.After,
			IncludeDeleted: in.IncludeDeleted,
		})
		if err != nil {
			writer.Error(err.Error())
			return
		}
		_ = writer.Write(Frame{Type: "history-result", Payload: toWirePage(res)})

	case "delete":
		if err := h.service.DeleteMessage(user, in.MessageID); err != nil {
			writer.Error(err.Error())
			return
		}
		_ = writer.Write(Frame{Type: "message-deleted", Payload: map[string]any{
			"message_id": in.MessageID,
		}})

	default:
		h.log.Debug("unknown frame type", "user", user, "type", in.Type)
	}
}

// frameWriter serializes concurrent writers on one websocket connection.
type frameWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *frameWriter) Write(frame Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(frame)
}

func (w *frameWriter) Error(reason string) {
	_ = w.Write(Frame{Type: "delivery-error", Payload: map[string]any{"reason": reason}})
}
