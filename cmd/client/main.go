package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"

	"chat-direct/auth"
	"chat-direct/domain/chat"
	"chat-direct/infrastructure/ws"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables. AuthSecret is a
// development convenience: with it the client mints its own token instead of
// receiving one from an upstream login.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	UserID        string `env:"CHAT_USER_ID,required=true"`
	AuthSecret    string `env:"AUTH_SECRET,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: configuration, dial,
// receive pump, and a stdin send loop of the form "<receiver> <content>".
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := auth.NewTokens(config.AuthSecret, 24*time.Hour).Generate(chat.UserID(config.UserID))
	if err != nil {
		return exitConfig, fmt.Errorf("token error: %w", err)
	}

	url := fmt.Sprintf("ws://%s/ws?token=%s", config.ServerAddress, token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	log.Info(fmt.Sprintf(">>> Connected to %s as %s (Ctrl+C to quit)",
		config.ServerAddress, config.UserID))

	// Receive pump: print every event frame.
	go func() {
		for {
			var frame ws.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				if ctx.Err() == nil {
					log.Warn("connection lost", "error", err)
				}
				stop()
				return
			}
			payload, _ := json.Marshal(frame.Payload)
			log.Info(fmt.Sprintf("[%s] %s", frame.Type, payload))
		}
	}()

	// Send loop: one message per stdin line.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			receiver, content, found := strings.Cut(strings.TrimSpace(line), " ")
			if !found || content == "" {
				log.Warn("usage: <receiver> <message>")
				continue
			}
			err := conn.WriteJSON(ws.Inbound{Type: "send", Receiver: receiver, Content: content})
			if err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}
