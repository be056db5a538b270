package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-direct/auth"
	"chat-direct/domain/chat"
	"chat-direct/infrastructure/ws"
)

// BaseWsSuite dials the websocket gateway of an already-running server.
type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests.
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("CHAT_SERVER_ADDR not set, skipping e2e suite")
	}
}

// Dial opens an authenticated session for the given user, with a colorized
// header in the test log.
func (s *BaseWsSuite) Dial(t *testing.T, name string, user chat.UserID) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	token, err := auth.NewTokens(s.Config.AuthSecret, time.Hour).Generate(user)
	s.Require().NoError(err)

	url := fmt.Sprintf("ws://%s/ws?token=%s", s.Config.ServerAddr, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ReadUntil drains frames until one of the wanted type arrives or the
// timeout elapses.
func (s *BaseWsSuite) ReadUntil(conn *websocket.Conn, frameType string, timeout time.Duration) (ws.Frame, bool) {
	deadline := time.Now().Add(timeout)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var frame ws.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return ws.Frame{}, false
		}
		if frame.Type == frameType {
			return frame, true
		}
	}
	return ws.Frame{}, false
}
