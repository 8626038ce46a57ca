package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// ErrServer is wrapped by errors reported in websocket error frames.
var ErrServer = errors.New("server error")

// WSClient streams completions over /api/chat/ws, one connection per turn.
type WSClient struct {
	url    string
	dialer *websocket.Dialer
}

// NewWSClient creates a websocket client for the server at baseURL
// (http:// or https://).
func NewWSClient(baseURL string, handshakeTimeout time.Duration) *WSClient {
	u := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return &WSClient{
		url: u + "/api/chat/ws",
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// StreamChat sends req as a chat frame and calls onChunk per delta frame
// until the server reports done or error. Cancelling ctx closes the socket.
func (c *WSClient) StreamChat(ctx context.Context, req *domain.CompletionRequest, onChunk func(string) error) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(domain.Frame{Type: domain.FrameChat, Ts: time.Now().UnixMilli(), Request: req}); err != nil {
		return fmt.Errorf("write chat frame: %w", err)
	}

	for {
		var f domain.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read frame: %w", err)
		}
		switch f.Type {
		case domain.FrameDelta:
			if err := onChunk(f.Content); err != nil {
				return err
			}
		case domain.FrameDone:
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case domain.FrameError:
			return fmt.Errorf("%w: %s", ErrServer, f.Message)
		}
	}
}
