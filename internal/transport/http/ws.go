package http

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/internal/service"
)

const (
	maxFrameSize = 1 << 20
	writeWait    = 10 * time.Second
)

// ChatWS serves completions over a websocket, one turn per chat frame.
// Closing the socket cancels the turn in flight.
// GET /api/chat/ws
func (h *Handler) ChatWS(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to upgrade websocket")
		return nil
	}
	defer ws.Close()
	ws.SetReadLimit(maxFrameSize)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	frames := make(chan domain.Frame)
	go func() {
		defer cancel()
		defer close(frames)
		for {
			var f domain.Frame
			if err := ws.ReadJSON(&f); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Debug().Err(err).Msg("websocket read ended")
				}
				return
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if err := h.serveFrame(ctx, ws, f); err != nil {
				h.logger.Debug().Err(err).Msg("websocket write failed")
				return nil
			}
		}
	}
}

func (h *Handler) serveFrame(ctx context.Context, ws *websocket.Conn, f domain.Frame) error {
	if f.Type != domain.FrameChat || f.Request == nil {
		return writeFrame(ws, domain.Frame{Type: domain.FrameError, Message: msgInvalidBody})
	}

	err := h.service.StreamChat(ctx, f.Request, func(text string) error {
		return writeFrame(ws, domain.Frame{Type: domain.FrameDelta, Content: text})
	})
	switch {
	case err == nil:
		return writeFrame(ws, domain.Frame{Type: domain.FrameDone})
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, service.ErrInvalidRequest):
		return writeFrame(ws, domain.Frame{Type: domain.FrameError, Message: msgInvalidBody})
	default:
		h.logger.Error().Err(err).Msg("websocket chat turn failed")
		return writeFrame(ws, domain.Frame{Type: domain.FrameError, Message: msgProcessingError})
	}
}

func writeFrame(ws *websocket.Conn, f domain.Frame) error {
	f.Ts = time.Now().UnixMilli()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(f)
}
