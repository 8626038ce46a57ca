package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/internal/service"
)

// Chat streams a completion as plain text.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CompletionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
	}

	res := c.Response()
	started := false
	writeHeader := func() {
		res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
		res.Header().Set("Cache-Control", "no-cache")
		res.Header().Set("X-Content-Type-Options", "nosniff")
		res.WriteHeader(http.StatusOK)
		started = true
	}

	err := h.service.StreamChat(ctx, &req, func(text string) error {
		if !started {
			writeHeader()
		}
		if _, err := res.Write([]byte(text)); err != nil {
			return err
		}
		res.Flush()
		return nil
	})

	switch {
	case err == nil:
		if !started {
			writeHeader()
		}
		return nil
	case started:
		// Can't change status code after writing response
		h.logger.Warn().Err(err).Msg("completion stream ended early")
		return nil
	case errors.Is(err, service.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
	default:
		h.logger.Error().Err(err).Msg("chat request failed")
		return c.JSON(http.StatusInternalServerError, errorBody(msgProcessingError))
	}
}
