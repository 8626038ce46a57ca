package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/internal/service"
)

const (
	msgInvalidBody     = "invalid request body"
	msgProcessingError = "Failed to process request"
)

// Handler handles chat API requests.
type Handler struct {
	service  *service.Service
	version  string
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		service: svc,
		version: version,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the health route on e and the API routes on api.
func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.GET("/health", h.Health)

	api.POST("/chat", h.Chat)
	api.GET("/chat/ws", h.ChatWS)
	api.POST("/upload", h.Upload)
}

// Health returns the health status.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.HealthResponse{
		Status:  "healthy",
		Version: h.version,
	})
}

func errorBody(msg string) domain.ErrorResponse {
	return domain.ErrorResponse{Error: msg}
}
