package domain

// Websocket frame types for /api/chat/ws.
const (
	FrameChat  = "chat"
	FrameDelta = "delta"
	FrameDone  = "done"
	FrameError = "error"
)

// Frame is a single websocket message in either direction.
type Frame struct {
	Type    string             `json:"type"`
	Ts      int64              `json:"ts,omitempty"`
	Request *CompletionRequest `json:"request,omitempty"`
	Content string             `json:"content,omitempty"`
	Message string             `json:"message,omitempty"`
}
