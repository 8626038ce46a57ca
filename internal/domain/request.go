package domain

// CompletionMessage is the {role, content} projection sent to the completion service.
type CompletionMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionConfig selects the provider and model for a request.
type CompletionConfig struct {
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// CompletionRequest is the body of POST /api/chat.
type CompletionRequest struct {
	Messages []CompletionMessage `json:"messages"`
	Config   *CompletionConfig   `json:"config,omitempty"`
}

// ProjectMessages reduces messages to the fields the completion service accepts.
func ProjectMessages(msgs []Message) []CompletionMessage {
	out := make([]CompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, CompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// UploadResponse is the success body of POST /api/upload.
type UploadResponse struct {
	Attachment FileAttachment `json:"attachment"`
}

// ErrorResponse is the error body of every API route.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
