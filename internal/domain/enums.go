// Package domain defines the core domain models for the chat client and its server.
package domain

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ResourceKind is the media host's classification of an uploaded file.
type ResourceKind string

const (
	ResourceKindImage ResourceKind = "image"
	ResourceKindVideo ResourceKind = "video"
	ResourceKindRaw   ResourceKind = "raw"
	ResourceKindAuto  ResourceKind = "auto"
)

// TurnState is the lifecycle state of a single request/response exchange.
type TurnState string

const (
	TurnStateIdle              TurnState = "idle"
	TurnStateAwaitingFirstByte TurnState = "awaiting_first_byte"
	TurnStateStreaming         TurnState = "streaming"
	TurnStateCompleted         TurnState = "completed"
	TurnStateFailed            TurnState = "failed"
	TurnStateCancelled         TurnState = "cancelled"
)

// Terminal reports whether the state ends a turn.
func (s TurnState) Terminal() bool {
	return s == TurnStateCompleted || s == TurnStateFailed || s == TurnStateCancelled
}

// Provider names accepted in a completion request config.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)
