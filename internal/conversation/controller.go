// Package conversation drives one chat turn at a time: it records the user
// message and an assistant placeholder, streams the completion into the
// placeholder and settles the turn as completed, failed or cancelled.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// ErrTurnInProgress is returned by Send while another turn is running.
var ErrTurnInProgress = errors.New("a response is already streaming")

// ErrorReply replaces the assistant content when a turn fails.
const ErrorReply = "Sorry, I encountered an error. Please try again."

// History is the chat history the controller writes into.
type History interface {
	EnsureCurrentChat() string
	CurrentMessages() []domain.Message
	AppendMessage(msgs ...domain.Message) error
	UpdateMessageContent(messageID, content string) bool
	Flush(ctx context.Context) error
}

// Streamer sends a completion request and reports each chunk of the reply.
type Streamer interface {
	StreamChat(ctx context.Context, req *domain.CompletionRequest, onChunk func(string) error) error
}

// TurnResult describes a settled turn.
type TurnResult struct {
	ChatID    string
	User      domain.Message
	Assistant domain.Message
	State     domain.TurnState
	// Err is the stream error of a failed turn.
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithModel sets the model forwarded with every request.
func WithModel(model string) Option {
	return func(c *Controller) { c.model = model }
}

// WithProvider sets the provider forwarded with every request.
func WithProvider(provider string) Option {
	return func(c *Controller) { c.provider = provider }
}

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller runs chat turns against a History.
type Controller struct {
	history  History
	streamer Streamer
	logger   zerolog.Logger
	model    string
	provider string
	now      func() time.Time
	hub      *hub

	mu      sync.Mutex
	state   domain.TurnState
	busy    bool
	stopped bool
	cancel  context.CancelFunc
}

// New creates a Controller.
func New(history History, streamer Streamer, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		history:  history,
		streamer: streamer,
		logger:   logger.With().Str("component", "conversation").Logger(),
		now:      time.Now,
		hub:      newHub(),
		state:    domain.TurnStateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe returns a channel of turn events and a function that ends the
// subscription and closes the channel.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.hub.subscribe()
}

// Streaming reports whether a turn is in flight.
func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// State returns the state of the current turn.
func (c *Controller) State() domain.TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stop cancels the turn in flight. Once Stop returns no further content
// update from that turn reaches the history. Stop does nothing while no turn
// is running; to cancel a turn that may not have started yet, cancel the
// context given to Send.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return
	}
	c.stopped = true
	c.cancel()
}

// Send runs one turn: it appends the user message and an empty assistant
// message to the current chat, streams the reply into the latter and flushes
// the history once the turn settles. Stream failures are reported through
// TurnResult; the returned error is non-nil only when the turn never started.
func (c *Controller) Send(ctx context.Context, text string, attachments []domain.FileAttachment) (TurnResult, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return TurnResult{}, ErrTurnInProgress
	}
	c.busy = true
	c.stopped = false
	turnCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	chatID := c.history.EnsureCurrentChat()
	prior := c.history.CurrentMessages()

	ts := c.now().UnixMilli()
	user := domain.Message{
		ID:          uuid.New().String(),
		Role:        domain.RoleUser,
		Content:     text,
		CreatedAt:   ts,
		Attachments: attachments,
	}
	assistant := domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Content:   "",
		CreatedAt: ts,
	}
	// Both land together so a turn never shows a user message without a reply.
	if err := c.history.AppendMessage(user, assistant); err != nil {
		c.release()
		return TurnResult{}, err
	}

	c.mu.Lock()
	c.setStateLocked(chatID, assistant.ID, domain.TurnStateAwaitingFirstByte, "", nil)
	c.mu.Unlock()

	req := c.buildRequest(prior, user)

	var content strings.Builder
	start := time.Now()
	var err error
	if turnCtx.Err() == nil {
		err = c.streamer.StreamChat(turnCtx, req, func(chunk string) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.stopped || turnCtx.Err() != nil {
				return context.Canceled
			}
			content.WriteString(chunk)
			c.history.UpdateMessageContent(assistant.ID, content.String())
			if c.state == domain.TurnStateAwaitingFirstByte {
				c.setStateLocked(chatID, assistant.ID, domain.TurnStateStreaming, content.String(), nil)
			}
			c.hub.publish(Event{
				Type:      EventDelta,
				ChatID:    chatID,
				MessageID: assistant.ID,
				State:     c.state,
				Delta:     chunk,
				Content:   content.String(),
			})
			return nil
		})
	}

	c.mu.Lock()
	result := TurnResult{ChatID: chatID, User: user, Assistant: assistant}
	switch {
	case c.stopped || turnCtx.Err() != nil:
		result.State = domain.TurnStateCancelled
		result.Assistant.Content = content.String()
	case err != nil:
		result.State = domain.TurnStateFailed
		result.Assistant.Content = ErrorReply
		result.Err = err
		c.history.UpdateMessageContent(assistant.ID, ErrorReply)
	default:
		result.State = domain.TurnStateCompleted
		result.Assistant.Content = content.String()
	}
	c.cancel = nil
	c.setStateLocked(chatID, assistant.ID, result.State, result.Assistant.Content, result.Err)
	c.mu.Unlock()

	logger := c.logger.With().Str("chat_id", chatID).Str("state", string(result.State)).Dur("latency", time.Since(start)).Logger()
	if result.Err != nil {
		logger.Warn().Err(result.Err).Msg("turn failed")
	} else {
		logger.Debug().Int("bytes", len(result.Assistant.Content)).Msg("turn settled")
	}

	if err := c.history.Flush(context.WithoutCancel(ctx)); err != nil {
		logger.Warn().Err(err).Msg("failed to flush history after turn")
	}
	c.release()
	return result, nil
}

// release clears the streaming flag and returns to idle.
func (c *Controller) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.cancel = nil
	c.state = domain.TurnStateIdle
	c.hub.publish(Event{Type: EventState, State: domain.TurnStateIdle})
}

func (c *Controller) setStateLocked(chatID, messageID string, state domain.TurnState, content string, err error) {
	c.state = state
	c.hub.publish(Event{
		Type:      EventState,
		ChatID:    chatID,
		MessageID: messageID,
		State:     state,
		Content:   content,
		Err:       err,
	})
}

// buildRequest projects the pre-send messages plus the new user message.
// Attachments are not forwarded.
func (c *Controller) buildRequest(prior []domain.Message, user domain.Message) *domain.CompletionRequest {
	msgs := make([]domain.Message, 0, len(prior)+1)
	msgs = append(msgs, prior...)
	msgs = append(msgs, user)

	req := &domain.CompletionRequest{Messages: domain.ProjectMessages(msgs)}
	if c.model != "" || c.provider != "" {
		req.Config = &domain.CompletionConfig{Model: c.model, Provider: c.provider}
	}
	return req
}
