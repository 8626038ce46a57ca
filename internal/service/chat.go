package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theyashgrover/gpt-clone/internal/adapter/llm"
	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// StreamChat forwards a completion request to the selected provider and calls
// emit for every generated delta. Errors wrapping ErrConfiguration or
// ErrInvalidRequest occur before anything is emitted.
func (s *Service) StreamChat(ctx context.Context, req *domain.CompletionRequest, emit llm.DeltaFunc) error {
	if req == nil || len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages is required", ErrInvalidRequest)
	}
	for _, m := range req.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, m.Role)
		}
	}

	var provider, model string
	if req.Config != nil {
		provider, model = req.Config.Provider, req.Config.Model
	}
	client, model, err := s.providers.Resolve(ctx, provider, model)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	msgs := TrimContext(req.Messages, s.config.MaxContextMessages)
	s.rememberUserTurns(ctx, msgs)

	logger := s.logger.With().Str("provider", provider).Str("model", model).Int("messages", len(msgs)).Logger()
	start := time.Now()
	chars := 0
	err = client.StreamText(ctx, &llm.Request{Model: model, Messages: msgs}, func(text string) error {
		chars += len(text)
		return emit(text)
	})
	latency := time.Since(start)
	if err != nil {
		logger.Warn().Err(err).Dur("latency", latency).Msg("completion stream failed")
		return err
	}
	logger.Info().Dur("latency", latency).Int("bytes", chars).Msg("completion stream done")
	return nil
}

// TrimContext keeps only the most recent limit messages. A non-positive limit keeps all.
func TrimContext(msgs []domain.CompletionMessage, limit int) []domain.CompletionMessage {
	if limit <= 0 || len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}

// rememberUserTurns forwards the joined user text to the memory service.
// Failures are logged and do not affect the completion.
func (s *Service) rememberUserTurns(ctx context.Context, msgs []domain.CompletionMessage) {
	if !s.memory.Enabled() {
		return
	}
	var parts []string
	for _, m := range msgs {
		if m.Role == domain.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	text := strings.Join(parts, "\n\n")
	if text == "" {
		return
	}
	if err := s.memory.Add(ctx, s.config.Mem0UserID, text); err != nil {
		s.logger.Warn().Err(err).Msg("failed to add memory")
	}
}
