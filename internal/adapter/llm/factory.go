package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/theyashgrover/gpt-clone/internal/config"
	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// ModeMock routes every provider to the mock client.
const ModeMock = "MOCK"

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing API key")
)

// Factory resolves provider names from completion requests to clients.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[string]LLMClient
}

// NewFactory creates a provider factory over the server configuration.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	if strings.EqualFold(cfg.Mode, ModeMock) {
		logger.Info().Msg("CHAT_MODE=MOCK detected, using mock LLM client")
	}
	return &Factory{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]LLMClient),
	}
}

// Resolve returns the client and effective model for a provider/model pair.
// Empty values fall back to the configured defaults.
func (f *Factory) Resolve(ctx context.Context, provider, model string) (LLMClient, string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = strings.ToLower(f.cfg.DefaultProvider)
	}

	if strings.EqualFold(f.cfg.Mode, ModeMock) || provider == domain.ProviderMock {
		return f.cached(domain.ProviderMock, func() (LLMClient, error) { return NewMockClient(), nil }, model, "mock-model")
	}

	switch provider {
	case domain.ProviderOpenAI:
		return f.cached(provider, func() (LLMClient, error) {
			if f.cfg.OpenAIAPIKey == "" {
				return nil, fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingAPIKey)
			}
			return NewOpenAIClient(f.cfg.OpenAIBaseURL, f.cfg.OpenAIAPIKey, f.cfg.LLMTimeout), nil
		}, model, f.cfg.OpenAIModel)
	case domain.ProviderAnthropic:
		return f.cached(provider, func() (LLMClient, error) {
			if f.cfg.AnthropicAPIKey == "" {
				return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY", ErrMissingAPIKey)
			}
			return NewAnthropicClient(f.cfg.AnthropicBaseURL, f.cfg.AnthropicAPIKey, f.cfg.LLMTimeout), nil
		}, model, f.cfg.AnthropicModel)
	case domain.ProviderGemini:
		return f.cached(provider, func() (LLMClient, error) {
			if f.cfg.GeminiAPIKey == "" {
				return nil, fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingAPIKey)
			}
			return NewGeminiClient(ctx, f.cfg.GeminiAPIKey, "")
		}, model, f.cfg.GeminiModel)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

func (f *Factory) cached(name string, build func() (LLMClient, error), model, defaultModel string) (LLMClient, string, error) {
	if model == "" {
		model = defaultModel
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[name]; ok {
		return c, model, nil
	}
	c, err := build()
	if err != nil {
		return nil, "", err
	}
	f.clients[name] = c
	f.logger.Debug().Str("provider", name).Msg("llm client initialised")
	return c, model, nil
}
