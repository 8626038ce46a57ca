// Package service implements the server's completion and upload proxies.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/theyashgrover/gpt-clone/internal/adapter/llm"
	"github.com/theyashgrover/gpt-clone/internal/adapter/media"
	"github.com/theyashgrover/gpt-clone/internal/adapter/memory"
	"github.com/theyashgrover/gpt-clone/internal/config"
	"github.com/theyashgrover/gpt-clone/policy"
)

var (
	// ErrConfiguration marks failures caused by server configuration, such as
	// a missing provider key. Details are logged, never returned to clients.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidRequest marks malformed completion requests.
	ErrInvalidRequest = errors.New("invalid request")
)

// ProviderResolver picks the upstream client for a request.
type ProviderResolver interface {
	Resolve(ctx context.Context, provider, model string) (llm.LLMClient, string, error)
}

type Service struct {
	providers    ProviderResolver
	host         media.Host
	policyEngine *policy.Engine
	memory       *memory.Client
	config       *config.Config
	logger       zerolog.Logger
}

func New(providers ProviderResolver, host media.Host, policyEngine *policy.Engine, mem *memory.Client, cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		providers:    providers,
		host:         host,
		policyEngine: policyEngine,
		memory:       mem,
		config:       cfg,
		logger:       logger,
	}
}
