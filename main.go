package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theyashgrover/gpt-clone/internal/adapter/llm"
	"github.com/theyashgrover/gpt-clone/internal/adapter/media"
	"github.com/theyashgrover/gpt-clone/internal/adapter/memory"
	"github.com/theyashgrover/gpt-clone/internal/config"
	"github.com/theyashgrover/gpt-clone/internal/logging"
	"github.com/theyashgrover/gpt-clone/internal/service"
	server "github.com/theyashgrover/gpt-clone/internal/transport/http"
	"github.com/theyashgrover/gpt-clone/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	logger.Info().
		Int("port", cfg.HTTPPort).
		Str("version", cfg.Version).
		Str("default_provider", cfg.DefaultProvider).
		Msg("starting chat server")

	ctx := context.Background()

	// Initialize policy engine
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.UploadPolicyFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	// Initialize media host
	var host media.Host = media.Unconfigured{}
	cld, err := media.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.UploadFolder)
	if err != nil {
		logger.Warn().Err(err).Msg("uploads disabled")
	} else {
		host = cld
	}

	// Initialize memory client
	mem := memory.NewClient(cfg.Mem0BaseURL, cfg.Mem0APIKey, 10*time.Second)
	if !mem.Enabled() {
		logger.Info().Msg("MEM0_API_KEY not set, memory disabled")
	}

	svc := service.New(llm.NewFactory(cfg, logger), host, policyEngine, mem, cfg, logger)
	e := server.NewServer(svc, cfg, logger)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	logger.Info().Int("port", cfg.HTTPPort).Msg("chat API started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server gracefully")
	}

	logger.Info().Msg("chat server stopped")
}
