// Package main provides a terminal chat client for the chat server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/theyashgrover/gpt-clone/internal/adapter/backend"
	"github.com/theyashgrover/gpt-clone/internal/config"
	"github.com/theyashgrover/gpt-clone/internal/conversation"
	"github.com/theyashgrover/gpt-clone/internal/history"
	"github.com/theyashgrover/gpt-clone/internal/logging"
	"github.com/theyashgrover/gpt-clone/internal/repository"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.ServerURL, "Chat server address")
	transport := flag.String("transport", cfg.Transport, "Transport to the server: http or ws")
	provider := flag.String("provider", cfg.Provider, "Provider forwarded with every request")
	model := flag.String("model", cfg.Model, "Model forwarded with every request")
	flag.Parse()

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	rec, err := repository.New(repository.Config{Type: cfg.StoreType, DSN: cfg.StoreDSN})
	if err != nil {
		logger.Fatal().Err(err).Str("store_type", cfg.StoreType).Msg("failed to open history record")
	}
	defer rec.Close()

	ctx := context.Background()
	store, err := history.Open(ctx, rec, logger,
		history.WithKey(cfg.StoreKey),
		history.WithMaxChats(cfg.MaxChats),
		history.WithSyncInterval(cfg.SyncInterval),
		history.WithStreamThrottle(cfg.StreamThrottle),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open chat history")
	}
	defer store.Close(ctx)

	client := backend.NewClient(*addr, cfg.Timeout)
	var streamer conversation.Streamer = client
	if strings.EqualFold(*transport, "ws") {
		streamer = backend.NewWSClient(*addr, cfg.Timeout)
	}

	ctrl := conversation.New(store, streamer, logger,
		conversation.WithProvider(*provider),
		conversation.WithModel(*model),
	)

	a := newApp(store, ctrl, client, os.Stdout)

	fmt.Printf("Connected to %s over %s.\n", *addr, strings.ToLower(*transport))
	fmt.Println("Type a message and press Enter to send. Ctrl-C stops a response.")
	fmt.Println("Commands: " + commandSummary)
	fmt.Println()

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := a.handle(ctx, line, interrupt); quit {
				fmt.Println("Bye!")
				return
			}
		}
	}
}
