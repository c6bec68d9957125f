package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-core/auth"
	"chat-core/infrastructure/ws"
	"chat-core/internal"
	"chat-core/repositories"
	"chat-core/runtime"
	"chat-core/runtime/workers"
	"chat-core/search"
	"chat-core/services"
	"chat-core/sink"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run owns the whole lifecycle, so every defer executes before the
// process reports its exit code.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	messageRepository := repositories.NewMessageRepository(db)
	userRepository := repositories.NewUserRepository(db)
	messageIndex := search.NewMessageIndex(blugeWriter, logger)

	// 3. Supervision & Orchestration
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(
		logger, supervisor, registry,
		config.BufferSize,
		config.SinkTimeout, config.MetricInterval,
		charReplacement,
	)
	orchestrator.Add(
		sink.NewDiskSink(messageRepository, logger),
		sink.NewIndexSink(messageIndex, logger),
	)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator error: %w", err)
	}

	// 5. Services & HTTP/WebSocket surface
	chatService := services.NewChatService(
		logger, registry, orchestrator,
		messageRepository, messageIndex,
		config.HistoryLimit, config.SearchLimit,
	)
	tokenManager := auth.NewTokenManager(config.AuthTokenSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(logger, userRepository, tokenManager)

	server := ws.NewServer(logger, chatService, authService,
		config.Host, config.Port, config.ConnectionBufferSize)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful Shutdown: stop accepting connections, then drain the
	// pipeline so accepted events still reach their recipients.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
