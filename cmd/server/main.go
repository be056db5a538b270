package main

import (
	"chat-direct/auth"
	"chat-direct/infrastructure/ws"
	"chat-direct/internal"
	"chat-direct/repositories"
	"chat-direct/runtime"
	"chat-direct/runtime/workers"
	"chat-direct/services"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
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
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup (database close, worker
// shutdown) always executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core wiring: presence, store, delivery, catch-up
	registry := runtime.NewRegistry()
	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, users, logger)
	coordinator := runtime.NewCoordinator(logger, registry, messages)
	reconciler := runtime.NewReconciler(logger, messages)
	fanout := workers.NewStatusFanout(logger, registry, config.BroadcastBufferSize)

	chatService := services.NewChatService(
		logger, registry, messages, users, coordinator, reconciler, fanout)

	// 4. Supervised background workers
	sup := workers.NewSupervisor(logger)
	sup.Add(fanout)
	sup.Add(workers.NewHeartbeatWorker(logger, registry, config.HeartbeatInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	// 5. Websocket gateway
	tokens := auth.NewTokens(config.AuthSecret, config.AuthTokenDuration)
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(logger, chatService, tokens, config.SessionBufferSize))

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Websocket gateway listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	// 6. Wait for shutdown signal or server failure
	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitRuntime, fmt.Errorf("gateway failure: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Gateway did not stop cleanly", "error", err)
	}

	sup.Stop()
	<-supDone
	logger.Info("All workers stopped")
	return exitOK, nil
}
