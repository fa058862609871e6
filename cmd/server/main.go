// Package main starts the WalletKeeper control daemon: it loads the
// configuration, opens the storage backend, initialises the wallet provider
// and serves the control API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/WalletKeeper/internal/app"
	"github.com/atinyakov/WalletKeeper/internal/biometrics"
	"github.com/atinyakov/WalletKeeper/internal/config"
	"github.com/atinyakov/WalletKeeper/internal/logger"
	"github.com/atinyakov/WalletKeeper/internal/server/handler/http"
	"github.com/atinyakov/WalletKeeper/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	fmt.Printf("Build version: %s\n", orNA(version))
	fmt.Printf("Build date: %s\n", orNA(buildDate))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	device, err := app.DeviceState(options)
	if err != nil {
		zapLogger.Fatal("invalid device configuration", zap.Error(err))
	}

	wallet, err := app.New(options, biometrics.Static{Device: device}, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init storage", zap.Error(err))
	}
	defer func() { _ = wallet.Close() }()
	provider := wallet.Provider

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := provider.Initialise(ctx); err != nil {
		zapLogger.Error("wallet initialisation failed", zap.Error(err))
	}
	zapLogger.Info("wallet initialised", zap.Stringer("status", provider.Status()))

	service.StartAutoLock(ctx, provider, options.AutoLock.Duration, 0, zapLogger)

	router := http.NewRouter(
		&http.WalletHandler{Wallet: provider},
		&http.StorageHandler{Source: provider},
		provider,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

// orNA returns s, or "N/A" when s is empty.
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
