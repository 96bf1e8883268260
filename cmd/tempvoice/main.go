package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sglre6355/tempvoice/internal/bot"
	_ "github.com/sglre6355/tempvoice/internal/modules/voice_rooms"
	"github.com/spf13/pflag"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/tempvoice
var version = "dev"

func main() {
	var (
		envFile     string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("tempvoice", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "load missing environment variables from this file")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if showVersion {
		fmt.Println("tempvoice", version)
		return
	}

	// Logs go to stdout until the configured logger is ready
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := bot.LoadEnvFile(envFile); err != nil {
		slog.Error("failed to load env file", "path", envFile, "error", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := bot.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser := bot.NewLogger(cfg)
	slog.SetDefault(logger)

	slog.Info("starting tempvoice", "version", version)

	// Create and configure bot
	b := bot.NewBot(cfg)
	b.LoadModules()

	// Start bot
	if err := b.Start(); err != nil {
		slog.Error("failed to start bot", "error", err)
		_ = b.Stop()
		_ = logCloser.Close()
		os.Exit(1)
	}

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		slog.Error("failed to shutdown", "error", err)
	}

	slog.Info("completed bot shutdown")
	_ = logCloser.Close()
}
