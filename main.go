package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/yevheniigera/nlu-webhook-relay/internal/auth"
	"github.com/yevheniigera/nlu-webhook-relay/internal/config"
	"github.com/yevheniigera/nlu-webhook-relay/internal/relay"
	"github.com/yevheniigera/nlu-webhook-relay/internal/server"
	"github.com/yevheniigera/nlu-webhook-relay/internal/telemetry"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		host        string
		port        int
		envFile     string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("nlu-webhook-relay", pflag.ContinueOnError)
	flagSet.StringVar(&host, "host", "", "listen host (overrides WEBHOOK_SERVER_HOST)")
	flagSet.IntVarP(&port, "port", "p", 0, "listen port (overrides WEBHOOK_SERVER_PORT)")
	flagSet.StringVar(&envFile, "env-file", ".env", "optional file with environment variables")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Println("nlu-webhook-relay", version)
		return nil
	}

	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := config.Load(config.WithHost(host), config.WithPort(port))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logger.Info("starting nlu-webhook-relay", "version", version, "config", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, "nlu-webhook-relay", telemetry.Settings{
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	gate, err := auth.New(cfg.AuthSettings())
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	rl, err := relay.New(relay.Default(), cfg.CustomCodeTimeout)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}

	var timer telemetry.Timer = telemetry.NopTimer{}
	if cfg.TimingEnabled {
		timer = telemetry.NewTimer(logger, otel.Tracer("github.com/yevheniigera/nlu-webhook-relay"))
	}

	srv, err := server.New(server.Options{
		Logger:           logger,
		Gate:             gate,
		Relay:            rl,
		Timer:            timer,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	if err != nil {
		return err
	}
	app := srv.App()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook server listening", "addr", cfg.Addr(), "auth_scheme", gate.Scheme())
		errCh <- app.Listen(cfg.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	if err := app.Shutdown(); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	return nil
}
