package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexbotov/hypixel/internal/api"
	"github.com/alexbotov/hypixel/internal/audit"
	"github.com/alexbotov/hypixel/internal/auth"
	"github.com/alexbotov/hypixel/internal/config"
	"github.com/alexbotov/hypixel/internal/control"
	"github.com/alexbotov/hypixel/internal/database"
	"github.com/alexbotov/hypixel/internal/telemetry"
	"github.com/alexbotov/hypixel/pkg/hypixel"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	hashSecret := flag.String("hash-secret", "", "print the bcrypt hash for a client secret and exit")
	flag.Parse()

	if *hashSecret != "" {
		hash, err := auth.HashSecret(*hashSecret)
		if err != nil {
			log.Fatalf("hash secret: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	var (
		auditSvc   *audit.Service
		controlSvc *control.Service
	)
	if cfg.Database.DSN != "" {
		db, err := database.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		auditSvc = audit.New(db.DB, logger)
		controlSvc = control.New(db.DB, auditSvc)
		if err := controlSvc.LoadState(ctx); err != nil {
			return fmt.Errorf("load control state: %w", err)
		}
	} else {
		logger.Info("no database configured, audit events are logged only")
		auditSvc = audit.New(nil, logger)
		controlSvc = control.New(nil, auditSvc)
	}

	if cfg.Hypixel.APIKey == "" {
		logger.Warn("no Hypixel API key configured, keyed endpoints will be rejected upstream")
	}
	if len(cfg.Auth.Clients) == 0 {
		logger.Warn("no API clients configured, no tokens can be issued")
	}

	client := hypixel.NewClient(&hypixel.ClientConfig{
		BaseURL: cfg.Hypixel.BaseURL,
		APIKey:  cfg.Hypixel.APIKey,
		Timeout: cfg.Hypixel.Timeout,
		Logger:  logger,
	})

	handler := api.New(client, auth.New(&cfg.Auth, auditSvc), auditSvc, controlSvc, api.Options{
		Upstream:     cfg.Hypixel.BaseURL,
		FeedInterval: cfg.Feed.Interval,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.SetupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", srv.Addr, "upstream", cfg.Hypixel.BaseURL,
			"audit_stored", auditSvc.Enabled(), "proxy_enabled", controlSvc.IsProxyEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
