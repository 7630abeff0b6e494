package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/emotune/internal/api"
	"github.com/saturnino-fabrica-de-software/emotune/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/emotune/internal/auth"
	"github.com/saturnino-fabrica-de-software/emotune/internal/capture"
	"github.com/saturnino-fabrica-de-software/emotune/internal/config"
	"github.com/saturnino-fabrica-de-software/emotune/internal/database"
	"github.com/saturnino-fabrica-de-software/emotune/internal/face"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
	"github.com/saturnino-fabrica-de-software/emotune/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/emotune/internal/recommend"
	"github.com/saturnino-fabrica-de-software/emotune/internal/repository"
	"github.com/saturnino-fabrica-de-software/emotune/internal/service"
)

const tokenIssuer = "emotune"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Emotune API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("detector", cfg.Detector),
		slog.String("classifier", cfg.Classifier),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Detection pipeline
	detector, err := face.NewDetector(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := detector.(io.Closer); ok {
		defer c.Close()
	}

	model, err := face.NewClassifier(cfg)
	if err != nil {
		return err
	}

	table, err := recommend.NewTable(cfg.Playlists)
	if err != nil {
		return fmt.Errorf("failed to build playlist table: %w", err)
	}

	detection := service.NewDetectionService(
		detector,
		provider.NewEmotionClassifier(model),
		table,
		logger,
		service.WithMaxFramePixels(cfg.MaxFramePixels),
	)

	// Capture store
	key, created, err := capture.LoadOrCreateKey(cfg.CaptureKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load capture key: %w", err)
	}
	if created {
		logger.Warn("generated new capture key", slog.String("path", cfg.CaptureKeyPath))
	}

	store, err := capture.NewStore(cfg.CaptureDir, key, logger)
	if err != nil {
		return fmt.Errorf("failed to open capture store: %w", err)
	}

	deps := &api.Dependencies{
		Detection: detection,
		Captures:  store,
		Playlists: table,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
		CaptureRequireAuth: cfg.CaptureRequireAuth,
		BodyLimit:          cfg.BodyLimit,
		StreamMaxClients:   cfg.StreamMaxClients,
	}

	// Accounts
	var pool *pgxpool.Pool
	if cfg.AccountsEnabled() {
		if cfg.AutoMigrate {
			version, err := database.MigrateUp(ctx, cfg.DatabaseURL, cfg.DatabaseName, logger)
			if err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("database schema ready", slog.Uint64("version", uint64(version)))
		}

		pool, err = database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		var accountOpts []service.AccountOption
		if cfg.LoginMaxAttempts > 0 {
			throttle := ratelimit.NewLoginThrottle(pool, cfg.LoginMaxAttempts, cfg.LoginWindow)
			go throttle.RunCleanup(ctx, cfg.LoginWindow, logger)
			accountOpts = append(accountOpts, service.WithLoginThrottle(throttle))
		}

		tokens := auth.NewTokenService(cfg.JWTSecret, tokenIssuer, cfg.JWTTTL)
		deps.Accounts = service.NewAccountService(
			repository.NewUserRepository(pool),
			auth.NewPasswordHasher(auth.DefaultArgon2Params()),
			tokens,
			logger,
			accountOpts...,
		)
		deps.Tokens = tokens
		deps.DB = pool
	} else {
		logger.Info("accounts disabled, DATABASE_URL not set")
	}

	// Setup router
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
