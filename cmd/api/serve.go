package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/redmonkez12/meditrack-api/internal/auth"
	"github.com/redmonkez12/meditrack-api/internal/config"
	"github.com/redmonkez12/meditrack-api/internal/database"
	"github.com/redmonkez12/meditrack-api/internal/email"
	httpServer "github.com/redmonkez12/meditrack-api/internal/http"
	"github.com/redmonkez12/meditrack-api/internal/logging"
	"github.com/redmonkez12/meditrack-api/internal/profile"
	"github.com/redmonkez12/meditrack-api/internal/ratelimit"
	"github.com/redmonkez12/meditrack-api/internal/user"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
	)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if needsRedis(cfg) {
		redisClient, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
	} else {
		logger.Info("rate limiting and token revocation disabled, skipping Redis")
	}

	userRepo := user.NewRepository(db)

	tokenCodec, err := newTokenCodec(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	var opts []auth.ServiceOption
	if cfg.Auth.RevocationEnabled {
		opts = append(opts, auth.WithRevocationList(auth.NewRedisRevocationList(redisClient)))
	}
	if cfg.Email.Enabled() {
		opts = append(opts, auth.WithNotifier(email.NewService(cfg.Email)))
	} else {
		logger.Info("SMTP_HOST not set, welcome emails disabled")
	}

	authService := auth.NewService(
		userRepo,
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokenCodec,
		logger,
		cfg.Auth.TokenTTL,
		opts...,
	)

	// left nil when disabled so the handler skips throttling
	var rateLimiter auth.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:          auth.NewHandler(authService, rateLimiter, logger),
		Profile:       profile.NewHandler(userRepo),
		Authenticator: auth.NewAuthenticator(authService),
	}, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		if err := authService.WaitForNotifications(shutdownCtx); err != nil {
			logger.Warn("welcome emails still pending at shutdown", "error", err)
		}
	}

	return nil
}

func newTokenCodec(cfg config.AuthConfig) (auth.TokenCodec, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		codec, err := auth.NewPasetoCodec(cfg.TokenSecret)
		if err != nil {
			return nil, err
		}
		return codec, nil
	case config.TokenFormatJWT, "":
		codec, err := auth.NewJWTCodec(cfg.TokenSecret)
		if err != nil {
			return nil, err
		}
		return codec, nil
	default:
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
}

func needsRedis(cfg *config.Config) bool {
	return cfg.RateLimit.Enabled || cfg.Auth.RevocationEnabled
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
