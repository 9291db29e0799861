package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jot-sh/jot/cmd/jotd/handlers/health"
	"github.com/jot-sh/jot/internal/devicegrant"
	"github.com/jot-sh/jot/internal/notes"
	"github.com/jot-sh/jot/internal/sessiontoken"
	"github.com/jot-sh/jot/internal/users"
)

// Version is set by the build process.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("JOTD", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("jotd exited")
	}
}

func newLogger(cfg Config) zerolog.Logger {
	if cfg.LogPretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func run(cfg Config, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Device request store: redis when configured, in-process otherwise.
	var (
		store       devicegrant.Store
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing redis URL: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		store = devicegrant.NewRedisStore(redisClient)
		logger.Info().Msg("device requests stored in redis")
	} else {
		memStore := devicegrant.NewMemoryStore()
		defer memStore.Close()
		store = memStore
		logger.Info().Msg("device requests stored in memory")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}

	userStore, err := users.NewPGStore(ctx, pool)
	if err != nil {
		return err
	}
	noteStore, err := notes.NewPGStore(ctx, pool)
	if err != nil {
		return err
	}

	issuer := sessiontoken.New([]byte(cfg.SigningKey),
		sessiontoken.WithTTL(cfg.TokenTTL),
	)
	grant := devicegrant.New(store, issuer, cfg.BaseURL,
		devicegrant.WithLifetime(cfg.CodeLifetime),
		devicegrant.WithPollInterval(cfg.PollInterval),
	)

	extraHealth := map[string]health.Checker{
		"postgres": healthFunc(func(ctx context.Context) error { return pool.Ping(ctx) }),
	}

	srv := newServer(cfg, logger, grant, issuer, users.NewService(userStore), noteStore, extraHealth)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Str("version", Version).Msg("jotd listening")
		serverErrors <- httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("serving: %w", err)

	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			if err := httpServer.Close(); err != nil {
				logger.Error().Err(err).Msg("closing server")
			}
		}

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("closing redis connection")
			}
		}
	}

	return nil
}

// healthFunc adapts a plain function to the health.Checker interface.
type healthFunc func(ctx context.Context) error

func (f healthFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}
