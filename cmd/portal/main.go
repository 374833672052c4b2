package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/api"
	"github.com/hirelane/portal/internal/api/handler"
	"github.com/hirelane/portal/internal/api/middleware"
	"github.com/hirelane/portal/internal/core/ports"
	"github.com/hirelane/portal/internal/core/service"
	"github.com/hirelane/portal/internal/core/session"
	"github.com/hirelane/portal/internal/core/token"
	"github.com/hirelane/portal/internal/infrastructure/db/mongo"
	"github.com/hirelane/portal/internal/infrastructure/db/redis"
	"github.com/hirelane/portal/internal/infrastructure/identityapi"
	"github.com/hirelane/portal/internal/infrastructure/memstore"
	"github.com/hirelane/portal/internal/pkg/config"
	"github.com/hirelane/portal/pkg/logger"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		File:   cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("portal stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	backend, closeBackend, err := openSessionBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	baseURL, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL: %w", err)
	}
	identity := identityapi.NewClient(&http.Client{Timeout: cfg.API.Timeout}, *baseURL)
	codec := token.New(log.With().Str("component", "token").Logger())

	registry := session.NewRegistry(func(sid string) *session.Provider {
		store := backend.Scope(sid)
		sessLog := log.With().Str("session", sid).Logger()
		auth := service.NewAuthService(identity, store, codec, sessLog)
		return session.NewProvider(auth, store, sessLog)
	}, cfg.Session.IdleTTL, log)
	go registry.Run(ctx, sweepInterval)

	e := api.NewRouter(api.RouterDeps{
		Sessions: registry,
		Session: middleware.SessionConfig{
			CookieName:    cfg.Session.CookieName,
			Secure:        cfg.Session.CookieSecure,
			MaxAge:        cfg.Session.IdleTTL,
			BootstrapWait: cfg.Session.BootstrapWait,
		},
		Readiness: map[string]handler.Pinger{"session_store": backend},
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("session_backend", cfg.Session.Backend).
			Str("api", baseURL.String()).
			Msg("portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openSessionBackend connects the configured Session Store backend.
func openSessionBackend(ctx context.Context, cfg *config.Config) (ports.SessionBackend, func(), error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, nil, err
		}
		return redis.NewSessionBackend(client, cfg.Session.IdleTTL), func() { _ = client.Close() }, nil
	case config.BackendMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		backend := mongo.NewSessionBackend(db, cfg.Session.IdleTTL)
		if err := backend.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return backend, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return memstore.NewBackend(), func() {}, nil
	}
}
