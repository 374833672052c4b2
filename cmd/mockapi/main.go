// Command mockapi runs a local stand-in for the remote recruitment API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/infrastructure/db/mongo"
	"github.com/hirelane/portal/internal/mockapi"
	"github.com/hirelane/portal/internal/pkg/config"
	"github.com/hirelane/portal/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction(), File: cfg.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("mock api stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var accounts mockapi.AccountRepository = mockapi.NewMemoryAccounts()
	if cfg.MockAPI.Store == config.BackendMongo {
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := mongo.NewAccountRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		accounts = repo
	}

	e := mockapi.NewServer(accounts, cfg.MockAPI.JWTSecret, cfg.MockAPI.TokenTTL, log).Handler()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.MockAPI.Port).Str("store", cfg.MockAPI.Store).Msg("mock api listening")
		if err := e.Start(":" + cfg.MockAPI.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
