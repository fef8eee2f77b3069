package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/auth"
	"github.com/modchat/modchat-server/internal/config"
	"github.com/modchat/modchat-server/internal/core"
	"github.com/modchat/modchat-server/internal/log"
	"github.com/modchat/modchat-server/internal/store"
	"github.com/modchat/modchat-server/internal/store/sqlite"
	transporthttp "github.com/modchat/modchat-server/internal/transport/http"
)

// App wires together storage, auth, the chat hub, and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}

	authService := auth.NewService(st, jwtConfig, cfg.Admins)

	// Replay reads come from an in-memory window so connects never wait on
	// sqlite; writes still go through to disk.
	messages := store.NewHistoryCache(st, cfg.HistoryWindow)

	hub := core.NewHub(messages, authService, core.Options{
		HistoryWindow: cfg.HistoryWindow,
		DefaultMute:   time.Duration(cfg.DefaultMuteSeconds) * time.Second,
	}, log.Component(logger, "hub"))

	server := transporthttp.NewServer(hub, authService, messages, cfg, log.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
