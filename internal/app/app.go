package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/auth"
	"github.com/telecare/session-server/internal/config"
	"github.com/telecare/session-server/internal/gate"
	"github.com/telecare/session-server/internal/media/livekit"
	"github.com/telecare/session-server/internal/rtc"
	"github.com/telecare/session-server/internal/session"
	"github.com/telecare/session-server/internal/store"
	"github.com/telecare/session-server/internal/store/sqlite"
	transporthttp "github.com/telecare/session-server/internal/transport/http"
)

// App wires together the session layer and its transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	gate            *gate.Gate
	store           store.Store
	cfg             config.Config
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	rooms := session.NewRooms()
	reg := session.NewRegistry(rooms)
	tokens := rtc.NewService(cfg.RTCAppID, []byte(cfg.RTCSecret))
	dir := store.NewDirectory(st)

	g := gate.New(dir, dir, tokens, reg, cfg.RTCTokenTTL, logger)
	if cfg.MediaMode == "livekit" {
		g = g.WithMediaEngine(livekit.New(cfg.LiveKitKey, cfg.LiveKitSecret, cfg.LiveKitURL))
		logger.Info().Str("url", cfg.LiveKitURL).Msg("livekit media engine attached")
	}

	server := transporthttp.NewServer(authService, g, reg, rooms, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		gate:            g,
		store:           st,
		cfg:             cfg,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and the liveness sweep, and blocks until
// context cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.gate.RunSweep(ctx, a.cfg.HeartbeatInterval, a.cfg.IdleTimeout)

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

// cleanup closes the database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
