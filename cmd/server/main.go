package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/telecare/session-server/internal/app"
	"github.com/telecare/session-server/internal/config"
	"github.com/telecare/session-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		logLevel   string
	)
	flag.StringVar(&configPath, "config", "", "path to config file (default: ./config.yaml)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	bootLogger := log.New("info")

	cfg, resolvedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Str("path", resolvedPath).Msg("failed to load config")
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := log.New(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("jwt_secret is required (set TELECARE_JWT_SECRET or the config file)")
	}
	if cfg.RTCSecret == "" {
		logger.Fatal().Msg("rtc_secret is required (set TELECARE_RTC_SECRET or the config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	logger.Info().Str("addr", cfg.Addr).Str("config", resolvedPath).Msg("starting session server")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
