// Package main provides the honeypot service entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mayank-Dandane/honeypot-api/internal/config"
	"github.com/Mayank-Dandane/honeypot-api/internal/watcher"
	"github.com/Mayank-Dandane/honeypot-api/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	port := flag.Int("port", 0, "Listen port (overrides HONEYPOT_PORT)")
	jsonLogs := flag.Bool("json-logs", false, "Write logs as JSON instead of console output")
	flag.Parse()

	if !*jsonLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if err := config.EnsureAll(); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure data directory, continuing with environment config")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port > 0 {
		cfg.Port = *port
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	svc, err := worker.NewService(Version, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}

	restart := make(chan struct{}, 1)
	startConfigWatcher(restart)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	os.Exit(serve(svc, sigCh, restart, shutdownTimeout))
}

// server is the part of the service lifecycle main drives.
type server interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until a signal, a settings change or a server error, then shuts it down
// gracefully. It returns the process exit code.
func serve(srv server, signals <-chan os.Signal, restart <-chan struct{}, timeout time.Duration) int {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	code := 0
	select {
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-restart:
		log.Warn().Str("path", config.SettingsPath()).Msg("Config file changed, shutting down for restart")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server error")
			code = 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Unclean shutdown")
		return 1
	}
	log.Info().Msg("Shutdown complete")
	return code
}

// startConfigWatcher signals restart when the settings file changes so the process can drain
// and exit for its supervisor to start it again with the new values.
func startConfigWatcher(restart chan<- struct{}) {
	configPath := config.SettingsPath()
	configWatcher, err := watcher.New(configPath, func() {
		select {
		case restart <- struct{}{}:
		default:
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher")
		return
	}
	if err := configWatcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher")
		return
	}
	log.Info().Str("path", configPath).Msg("Config file watcher started")
}
