// Package main is the entry point for the Stellar Listen client process.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/audio"
	"github.com/edumarques81/stellar-listen/internal/config"
	"github.com/edumarques81/stellar-listen/internal/domain/accounts"
	"github.com/edumarques81/stellar-listen/internal/domain/favorites"
	"github.com/edumarques81/stellar-listen/internal/domain/listing"
	"github.com/edumarques81/stellar-listen/internal/domain/notify"
	"github.com/edumarques81/stellar-listen/internal/domain/playback"
	"github.com/edumarques81/stellar-listen/internal/domain/session"
	"github.com/edumarques81/stellar-listen/internal/domain/uploads"
	"github.com/edumarques81/stellar-listen/internal/infra/gateway"
	"github.com/edumarques81/stellar-listen/internal/infra/mpd"
	"github.com/edumarques81/stellar-listen/internal/infra/userstore"
	"github.com/edumarques81/stellar-listen/internal/logging"
	"github.com/edumarques81/stellar-listen/internal/transport/socketio"
	"github.com/edumarques81/stellar-listen/internal/version"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to a TOML config file (default: ./stellar-listen.toml or ~/.config/stellar-listen.toml)")
	port := flag.String("port", "", "HTTP server port (overrides config)")
	staticDir := flag.String("static", "", "Directory to serve static files from (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *staticDir != "" {
		cfg.Server.StaticDir = *staticDir
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Music Streaming Client")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", cfg.Server.Port).
		Str("gateway", cfg.Gateway.ResolvedBaseURL()).
		Str("storage", cfg.Storage.Path).
		Bool("audio", cfg.Audio.Enabled).
		Msg("Configuration")

	// Local user record
	users := userstore.New(cfg.Storage.Path)
	if err := users.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open user store")
	}
	defer users.Close()

	if u, ok := users.CurrentUser(); ok {
		log.Info().Str("user", u.Name).Msg("Logged in")
	} else {
		log.Info().Msg("No stored user, favorites are unavailable until signup")
	}

	// REST gateway
	gw := gateway.New(
		gateway.WithBaseURL(cfg.Gateway.ResolvedBaseURL()),
		gateway.WithTimeout(cfg.Gateway.Timeout()),
		gateway.WithUserAgent(cfg.Gateway.UserAgent),
	)
	defer gw.Close()

	// Domain services
	hub := notify.NewHub(notify.LogSink)
	store := session.NewStore()
	favs := favorites.NewRegistry(gw, hub)
	controller := playback.NewController(store, favs, users)
	lists := listing.NewSet(gw, store, favs, users, hub)
	accountService := accounts.NewService(gw, users, hub, accounts.WithFavorites(favs))
	uploadService := uploads.NewService(gw, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional audio output
	var output *audio.Output
	deps := socketio.Deps{
		Store:      store,
		Lists:      lists,
		Controller: controller,
		Favorites:  favs,
		Playlists:  gw,
		Notifier:   hub,
	}
	if cfg.Audio.Enabled {
		mpdClient := mpd.NewClient(cfg.Audio.MPDHost, cfg.Audio.MPDPort, cfg.Audio.MPDPassword)
		if err := mpdClient.Connect(); err != nil {
			// Commands reconnect on demand.
			log.Warn().Err(err).Str("addr", mpdClient.Addr()).Msg("MPD not reachable yet")
		} else {
			log.Info().Str("addr", mpdClient.Addr()).Msg("MPD connection verified")
		}
		defer mpdClient.Close()

		output = audio.NewOutput(mpdClient)
		output.Follow(store)
		defer output.Close()
		deps.Output = output
	}

	// Create Socket.io server
	socketServer, err := socketio.NewServer(deps, socketio.WithAllowedOrigins(cfg.Server.AllowedOrigins))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()
	hub.Attach(socketServer)

	// Warm the favorites mirror so hearts render on the first list.
	go func() {
		if _, ok := users.CurrentUser(); !ok {
			return
		}
		if err := favs.Load(ctx, users); err != nil {
			log.Warn().Err(err).Msg("Initial favorites load failed")
		}
	}()

	rt := &routes{
		store:     store,
		accounts:  accountService,
		uploads:   uploadService,
		gateway:   gw.BaseURL(),
		staticDir: cfg.Server.StaticDir,
	}
	if output != nil {
		rt.output = output
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      recovery(requestLogging(corsMiddleware(cfg.Server.AllowedOrigins, rt.mux(socketServer)))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}
