package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/chainlens-app/chainlens/viewer/config"
	"github.com/chainlens-app/chainlens/viewer/explorer"
	"github.com/chainlens-app/chainlens/viewer/holdings"
	"github.com/chainlens-app/chainlens/viewer/networks"
	"github.com/chainlens-app/chainlens/viewer/rpc"
	"github.com/chainlens-app/chainlens/viewer/share"
	"github.com/chainlens-app/chainlens/viewer/view"
)

var log zerolog.Logger

func init() {
	// Initialize zerolog with console writer
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the other packages
	rpc.SetLogger(log)
	explorer.SetLogger(log)
	share.SetLogger(log)
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "config file for the viewer (TOML); env vars are used when empty")
	flag.Parse()

	log.Info().Str("config", *configPath).Msg("Starting chainlens viewer")

	// Load viewer configuration
	var pathArg *string
	if *configPath != "" {
		pathArg = configPath
	}
	cfg, err := config.LoadViewerConfig(pathArg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Load the network table
	registry, err := networks.LoadFromFile(cfg.NetworksFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load network table")
	}
	log.Info().Int("count", len(registry.All())).Msg("Loaded networks")

	// Build the pipeline
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	explorerClient := explorer.NewClient(registry, timeout)
	shareClient := share.NewClient(cfg.ShareBackendURL, timeout)
	resolver := share.NewResolver(shareClient)

	floor, err := decimal.NewFromString(cfg.HoldingsFloor)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid holdings floor")
	}
	ranker := holdings.NewRanker(floor)
	builder := view.NewBuilder(registry, ranker, nil)

	handler := rpc.NewHandler(explorerClient, builder, shareClient, resolver)

	// Create the HTTP server
	serverConfig := &rpc.ServerConfig{
		Address:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.EnableMetrics,
	}
	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	server := rpc.NewServer(serverConfig, handler)

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
