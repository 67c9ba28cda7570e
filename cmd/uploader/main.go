package main

import (
	"context"
	"flag"
	"os"

	"github.com/WandernGeo/wandern-arweave-uploader/uploader"
	"github.com/rs/zerolog"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", "arweave-uploader").Logger().
		Level(level)

	logger.Info().Str("version", version).Str("commit", commit).Msg("starting")

	ctx := context.Background()
	cfg, err := uploader.LoadConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := uploader.NewPostgresStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database pool")
	}
	defer store.Close()

	srv := uploader.NewServer(cfg,
		store,
		uploader.NewModerationClient(cfg.ModerationAgentURL, logger),
		uploader.NewIrysClient(cfg.IrysNodeURL, cfg.ArweaveWalletKey, logger),
		logger)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
