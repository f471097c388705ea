package main

import (
	"context"
	"os"

	_ "github.com/kirinyoku/livechain-go/docs"
	"github.com/kirinyoku/livechain-go/internal/app"
	"github.com/kirinyoku/livechain-go/internal/config"
	"github.com/kirinyoku/livechain-go/internal/logging"
)

// @title LiveChain API
// @version 1.0
// @description Places, marker presentation and location-bound NFT collections.
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.New()
	if err != nil {
		logger := logging.New(logging.Config{})
		logger.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create application")
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("application finished with error")
		os.Exit(1)
	}
}
