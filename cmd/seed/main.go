package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/kirinyoku/livechain-go/internal/config"
	"github.com/kirinyoku/livechain-go/internal/logging"
	"github.com/kirinyoku/livechain-go/internal/redis"
	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
	"github.com/kirinyoku/livechain-go/internal/seed"
)

func main() {
	file := flag.String("file", "places.json", "JSON array of places to upsert")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		logger := logging.New(logging.Config{})
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger, *file); err != nil {
		logger.Error().Err(err).Str("file", *file).Msg("seeding failed")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	places, err := seed.Load(f)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	n, err := seed.Apply(ctx, db, places)
	if err != nil {
		return err
	}
	logger.Info().Int("places", n).Str("file", file).Msg("places seeded")

	if !cfg.Redis.Enabled {
		return nil
	}

	// Running servers would otherwise serve the old rows until the TTL ends.
	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("place cache not invalidated")
		return nil
	}
	defer rdb.Close()

	ids := make([]string, 0, len(places))
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	if err := redisrepo.New(rdb).InvalidatePlaces(ctx, ids...); err != nil {
		logger.Warn().Err(err).Msg("place cache not invalidated")
	}

	return nil
}
