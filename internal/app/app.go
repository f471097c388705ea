package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/livechain-go/internal/clock"
	"github.com/kirinyoku/livechain-go/internal/config"
	"github.com/kirinyoku/livechain-go/internal/postgres"
	"github.com/kirinyoku/livechain-go/internal/redis"
	postgresrepo "github.com/kirinyoku/livechain-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
	"github.com/kirinyoku/livechain-go/internal/service"
	"github.com/kirinyoku/livechain-go/internal/service/collection"
	"github.com/kirinyoku/livechain-go/internal/service/places"
	httpgin "github.com/kirinyoku/livechain-go/internal/transport/http/gin"
	"github.com/kirinyoku/livechain-go/migrations"
)

type App struct {
	cfg        *config.Config
	logger     zerolog.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	cache      *redisrepo.Cache
	pubsub     *redisrepo.CollectionPubSub
	feed       *collection.Feed
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	const op = "app.New"

	pool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Postgres.MigrateOnStart {
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: migrate: %w", op, err)
		}
		logger.Info().Msg("migrations applied")
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
	}

	var (
		limiter *redisrepo.SlidingWindowLimiter
		idem    *redisrepo.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		a.rdb = rdb
		a.cache = redisrepo.New(rdb)
		a.pubsub = redisrepo.NewCollectionPubSub(rdb)
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "acquire", cfg.Acquire.RateLimit, cfg.Acquire.RateWindow)
		idem = redisrepo.NewIdempotencyStore(rdb, cfg.Acquire.IdempotencyTTL)
	} else {
		logger.Warn().Msg("redis disabled: no caching, rate limiting or idempotency")
	}

	store := postgresrepo.NewStore(pool)

	services := service.NewServices(
		service.NewStores(store),
		a.cache,
		a.pubsub,
		limiter,
		clock.NewSystem(),
		service.Config{
			Places:     places.Config{PlacesTTL: cfg.Cache.PlacesTTL},
			Collection: collection.Config{CollectionTTL: cfg.Cache.CollectionTTL},
			Viewport:   cfg.Viewport,
		},
	)

	a.feed = services.Collection.Feed()

	router := httpgin.NewRouter(services, idem, logger, httpgin.RouterConfig{
		StaticDir:    cfg.Static.Dir,
		StaticPrefix: cfg.Static.Prefix,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().
			Str("host", a.cfg.Server.Host).
			Int("port", a.cfg.Server.Port).
			Msg("HTTP server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Every instance, this one included, announces acquisitions on the
	// channel; relay them to the event streams open here.
	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, func(_ context.Context, ev redisrepo.CollectionEvent) {
				a.logger.Debug().Str("user_id", ev.UserID).Str("nft_id", ev.NftID).Msg("collection event")
				a.feed.Publish(ev)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("collection subscriber: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info().Msg("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	a.pool.Close()
}
