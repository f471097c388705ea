package service

import (
	"github.com/kirinyoku/livechain-go/internal/clock"
	postgresrepo "github.com/kirinyoku/livechain-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
	"github.com/kirinyoku/livechain-go/internal/service/collection"
	"github.com/kirinyoku/livechain-go/internal/service/markers"
	"github.com/kirinyoku/livechain-go/internal/service/places"
	"github.com/kirinyoku/livechain-go/internal/viewport"
)

type Services struct {
	Places     *places.Service
	Collection *collection.Service
	Markers    *markers.Service
}

type Config struct {
	Places     places.Config
	Collection collection.Config
	Viewport   viewport.Config
}

// Stores groups the persistence the services read and write.
type Stores struct {
	Places       places.Store
	Collectibles collection.Store
}

// NewStores exposes the Postgres repositories through the service interfaces.
func NewStores(store *postgresrepo.Store) Stores {
	return Stores{
		Places:       store.Places(),
		Collectibles: store.Collectibles(),
	}
}

// NewServices wires the services. cache, pubsub and limiter may be nil when
// Redis is disabled; acquisitions then reach local streams directly.
func NewServices(
	stores Stores,
	cache *redisrepo.Cache,
	pubsub *redisrepo.CollectionPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	clk clock.Clock,
	cfg Config,
) *Services {
	placeSvc := places.New(stores.Places, cache, cfg.Places)

	return &Services{
		Places:     placeSvc,
		Collection: collection.New(stores.Collectibles, placeSvc, cache, pubsub, limiter, collection.NewFeed(), clk, cfg.Collection),
		Markers:    markers.New(placeSvc, cfg.Viewport),
	}
}
