package places

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/livechain-go/internal/domain"
	"github.com/kirinyoku/livechain-go/internal/repository"
	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
)

// Store is the read side of the place table.
type Store interface {
	ListPlaces(ctx context.Context) ([]domain.Place, error)
	GetPlace(ctx context.Context, id string) (*domain.Place, error)
}

type Config struct {
	PlacesTTL time.Duration
}

type Service struct {
	store Store
	cache *redisrepo.Cache
	cfg   Config
}

// New builds the service. cache may be nil, in which case every call reads
// the store.
func New(store Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.PlacesTTL <= 0 {
		cfg.PlacesTTL = 60 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// ListPlaces returns all places with their preview images decoded.
func (s *Service) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	const op = "service.places.ListPlaces"

	load := func(ctx context.Context) ([]domain.Place, error) {
		return s.store.ListPlaces(ctx)
	}

	var (
		places []domain.Place
		err    error
	)
	if s.cache != nil {
		places, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyPlaces(), s.cfg.PlacesTTL, load)
	} else {
		places, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return places, nil
}

// GetPlace retrieves a place by its ID.
//
// Returns:
//   - *domain.Place: the place, preview images as an ordered list.
//   - error: places.ErrPlaceNotFound if the id is unknown.
func (s *Service) GetPlace(ctx context.Context, id string) (*domain.Place, error) {
	const op = "service.places.GetPlace"

	load := func(ctx context.Context) (domain.Place, error) {
		p, err := s.store.GetPlace(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Place{}, ErrPlaceNotFound
			}
			return domain.Place{}, err
		}
		return *p, nil
	}

	var (
		place domain.Place
		err   error
	)
	if s.cache != nil {
		place, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyPlace(id), s.cfg.PlacesTTL, load)
	} else {
		place, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &place, nil
}

// TicketQuote is what a ticket for a place would cost.
type TicketQuote struct {
	PlaceID     string `json:"placeId"`
	TicketPrice int    `json:"ticketPrice"`
}

// QuoteTicket resolves the ticket price for a place. Payment is not wired, so
// the quote is as far as a purchase goes.
//
// Returns:
//   - *TicketQuote: place id and price.
//   - error: places.ErrPlaceNotFound if the id is unknown.
//   - error: places.ErrNotPurchasable if the place has no ticket price.
func (s *Service) QuoteTicket(ctx context.Context, id string) (*TicketQuote, error) {
	const op = "service.places.QuoteTicket"

	p, err := s.GetPlace(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !p.Purchasable() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotPurchasable)
	}

	return &TicketQuote{PlaceID: p.ID, TicketPrice: *p.TicketPrice}, nil
}
