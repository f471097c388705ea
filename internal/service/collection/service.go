package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kirinyoku/livechain-go/internal/clock"
	"github.com/kirinyoku/livechain-go/internal/domain"
	"github.com/kirinyoku/livechain-go/internal/repository"
	redisrepo "github.com/kirinyoku/livechain-go/internal/repository/redis"
	"github.com/kirinyoku/livechain-go/internal/service/places"
)

// Store persists collectible records.
type Store interface {
	CreateCollectible(ctx context.Context, rec domain.CollectibleRecord) (*domain.CollectibleRecord, error)
	ListCollectiblesForUser(ctx context.Context, userID string) ([]domain.CollectionEntry, error)
}

// PlaceLookup resolves the place an acquisition points at.
type PlaceLookup interface {
	GetPlace(ctx context.Context, id string) (*domain.Place, error)
}

type Config struct {
	CollectionTTL time.Duration
}

// AcquireRequest carries the client-supplied acquire fields. UserID is an
// opaque token and is stored exactly as given.
type AcquireRequest struct {
	UserID   string
	PlaceID  string
	Label    string
	ImageURL string
}

type Service struct {
	store   Store
	places  PlaceLookup
	cache   *redisrepo.Cache
	pubsub  *redisrepo.CollectionPubSub
	limiter *redisrepo.SlidingWindowLimiter
	feed    *Feed
	clock   clock.Clock
	newID   func() (uuid.UUID, error)
	cfg     Config
}

// New builds the service. cache, pubsub, limiter and feed are optional.
func New(
	store Store,
	lookup PlaceLookup,
	cache *redisrepo.Cache,
	pubsub *redisrepo.CollectionPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	feed *Feed,
	clk clock.Clock,
	cfg Config,
) *Service {
	if cfg.CollectionTTL <= 0 {
		cfg.CollectionTTL = 15 * time.Second
	}

	if clk == nil {
		clk = clock.NewSystem()
	}

	return &Service{
		store:   store,
		places:  lookup,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		feed:    feed,
		clock:   clk,
		newID:   uuid.NewV7,
		cfg:     cfg,
	}
}

// Acquire creates a new collectible record for the user.
//
// Parameters:
//   - ctx: request-scoped context.
//   - req: user, place, label and image of the collectible; all required.
//
// Returns:
//   - *domain.CollectibleRecord: the stored record with its generated id.
//   - error: collection.ValidationError if a required field is blank.
//   - error: collection.ErrUnknownPlace if the place does not exist.
//   - error: collection.RateLimitError if the user exceeded the acquire limit.
func (s *Service) Acquire(ctx context.Context, req AcquireRequest) (*domain.CollectibleRecord, error) {
	const op = "service.collection.Acquire"

	req.PlaceID = strings.TrimSpace(req.PlaceID)
	req.Label = strings.TrimSpace(req.Label)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if err := validate(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.places.GetPlace(ctx, req.PlaceID); err != nil {
		if errors.Is(err, places.ErrPlaceNotFound) {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownPlace, req.PlaceID)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec, err := s.create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec, nil
}

// AcquireByScan acquires the collectible bound to a scanned place code. The
// place's own name and hero image become the collectible's label and image.
//
// Returns:
//   - *domain.CollectibleRecord: the stored record.
//   - error: places.ErrPlaceNotFound if the scanned id is unknown.
func (s *Service) AcquireByScan(ctx context.Context, userID, placeID string) (*domain.CollectibleRecord, error) {
	const op = "service.collection.AcquireByScan"

	placeID = strings.TrimSpace(placeID)
	var missing []string
	if strings.TrimSpace(userID) == "" {
		missing = append(missing, "userId")
	}
	if placeID == "" {
		missing = append(missing, "placeId")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w", op, ValidationError{Fields: missing})
	}

	p, err := s.places.GetPlace(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req := AcquireRequest{
		UserID:   userID,
		PlaceID:  p.ID,
		Label:    strings.TrimSpace(p.Name),
		ImageURL: strings.TrimSpace(p.ImageURL),
	}
	if err := validate(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec, err := s.create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec, nil
}

// create stores a validated request whose place was just resolved. The limiter
// fails open: a Redis error lets the acquire through.
func (s *Service) create(ctx context.Context, req AcquireRequest) (*domain.CollectibleRecord, error) {
	if s.limiter != nil {
		ok, _, retry, err := s.limiter.Allow(ctx, "user:"+req.UserID)
		switch {
		case err != nil:
			zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", req.UserID).Msg("acquire rate limiter unavailable")
		case !ok:
			return nil, RateLimitError{RetryAfter: retry}
		}
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	rec, err := s.store.CreateCollectible(ctx, domain.CollectibleRecord{
		ID:         id.String(),
		UserID:     req.UserID,
		PlaceID:    req.PlaceID,
		Label:      req.Label,
		ImageURL:   req.ImageURL,
		AcquiredAt: s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrPlaceReference) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlace, req.PlaceID)
		}
		return nil, err
	}

	s.announce(ctx, rec)

	return rec, nil
}

// announce runs after the record is committed, so its failures are logged and
// never turn the acquire into an error.
func (s *Service) announce(ctx context.Context, rec *domain.CollectibleRecord) {
	logger := zerolog.Ctx(ctx)

	if s.cache != nil {
		if err := s.cache.InvalidateUserCollection(ctx, rec.UserID); err != nil {
			logger.Warn().Err(err).Str("user_id", rec.UserID).Msg("collection cache invalidation failed")
		}
	}

	ev := redisrepo.AcquiredEvent(rec.UserID, rec.PlaceID, rec.ID, rec.AcquiredAt)
	if s.pubsub != nil {
		err := s.pubsub.Publish(ctx, ev)
		if err == nil {
			return
		}
		logger.Warn().Err(err).Str("user_id", rec.UserID).Msg("collection event publish failed")
	}
	if s.feed != nil {
		s.feed.Publish(ev)
	}
}

// ListUserCollection returns the user's collectibles, newest first. Entries
// whose place is gone keep a nil PlaceName.
func (s *Service) ListUserCollection(ctx context.Context, userID string) ([]domain.CollectionEntry, error) {
	const op = "service.collection.ListUserCollection"

	load := func(ctx context.Context) ([]domain.CollectionEntry, error) {
		return s.store.ListCollectiblesForUser(ctx, userID)
	}

	var (
		entries []domain.CollectionEntry
		err     error
	)
	if s.cache != nil {
		entries, err = s.cachedCollection(ctx, userID, load)
	} else {
		entries, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

func (s *Service) cachedCollection(
	ctx context.Context,
	userID string,
	load func(ctx context.Context) ([]domain.CollectionEntry, error),
) ([]domain.CollectionEntry, error) {
	gen, err := s.cache.UserCollectionGeneration(ctx, userID)
	if err != nil {
		return load(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyUserCollection(userID, gen), s.cfg.CollectionTTL, load)
}

// Feed returns the in-process event fan-out, nil when none was configured.
func (s *Service) Feed() *Feed {
	return s.feed
}

func validate(req AcquireRequest) error {
	var missing []string
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "userId")
	}
	if req.PlaceID == "" {
		missing = append(missing, "placeId")
	}
	if req.Label == "" {
		missing = append(missing, "nftName")
	}
	if req.ImageURL == "" {
		missing = append(missing, "imageUrl")
	}
	if len(missing) > 0 {
		return ValidationError{Fields: missing}
	}
	return nil
}
