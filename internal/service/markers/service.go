package markers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirinyoku/livechain-go/internal/domain"
	"github.com/kirinyoku/livechain-go/internal/viewport"
)

// PlaceLister supplies the static marker set.
type PlaceLister interface {
	ListPlaces(ctx context.Context) ([]domain.Place, error)
}

type Service struct {
	places PlaceLister
	cfg    viewport.Config
}

func New(places PlaceLister, cfg viewport.Config) *Service {
	return &Service{places: places, cfg: cfg}
}

// Config returns the presenter bounds the service renders with.
func (s *Service) Config() viewport.Config {
	return s.cfg
}

// Frame renders every place as a marker for the given viewport. A non-empty
// selected id is applied before the region change, so zooming out past the
// label threshold drops it. Ids that match no place are ignored.
func (s *Service) Frame(ctx context.Context, latitudeDelta float64, selected string) (viewport.Frame, error) {
	const op = "service.markers.Frame"

	ps, err := s.places.ListPlaces(ctx)
	if err != nil {
		return viewport.Frame{}, fmt.Errorf("%s: %w", op, err)
	}

	markers := make([]viewport.Marker, 0, len(ps))
	known := false
	selected = strings.TrimSpace(selected)
	for _, p := range ps {
		markers = append(markers, viewport.Marker{
			ID:        p.ID,
			Title:     p.Name,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		})
		if p.ID == selected {
			known = true
		}
	}

	state := viewport.NewState(latitudeDelta)
	if known {
		state = state.Select(selected)
	}
	state = state.OnRegionChange(s.cfg, latitudeDelta)

	return viewport.New(s.cfg, markers).Frame(state), nil
}
