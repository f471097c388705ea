// Package viewport computes marker presentation from the visible map span.
//
// Everything here is a pure function of a latitudeDelta and a Config: no I/O,
// no shared state. Callers keep a State value and replace it on every
// region-change, select or deselect event.
package viewport

import (
	"errors"
	"fmt"
	"math"
)

// Config holds the interpolation bounds. Deltas are latitude spans in
// degrees, sizes are marker edge lengths in pixels.
type Config struct {
	MinDelta       float64
	MaxDelta       float64
	MinSize        float64
	MaxSize        float64
	LabelThreshold float64
}

func DefaultConfig() Config {
	return Config{
		MinDelta:       0.005,
		MaxDelta:       0.1,
		MinSize:        30,
		MaxSize:        60,
		LabelThreshold: 0.02,
	}
}

var ErrInvalidConfig = errors.New("invalid viewport config")

func (c Config) Validate() error {
	switch {
	case !(c.MinDelta > 0) || !(c.MaxDelta < math.Inf(1)):
		return fmt.Errorf("%w: deltas must be positive and finite", ErrInvalidConfig)
	case !(c.MinDelta < c.MaxDelta):
		return fmt.Errorf("%w: min delta %g must be below max delta %g", ErrInvalidConfig, c.MinDelta, c.MaxDelta)
	case !(c.MinSize > 0) || !(c.MaxSize < math.Inf(1)):
		return fmt.Errorf("%w: sizes must be positive and finite", ErrInvalidConfig)
	case c.MinSize > c.MaxSize:
		return fmt.Errorf("%w: min size %g exceeds max size %g", ErrInvalidConfig, c.MinSize, c.MaxSize)
	case !(c.LabelThreshold > 0):
		return fmt.Errorf("%w: label threshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// clampDelta bounds delta to [MinDelta, MaxDelta]. NaN counts as fully
// zoomed out.
func (c Config) clampDelta(delta float64) float64 {
	if math.IsNaN(delta) {
		return c.MaxDelta
	}
	return math.Min(math.Max(delta, c.MinDelta), c.MaxDelta)
}

// ZoomFraction returns 0 at maximum zoom-in and 1 at maximum zoom-out.
func ZoomFraction(c Config, delta float64) float64 {
	clamped := c.clampDelta(delta)
	return (clamped - c.MinDelta) / (c.MaxDelta - c.MinDelta)
}

// Size linearly interpolates the marker size from MaxSize (zoomed in) down to
// MinSize (zoomed out).
func Size(c Config, delta float64) float64 {
	f := ZoomFraction(c, delta)
	return c.MaxSize - f*(c.MaxSize-c.MinSize)
}

// LabelsVisible compares the raw, unclamped delta against the threshold.
func LabelsVisible(c Config, delta float64) bool {
	return delta < c.LabelThreshold
}

// Marker is a static map pin.
type Marker struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type MarkerView struct {
	Marker
	Size         float64 `json:"size"`
	LabelVisible bool    `json:"labelVisible"`
	Selected     bool    `json:"selected"`
}

// Frame is the full presentation for one viewport state.
type Frame struct {
	LatitudeDelta float64      `json:"latitudeDelta"`
	Size          float64      `json:"size"`
	LabelsVisible bool         `json:"labelsVisible"`
	SelectedID    string       `json:"selectedId,omitempty"`
	Markers       []MarkerView `json:"markers"`
}

// State is the presenter input: the last viewport span and the selection.
type State struct {
	LatitudeDelta float64
	Selection     Selection
}

// NewState starts unselected at the given span.
func NewState(delta float64) State {
	return State{LatitudeDelta: delta}
}

// OnRegionChange records a new span. Zooming out past the label threshold
// clears the selection.
func (s State) OnRegionChange(c Config, delta float64) State {
	return State{
		LatitudeDelta: delta,
		Selection:     s.Selection.OnRegionChange(c, delta),
	}
}

func (s State) Select(markerID string) State {
	s.Selection = s.Selection.Select(markerID)
	return s
}

func (s State) Deselect() State {
	s.Selection = s.Selection.Deselect()
	return s
}

// Presenter renders frames for a fixed marker list.
type Presenter struct {
	cfg     Config
	markers []Marker
}

func New(cfg Config, markers []Marker) *Presenter {
	cp := make([]Marker, len(markers))
	copy(cp, markers)
	return &Presenter{cfg: cfg, markers: cp}
}

func (p *Presenter) Config() Config {
	return p.cfg
}

func (p *Presenter) Frame(s State) Frame {
	size := Size(p.cfg, s.LatitudeDelta)
	visible := LabelsVisible(p.cfg, s.LatitudeDelta)
	selectedID, _ := s.Selection.MarkerID()

	views := make([]MarkerView, 0, len(p.markers))
	for _, m := range p.markers {
		selected := selectedID != "" && m.ID == selectedID
		views = append(views, MarkerView{
			Marker:       m,
			Size:         size,
			LabelVisible: visible || selected,
			Selected:     selected,
		})
	}

	return Frame{
		LatitudeDelta: s.LatitudeDelta,
		Size:          size,
		LabelsVisible: visible,
		SelectedID:    selectedID,
		Markers:       views,
	}
}
