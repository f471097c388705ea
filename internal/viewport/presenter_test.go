package viewport

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMarkers = []Marker{
	{ID: "p1", Title: "Former Ito Den'emon Residence", Latitude: 33.655, Longitude: 130.6845},
	{ID: "p2", Title: "Kaho Theater", Latitude: 33.6426, Longitude: 130.6911},
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "zero min delta", mutate: func(c *Config) { c.MinDelta = 0 }},
		{name: "inverted deltas", mutate: func(c *Config) { c.MinDelta, c.MaxDelta = 0.2, 0.1 }},
		{name: "equal deltas", mutate: func(c *Config) { c.MaxDelta = c.MinDelta }},
		{name: "infinite max delta", mutate: func(c *Config) { c.MaxDelta = math.Inf(1) }},
		{name: "inverted sizes", mutate: func(c *Config) { c.MinSize, c.MaxSize = 70, 60 }},
		{name: "nan max size", mutate: func(c *Config) { c.MaxSize = math.NaN() }},
		{name: "zero threshold", mutate: func(c *Config) { c.LabelThreshold = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSizeClampsToBounds(t *testing.T) {
	cfg := DefaultConfig()

	for _, d := range []float64{-1, 0, 0.001, 0.005} {
		assert.Equal(t, cfg.MaxSize, Size(cfg, d), "delta %g", d)
	}
	for _, d := range []float64{0.1, 0.2, 45, math.Inf(1), math.NaN()} {
		assert.Equal(t, cfg.MinSize, Size(cfg, d), "delta %g", d)
	}
	assert.Equal(t, cfg.MaxSize, Size(cfg, math.Inf(-1)))
}

func TestSizeInterpolatesLinearly(t *testing.T) {
	cfg := DefaultConfig()
	mid := (cfg.MinDelta + cfg.MaxDelta) / 2

	assert.InDelta(t, 45.0, Size(cfg, mid), 1e-9)
	assert.InDelta(t, 0.5, ZoomFraction(cfg, mid), 1e-9)
}

func TestSizeIsMonotonicallyNonIncreasing(t *testing.T) {
	cfg := DefaultConfig()

	prev := Size(cfg, 0)
	for d := 0.0; d <= 0.15; d += 0.0005 {
		got := Size(cfg, d)
		require.LessOrEqual(t, got, prev, "delta %g", d)
		require.GreaterOrEqual(t, got, cfg.MinSize)
		require.LessOrEqual(t, got, cfg.MaxSize)
		prev = got
	}
}

func TestLabelsVisibleUsesRawDelta(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, LabelsVisible(cfg, 0.0001))
	assert.True(t, LabelsVisible(cfg, 0.0199))
	assert.False(t, LabelsVisible(cfg, 0.02))
	assert.False(t, LabelsVisible(cfg, 0.5))
	assert.False(t, LabelsVisible(cfg, math.NaN()))

	// Threshold above MaxDelta: size saturates but labels keep following the raw span.
	cfg.LabelThreshold = 0.3
	assert.Equal(t, cfg.MinSize, Size(cfg, 0.2))
	assert.True(t, LabelsVisible(cfg, 0.2))
	assert.False(t, LabelsVisible(cfg, 0.3))
}

func TestFrameIsDeterministic(t *testing.T) {
	p := New(DefaultConfig(), testMarkers)
	s := NewState(0.013).Select("p2")

	assert.Equal(t, p.Frame(s), p.Frame(s))
}

func TestFrameWithoutSelection(t *testing.T) {
	p := New(DefaultConfig(), testMarkers)

	zoomedIn := p.Frame(NewState(0.01))
	assert.True(t, zoomedIn.LabelsVisible)
	require.Len(t, zoomedIn.Markers, 2)
	for _, m := range zoomedIn.Markers {
		assert.True(t, m.LabelVisible)
		assert.False(t, m.Selected)
		assert.Equal(t, zoomedIn.Size, m.Size)
	}

	zoomedOut := p.Frame(NewState(0.05))
	assert.False(t, zoomedOut.LabelsVisible)
	for _, m := range zoomedOut.Markers {
		assert.False(t, m.LabelVisible)
	}
}

func TestSelectionForcesOwnLabel(t *testing.T) {
	cfg := DefaultConfig()
	p := New(cfg, testMarkers)

	// Labels are hidden at 0.05; selecting p1 keeps only its label visible.
	s := NewState(0.05).Select("p1")
	f := p.Frame(s)

	assert.False(t, f.LabelsVisible)
	assert.Equal(t, "p1", f.SelectedID)
	assert.True(t, f.Markers[0].LabelVisible)
	assert.True(t, f.Markers[0].Selected)
	assert.False(t, f.Markers[1].LabelVisible)
}

func TestSelectionStateMachine(t *testing.T) {
	cfg := DefaultConfig()

	var sel Selection
	assert.Equal(t, Unselected, sel.State())

	sel = sel.Select("p1")
	assert.Equal(t, Selected, sel.State())
	id, ok := sel.MarkerID()
	assert.True(t, ok)
	assert.Equal(t, "p1", id)

	// Zooming within the label range keeps the selection.
	sel = sel.OnRegionChange(cfg, 0.01)
	assert.Equal(t, Selected, sel.State())

	// Zooming out past the threshold clears it.
	sel = sel.OnRegionChange(cfg, 0.02)
	assert.Equal(t, Unselected, sel.State())
	_, ok = sel.MarkerID()
	assert.False(t, ok)

	sel = sel.Select("p2").Deselect()
	assert.Equal(t, Unselected, sel.State())

	assert.Equal(t, Unselected, sel.Select("").State())
}

func TestStateRegionChangeClearsSelection(t *testing.T) {
	cfg := DefaultConfig()
	p := New(cfg, testMarkers)

	s := NewState(0.01).Select("p2")
	s = s.OnRegionChange(cfg, 0.08)

	f := p.Frame(s)
	assert.Empty(t, f.SelectedID)
	for _, m := range f.Markers {
		assert.False(t, m.LabelVisible)
	}

	// Zooming back in does not restore the old selection.
	s = s.OnRegionChange(cfg, 0.01)
	assert.Equal(t, Unselected, s.Selection.State())
}

func TestNewCopiesMarkers(t *testing.T) {
	markers := []Marker{{ID: "p1"}}
	p := New(DefaultConfig(), markers)
	markers[0].ID = "changed"

	assert.Equal(t, "p1", p.Frame(NewState(0.01)).Markers[0].ID)
}
