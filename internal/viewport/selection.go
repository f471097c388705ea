package viewport

type SelectionState uint8

const (
	Unselected SelectionState = iota
	Selected
)

func (s SelectionState) String() string {
	switch s {
	case Selected:
		return "selected"
	default:
		return "unselected"
	}
}

// Selection forces one marker's label visible. The zero value is Unselected.
type Selection struct {
	state    SelectionState
	markerID string
}

func (s Selection) State() SelectionState {
	return s.state
}

// MarkerID returns the selected marker, if any.
func (s Selection) MarkerID() (string, bool) {
	if s.state != Selected {
		return "", false
	}
	return s.markerID, true
}

// Select moves to Selected. An empty id is a deselect.
func (s Selection) Select(markerID string) Selection {
	if markerID == "" {
		return Selection{}
	}
	return Selection{state: Selected, markerID: markerID}
}

// Deselect handles a tap on the map background.
func (s Selection) Deselect() Selection {
	return Selection{}
}

// OnRegionChange drops the selection once the span reaches the label
// threshold.
func (s Selection) OnRegionChange(c Config, delta float64) Selection {
	if s.state == Selected && !LabelsVisible(c, delta) {
		return Selection{}
	}
	return s
}
