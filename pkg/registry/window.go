package registry

import (
	"encoding/json"
	"fmt"
	"math"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
)

// DefaultWindowSize is the pixel size given to windows registered without one.
var DefaultWindowSize = Size{W: 200, H: 200}

// Size is a pixel width and height.
type Size struct {
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// IsZero reports whether s is the zero size.
func (s Size) IsZero() bool { return s.W == 0 && s.H == 0 }

// State is the stored geometry of a window.
type State struct {
	Pos  placement.Point `json:"pos" bson:"pos"`
	Size Size            `json:"size" bson:"size"`
}

// Window is a registered window.
type Window struct {
	ID string `json:"id"`
	State
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Pos  *placement.Point `json:"pos,omitempty"`
	Size *Size            `json:"size,omitempty"`
}

// Request says where a new window wants to go.
type Request struct {
	// Cell is the requested cell when Auto is false.
	Cell int
	// Auto asks the placement engine to choose the cell.
	Auto bool
	// Footprint is the window size in cells for automatic placement.
	// Zero means 1.
	Footprint int
}

// At requests an explicit cell. If the cell is taken the window goes to the
// lowest free cell instead.
func At(cell int) Request { return Request{Cell: cell} }

// AutoPlace requests automatic placement of a footprint×footprint window.
func AutoPlace(footprint int) Request { return Request{Auto: true, Footprint: footprint} }

func (r Request) footprint() int {
	if r.Footprint == 0 {
		return 1
	}
	return r.Footprint
}

// String implements fmt.Stringer.
func (r Request) String() string {
	if r.Auto {
		return fmt.Sprintf("auto(%d)", r.footprint())
	}
	return fmt.Sprintf("cell(%d)", r.Cell)
}

// Entry is one window in a [Snapshot].
type Entry struct {
	ID    string
	State State
}

// MarshalJSON encodes the entry as an [id, state] pair.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ID, e.State})
}

// UnmarshalJSON decodes an [id, state] pair.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("window entry: want [id, state], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return fmt.Errorf("window entry id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.State); err != nil {
		return fmt.Errorf("window entry %q: %w", e.ID, err)
	}
	return nil
}

// Snapshot is the persisted form of a registry.
type Snapshot []Entry

// Windows returns the snapshot as windows.
func (s Snapshot) Windows() []Window {
	out := make([]Window, len(s))
	for i, e := range s {
		out[i] = Window{ID: e.ID, State: e.State}
	}
	return out
}

func validatePoint(p placement.Point) error {
	if !finite(p.X) || !finite(p.Y) {
		return perrors.New(perrors.ErrCodeInvalidArgument, "position must be finite, got (%g, %g)", p.X, p.Y)
	}
	return nil
}

func validateSize(s Size) error {
	if !finite(s.W) || !finite(s.H) || s.W <= 0 || s.H <= 0 {
		return perrors.New(perrors.ErrCodeInvalidArgument, "size must be positive, got %gx%g", s.W, s.H)
	}
	return nil
}

func validateState(s State) error {
	if err := validatePoint(s.Pos); err != nil {
		return err
	}
	return validateSize(s.Size)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
