// Package surface turns pointer gestures into annotations.
//
// A gesture is an explicit state machine: pointer-down records the anchor and
// enters Dragging, every pointer-move yields one provisional shape that
// replaces the previous one, and pointer-up yields the finished shape and
// returns to Idle. Nothing is committed before release.
package surface

import "github.com/menta2k/image-labeler/pkg/types"

// State of the gesture state machine
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Shape is a provisional or finished gesture in display coordinates
type Shape struct {
	Tool   types.Tool  `json:"tool"`
	Anchor types.Point `json:"anchor"`
	End    types.Point `json:"end"`
}

// Coordinates returns the two-corner tuple of the shape
func (s Shape) Coordinates() types.Coordinates {
	return types.Coordinates{s.Anchor.X, s.Anchor.Y, s.End.X, s.End.Y}
}

// Surface holds the gesture state and the selected tool
type Surface struct {
	state   State
	tool    types.Tool
	anchor  types.Point
	current types.Point
}

// New creates an idle surface with the Rectangle tool selected
func New() *Surface {
	return &Surface{tool: types.ToolRectangle}
}

// SetTool changes the tool used by subsequent gestures
func (s *Surface) SetTool(t types.Tool) {
	s.tool = t
}

// Tool returns the selected tool
func (s *Surface) Tool() types.Tool {
	return s.tool
}

// State returns the gesture state
func (s *Surface) State() State {
	return s.state
}

// Down starts a gesture at p. A second Down while dragging re-anchors.
func (s *Surface) Down(p types.Point) {
	s.state = Dragging
	s.anchor = p
	s.current = p
}

// Move updates the provisional shape. It reports false when no gesture is active.
func (s *Surface) Move(p types.Point) (Shape, bool) {
	if s.state != Dragging {
		return Shape{}, false
	}
	s.current = p
	return s.shape(), true
}

// Up finishes the gesture at p and returns to Idle.
// It reports false for a release without a matching Down.
func (s *Surface) Up(p types.Point) (Shape, bool) {
	if s.state != Dragging {
		return Shape{}, false
	}
	s.current = p
	shape := s.shape()
	s.state = Idle
	return shape, true
}

// Provisional returns the in-progress shape, if any
func (s *Surface) Provisional() (Shape, bool) {
	if s.state != Dragging {
		return Shape{}, false
	}
	return s.shape(), true
}

// Cancel abandons the gesture without producing a shape
func (s *Surface) Cancel() {
	s.state = Idle
}

func (s *Surface) shape() Shape {
	return Shape{Tool: s.tool, Anchor: s.anchor, End: s.current}
}

// Commit builds the annotation for a finished gesture.
// An empty label becomes "Unknown". Degenerate shapes are accepted.
func Commit(anchor, release types.Point, label string, tool types.Tool) types.Annotation {
	if label == "" {
		label = types.UnknownLabel
	}
	return types.Annotation{
		Label:       label,
		Type:        tool,
		Coordinates: types.Coordinates{anchor.X, anchor.Y, release.X, release.Y},
	}
}
