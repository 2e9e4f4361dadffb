package types

import "fmt"

// UnknownLabel is used when no label is selected at commit time
const UnknownLabel = "Unknown"

// Tool is the annotation shape variant selected in the palette
type Tool string

const (
	ToolPoint     Tool = "Point"
	ToolRectangle Tool = "Rectangle"
	ToolCircle    Tool = "Circle"
	ToolPolygon   Tool = "Polygon"
)

// Tools returns the palette in display order
func Tools() []Tool {
	return []Tool{ToolPoint, ToolRectangle, ToolCircle, ToolPolygon}
}

// ParseTool converts a palette name into a Tool
func ParseTool(s string) (Tool, error) {
	for _, t := range Tools() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool: %q", s)
}

// Point is a pixel position on the drawing surface
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Coordinates holds start x, start y, end x, end y
type Coordinates [4]float64

// Annotation is a single labeled region attached to one image
type Annotation struct {
	Label       string      `json:"label"`
	Type        Tool        `json:"type"`
	Coordinates Coordinates `json:"coordinates"`
}

// Describe renders the annotation the way it is shown in the annotation list
func (a Annotation) Describe() string {
	c := a.Coordinates
	return fmt.Sprintf("%s - %s: %g, %g, %g, %g", a.Label, a.Type, c[0], c[1], c[2], c[3])
}

// Size is a bitmap size in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
