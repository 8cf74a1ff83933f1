package motion

import "fmt"

// Point represents a position in work coordinates (cm)
type Point struct {
	X float64
	Y float64
}

// Add returns p+q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Path is an ordered list of target points. Every point of a Path produced
// by the parser lies inside the work area it was parsed against.
type Path []Point

// WorkArea is the reachable rectangle [0, Width] x [0, Height] in cm
type WorkArea struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Direction is the level latched on an axis direction line for a burst
type Direction uint8

const (
	Forward Direction = iota // Non-negative displacement, direction line high
	Reverse                  // Negative displacement, direction line low
)

// Level returns the logical level of the direction line
func (d Direction) Level() bool {
	return d == Forward
}

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "reverse"
}

// Axis identifies one of the two planar axes
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	NumAxes
)

var axisNames = [NumAxes]string{"x", "y"}

func (a Axis) String() string {
	if a < NumAxes {
		return axisNames[a]
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// ParseAxis maps an axis name ("x", "y") to its Axis
func ParseAxis(name string) (Axis, bool) {
	for i, n := range axisNames {
		if n == name {
			return Axis(i), true
		}
	}
	return 0, false
}
