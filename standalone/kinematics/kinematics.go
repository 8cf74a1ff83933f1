package kinematics

import (
	"math"

	"plasmacut/standalone/motion"
)

// Within reports whether p lies inside the work area. Edges are inside,
// NaN coordinates are not.
func Within(p motion.Point, area motion.WorkArea) bool {
	return p.X >= 0 && p.X <= area.Width &&
		p.Y >= 0 && p.Y <= area.Height
}

// StepsFor converts a signed displacement (cm) into a direction and a step
// count rounded to the nearest step.
func StepsFor(delta, stepsPerCM float64) (motion.Direction, uint32) {
	dir := motion.Forward
	if delta < 0 {
		dir = motion.Reverse
		delta = -delta
	}
	return dir, uint32(math.Round(delta * stepsPerCM))
}

// AxisMove is the step work for one axis between two points
type AxisMove struct {
	Direction motion.Direction
	Steps     uint32
}
