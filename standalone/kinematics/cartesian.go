package kinematics

import (
	"errors"
	"fmt"

	"plasmacut/standalone/config"
	"plasmacut/standalone/motion"
)

// ErrOutOfBounds is returned for a target outside the work area
var ErrOutOfBounds = errors.New("kinematics: position outside work area")

// Cartesian implements the plasma table's 1:1 XY mapping: each axis moves
// independently by its own steps per cm.
type Cartesian struct {
	area       motion.WorkArea
	stepsPerCM [motion.NumAxes]float64
}

// NewCartesian creates a new Cartesian kinematics instance
func NewCartesian(cfg *config.MachineConfig) (*Cartesian, error) {
	k := &Cartesian{area: cfg.WorkArea}
	for axis := motion.AxisX; axis < motion.NumAxes; axis++ {
		ac, ok := cfg.Axes[axis.String()]
		if !ok {
			return nil, fmt.Errorf("kinematics: %s axis not configured", axis)
		}
		if !(ac.StepsPerCM > 0) {
			return nil, fmt.Errorf("kinematics: %s axis steps_per_cm must be positive", axis)
		}
		k.stepsPerCM[axis] = ac.StepsPerCM
	}
	return k, nil
}

// CheckLimits validates that a position is within the work area
func (k *Cartesian) CheckLimits(p motion.Point) error {
	if !Within(p, k.area) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, p)
	}
	return nil
}

// Move returns the per-axis step work to travel from one point to another
func (k *Cartesian) Move(from, to motion.Point) [motion.NumAxes]AxisMove {
	d := to.Sub(from)
	var moves [motion.NumAxes]AxisMove
	moves[motion.AxisX].Direction, moves[motion.AxisX].Steps = StepsFor(d.X, k.stepsPerCM[motion.AxisX])
	moves[motion.AxisY].Direction, moves[motion.AxisY].Steps = StepsFor(d.Y, k.stepsPerCM[motion.AxisY])
	return moves
}

// Distance converts a step count on an axis back to cm
func (k *Cartesian) Distance(axis motion.Axis, steps int64) float64 {
	return float64(steps) / k.stepsPerCM[axis]
}
