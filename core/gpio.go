// Digital output lines.
// A DigitalOut binds a logical level to a driver pin, handling inversion
// and a default (safe) level used on shutdown.
package core

import "errors"

// DigitalOut flags
const (
	DF_ON         = 1 << 0 // Current logical state (1=on, 0=off)
	DF_INVERT     = 1 << 1 // Physical level is the inverse of the logical state
	DF_DEFAULT_ON = 1 << 3 // Default state for shutdown
)

// DigitalOut represents a configured output line
type DigitalOut struct {
	Name  string  // Line name for diagnostics ("x.step", "relay", ...)
	Pin   GPIOPin // Hardware pin
	Flags uint8   // State flags (DF_*)

	driver GPIODriver
}

// NewDigitalOut configures pin as an output on driver and drives it to its
// default level.
func NewDigitalOut(driver GPIODriver, name string, pin GPIOPin, invert, defaultOn bool) (*DigitalOut, error) {
	out := &DigitalOut{
		Name:   name,
		Pin:    pin,
		driver: driver,
	}
	if invert {
		out.Flags |= DF_INVERT
	}
	if defaultOn {
		out.Flags |= DF_DEFAULT_ON
	}

	if err := driver.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := out.Set(defaultOn); err != nil {
		return nil, err
	}
	return out, nil
}

// Set drives the line to a logical level. The cached state only changes
// when the driver accepted the write.
func (o *DigitalOut) Set(on bool) error {
	level := on
	if (o.Flags & DF_INVERT) != 0 {
		level = !level
	}
	if err := o.driver.SetPin(o.Pin, level); err != nil {
		return err
	}
	if on {
		o.Flags |= DF_ON
	} else {
		o.Flags &^= DF_ON
	}
	return nil
}

// IsOn returns the logical state last driven
func (o *DigitalOut) IsOn() bool {
	return (o.Flags & DF_ON) != 0
}

// Shutdown returns the line to its default state
func (o *DigitalOut) Shutdown() error {
	return o.Set((o.Flags & DF_DEFAULT_ON) != 0)
}

// ShutdownAll returns every line to its default state. All lines are
// attempted even when some writes fail.
func ShutdownAll(outs ...*DigitalOut) error {
	var errs []error
	for _, out := range outs {
		if out == nil {
			continue
		}
		if err := out.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
