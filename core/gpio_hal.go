package core

import "errors"

// GPIOPin identifies a hardware output pin number. Its meaning depends on
// the driver: a BCM number, an expander pin index, or an MCU pin id.
type GPIOPin uint32

// ErrPinNotConfigured is returned when a pin is written before it was
// configured as an output.
var ErrPinNotConfigured = errors.New("gpio: pin not configured as output")

// GPIODriver is the abstract output interface used by the engine.
// Backend-specific implementations handle the actual hardware.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output, initially low
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads back the last level driven on the pin
	GetPin(pin GPIOPin) (bool, error)
}
