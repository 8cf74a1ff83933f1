// Package expander drives output lines on an MCP23017 I2C port expander
package expander

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"

	"plasmacut/core"
)

// NumPins is the number of lines on one MCP23017
const NumPins = 16

// ErrInvalidPin is returned for pin numbers the chip does not have
var ErrInvalidPin = errors.New("expander: pin out of range 0-15")

// Expander is a GPIODriver backed by an MCP23017. Pin numbers are the
// chip's GPA0-GPA7 (0-7) and GPB0-GPB7 (8-15).
type Expander struct {
	dev *mcp23017.Device

	mu         sync.Mutex
	configured [NumPins]bool
	levels     [NumPins]bool
}

// New attaches to the chip at addr on bus
func New(bus drivers.I2C, addr uint8) (*Expander, error) {
	dev, err := mcp23017.NewI2C(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("expander: attach 0x%02x: %w", addr, err)
	}
	return &Expander{dev: dev}, nil
}

func (e *Expander) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= NumPins {
		return ErrInvalidPin
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.dev.Pin(int(pin))
	// Latch low before switching direction so the line never glitches high
	if err := p.Set(false); err != nil {
		return err
	}
	if err := p.SetMode(mcp23017.Output); err != nil {
		return err
	}
	e.configured[pin] = true
	e.levels[pin] = false
	return nil
}

func (e *Expander) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= NumPins {
		return ErrInvalidPin
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured[pin] {
		return core.ErrPinNotConfigured
	}
	if err := e.dev.Pin(int(pin)).Set(value); err != nil {
		return err
	}
	e.levels[pin] = value
	return nil
}

func (e *Expander) GetPin(pin core.GPIOPin) (bool, error) {
	if pin >= NumPins {
		return false, ErrInvalidPin
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured[pin] {
		return false, core.ErrPinNotConfigured
	}
	return e.levels[pin], nil
}
