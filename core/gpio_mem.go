package core

import "sync"

// PinEvent records one write to a MemoryGPIO pin
type PinEvent struct {
	Pin   GPIOPin
	Value bool
	Time  uint64 // Clock value at the write, zero without a clock
}

// MemoryGPIO is an in-memory GPIODriver. It backs dry runs and tests and
// keeps a log of every write.
type MemoryGPIO struct {
	mu         sync.Mutex
	pins       map[GPIOPin]bool
	configured map[GPIOPin]bool
	events     []PinEvent
	clock      func() uint64
}

// NewMemoryGPIO creates an empty in-memory driver
func NewMemoryGPIO() *MemoryGPIO {
	return &MemoryGPIO{
		pins:       make(map[GPIOPin]bool),
		configured: make(map[GPIOPin]bool),
	}
}

// SetClock sets the time source stamped onto recorded events
func (m *MemoryGPIO) SetClock(clock func() uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func (m *MemoryGPIO) ConfigureOutput(pin GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MemoryGPIO) SetPin(pin GPIOPin, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured[pin] {
		return ErrPinNotConfigured
	}
	m.pins[pin] = value

	ev := PinEvent{Pin: pin, Value: value}
	if m.clock != nil {
		ev.Time = m.clock()
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryGPIO) GetPin(pin GPIOPin) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured[pin] {
		return false, ErrPinNotConfigured
	}
	return m.pins[pin], nil
}

// Events returns a copy of the write log for one pin
func (m *MemoryGPIO) Events(pin GPIOPin) []PinEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PinEvent
	for _, ev := range m.events {
		if ev.Pin == pin {
			out = append(out, ev)
		}
	}
	return out
}

// Transitions counts level changes on a pin, ignoring repeated writes of
// the same level. Configuration leaves the pin low.
func (m *MemoryGPIO) Transitions(pin GPIOPin) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	level := false
	n := 0
	for _, ev := range m.events {
		if ev.Pin != pin {
			continue
		}
		if ev.Value != level {
			n++
			level = ev.Value
		}
	}
	return n
}

// RisingEdges counts low-to-high changes on a pin
func (m *MemoryGPIO) RisingEdges(pin GPIOPin) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	level := false
	n := 0
	for _, ev := range m.events {
		if ev.Pin != pin {
			continue
		}
		if ev.Value && !level {
			n++
		}
		level = ev.Value
	}
	return n
}

// ClearEvents drops the write log, keeping pin levels
func (m *MemoryGPIO) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
