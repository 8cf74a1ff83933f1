// Package serial opens the USB/UART link to an output bridge
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is an open serial link
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port settings
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate. USB CDC links ignore it.
	Baud int

	// ReadTimeout bounds a single Read; zero blocks
	ReadTimeout time.Duration
}

// DefaultConfig returns settings for device at the bridge's usual rate
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Open opens the port described by cfg
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("serial: config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, errors.New("serial: no device given")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	if cfg.ReadTimeout > 0 {
		return timeoutPort{port}, nil
	}
	return port, nil
}

// timeoutPort reports an expired read timeout as an empty read. The
// underlying file returns io.EOF, which would otherwise look like a
// closed link.
type timeoutPort struct {
	*serial.Port
}

func (p timeoutPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}
