// Package bridge drives output lines through a microcontroller on a
// serial link. Bridge is the host side and implements core.GPIODriver;
// Device is the firmware side and can run on any GPIODriver.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"plasmacut/core"
	"plasmacut/host/serial"
	"plasmacut/protocol"
)

const (
	identifyChunk = 40
	maxOIDs       = 64
)

// ErrTooManyPins is returned once every object id is in use
var ErrTooManyPins = errors.New("bridge: out of object ids")

// Option configures a Bridge
type Option func(*Bridge)

// WithTimeout bounds each command round trip
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.timeout = d
	}
}

// WithLogger sets the logger used for link diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// Bridge is a GPIODriver whose pins live on a bridge device.
//
// Every ConfigureOutput and SetPin is an acknowledged round trip that
// blocks its caller, normally the engine loop, for up to the WithTimeout
// bound. A stalled link stalls step generation and the path cadence for
// that long, so the bridge suits slow step periods only.
type Bridge struct {
	client  *protocol.Client
	dict    *Dictionary
	timeout time.Duration
	log     *slog.Logger

	cmdConfig uint32
	cmdUpdate uint32

	mu     sync.Mutex
	oids   map[core.GPIOPin]uint8
	levels map[core.GPIOPin]bool
}

// Dial opens the serial port in cfg and connects to the bridge on it
func Dial(cfg *serial.Config, opts ...Option) (*Bridge, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return New(port, opts...)
}

// New connects over an open link and fetches the device dictionary. The
// bridge owns port and closes it on failure.
func New(port io.ReadWriteCloser, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		client:  protocol.NewClient(port),
		timeout: 2 * time.Second,
		log:     slog.New(slog.DiscardHandler),
		oids:    make(map[core.GPIOPin]uint8),
		levels:  make(map[core.GPIOPin]bool),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.identify(); err != nil {
		_ = b.client.Close()
		return nil, err
	}

	var ok bool
	if b.cmdConfig, ok = b.dict.CommandID("config_digital_out"); !ok {
		_ = b.client.Close()
		return nil, errors.New("bridge: device lacks config_digital_out")
	}
	if b.cmdUpdate, ok = b.dict.CommandID("update_digital_out"); !ok {
		_ = b.client.Close()
		return nil, errors.New("bridge: device lacks update_digital_out")
	}

	b.log.Info("bridge connected", "version", b.dict.Version, "commands", len(b.dict.Commands))
	return b, nil
}

// Dictionary returns the dictionary reported by the device
func (b *Bridge) Dictionary() *Dictionary {
	return b.dict
}

// identify pulls the dictionary in chunks until a short chunk arrives
func (b *Bridge) identify() error {
	var blob []byte
	for {
		chunk, err := b.identifyChunk(uint32(len(blob)))
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", len(blob), err)
		}
		blob = append(blob, chunk...)
		if len(chunk) < identifyChunk {
			break
		}
	}
	b.log.Debug("dictionary retrieved", "bytes", len(blob))

	dict, err := ParseDictionary(blob)
	if err != nil {
		return err
	}
	b.dict = dict
	return nil
}

func (b *Bridge) identifyChunk(offset uint32) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	msg := protocol.AppendUint(nil, protocol.IdentifyID)
	msg = protocol.AppendUint(msg, offset)
	msg = protocol.AppendUint(msg, identifyChunk)
	if err := b.client.Send(ctx, msg); err != nil {
		return nil, err
	}

	resp, err := b.client.Receive(ctx)
	if err != nil {
		return nil, err
	}
	payload := resp.Payload
	id, err := protocol.ReadUint(&payload)
	if err != nil {
		return nil, err
	}
	if id != protocol.IdentifyResponseID {
		return nil, fmt.Errorf("unexpected response command ID: %d", id)
	}
	respOffset, err := protocol.ReadUint(&payload)
	if err != nil {
		return nil, err
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}
	data, err := protocol.ReadBytes(&payload)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

func (b *Bridge) send(msg []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.client.Send(ctx, msg)
}

// ConfigureOutput allocates an object id for pin and configures it low
func (b *Bridge) ConfigureOutput(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	oid, ok := b.oids[pin]
	if !ok {
		if len(b.oids) >= maxOIDs {
			return ErrTooManyPins
		}
		oid = uint8(len(b.oids))
	}

	msg := protocol.AppendUint(nil, b.cmdConfig)
	msg = protocol.AppendUint(msg, uint32(oid))
	msg = protocol.AppendUint(msg, uint32(pin))
	msg = protocol.AppendBool(msg, false) // value
	msg = protocol.AppendBool(msg, false) // default_value
	msg = protocol.AppendUint(msg, 0)     // max_duration
	if err := b.send(msg); err != nil {
		return fmt.Errorf("config_digital_out pin %d: %w", pin, err)
	}

	b.oids[pin] = oid
	b.levels[pin] = false
	return nil
}

// SetPin sends update_digital_out for pin and waits for the device to
// acknowledge it. The cached level only changes on success.
func (b *Bridge) SetPin(pin core.GPIOPin, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	oid, ok := b.oids[pin]
	if !ok {
		return core.ErrPinNotConfigured
	}
	msg := protocol.AppendUint(nil, b.cmdUpdate)
	msg = protocol.AppendUint(msg, uint32(oid))
	msg = protocol.AppendBool(msg, value)
	if err := b.send(msg); err != nil {
		return fmt.Errorf("update_digital_out pin %d: %w", pin, err)
	}
	b.levels[pin] = value
	return nil
}

// GetPin returns the last level acknowledged by the device
func (b *Bridge) GetPin(pin core.GPIOPin) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.oids[pin]; !ok {
		return false, core.ErrPinNotConfigured
	}
	return b.levels[pin], nil
}

// Close drops the link
func (b *Bridge) Close() error {
	return b.client.Close()
}
