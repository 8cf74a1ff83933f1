package bridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"plasmacut/core"
	"plasmacut/protocol"
)

// Device serves the bridge protocol on a link and applies the commands
// to a local GPIODriver.
type Device struct {
	peer   *protocol.Peer
	driver core.GPIODriver
	blob   []byte
	pins   map[uint32]core.GPIOPin
	log    *slog.Logger
}

// NewDevice creates a device serving DefaultDictionary on port
func NewDevice(port io.ReadWriter, driver core.GPIODriver, log *slog.Logger) (*Device, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	dict := DefaultDictionary()
	blob, err := dict.Encode()
	if err != nil {
		return nil, err
	}

	d := &Device{
		peer:   protocol.NewPeer(port),
		driver: driver,
		blob:   blob,
		pins:   make(map[uint32]core.GPIOPin),
		log:    log,
	}
	d.peer.OnError = func(err error) {
		d.log.Warn("bridge command failed", "err", err)
	}

	handlers := map[string]protocol.HandlerFunc{
		"identify":           d.identify,
		"config_digital_out": d.configDigitalOut,
		"update_digital_out": d.updateDigitalOut,
	}
	for name, fn := range handlers {
		id, ok := dict.CommandID(name)
		if !ok {
			return nil, fmt.Errorf("bridge: dictionary lacks %s", name)
		}
		d.peer.Handle(id, fn)
	}
	return d, nil
}

// Serve runs until ctx is done or the link closes
func (d *Device) Serve(ctx context.Context) error {
	d.log.Info("bridge device serving", "dictionary_bytes", len(d.blob))
	return d.peer.Serve(ctx)
}

func (d *Device) identify(args *[]byte) ([]byte, error) {
	offset, err := protocol.ReadUint(args)
	if err != nil {
		return nil, err
	}
	count, err := protocol.ReadUint(args)
	if err != nil {
		return nil, err
	}
	if count > identifyChunk {
		count = identifyChunk
	}

	var chunk []byte
	if offset < uint32(len(d.blob)) {
		end := offset + count
		if end > uint32(len(d.blob)) {
			end = uint32(len(d.blob))
		}
		chunk = d.blob[offset:end]
	}

	resp := protocol.AppendUint(nil, protocol.IdentifyResponseID)
	resp = protocol.AppendUint(resp, offset)
	return protocol.AppendBytes(resp, chunk), nil
}

func (d *Device) configDigitalOut(args *[]byte) ([]byte, error) {
	var v [5]uint32 // oid, pin, value, default_value, max_duration
	for i := range v {
		var err error
		if v[i], err = protocol.ReadUint(args); err != nil {
			return nil, err
		}
	}
	oid, pin := v[0], core.GPIOPin(v[1])
	if oid >= maxOIDs {
		return nil, fmt.Errorf("bridge: oid %d out of range", oid)
	}

	if err := d.driver.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	d.pins[oid] = pin
	d.log.Debug("output configured", "oid", oid, "pin", pin)
	if v[2] != 0 {
		return nil, d.driver.SetPin(pin, true)
	}
	return nil, nil
}

func (d *Device) updateDigitalOut(args *[]byte) ([]byte, error) {
	oid, err := protocol.ReadUint(args)
	if err != nil {
		return nil, err
	}
	value, err := protocol.ReadUint(args)
	if err != nil {
		return nil, err
	}
	pin, ok := d.pins[oid]
	if !ok {
		return nil, fmt.Errorf("bridge: oid %d not configured", oid)
	}
	return nil, d.driver.SetPin(pin, value != 0)
}
