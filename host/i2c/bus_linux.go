//go:build linux

package i2c

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Bus is an open /dev/i2c-N adapter
type Bus struct {
	mu   sync.Mutex
	fd   int
	addr uint16
	path string
}

// Open opens an i2c-dev adapter such as /dev/i2c-1
func Open(path string) (*Bus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	return &Bus{fd: fd, path: path, addr: 0xFFFF}, nil
}

// Tx writes w then reads into r from the device at addr
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fd < 0 {
		return fmt.Errorf("i2c: %s is closed", b.path)
	}
	if addr != b.addr {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("i2c: select 0x%02x: %w", addr, err)
		}
		b.addr = addr
	}
	if len(w) > 0 {
		n, err := unix.Write(b.fd, w)
		if err != nil {
			return fmt.Errorf("i2c: write to 0x%02x: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("i2c: short write to 0x%02x: %d/%d", addr, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(b.fd, r)
		if err != nil {
			return fmt.Errorf("i2c: read from 0x%02x: %w", addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("i2c: short read from 0x%02x: %d/%d", addr, n, len(r))
		}
	}
	return nil
}

// Close releases the adapter
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
