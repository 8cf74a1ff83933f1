// Package i2c exposes a Linux i2c-dev adapter as a tinygo drivers.I2C bus
package i2c

import "errors"

// ErrUnsupported is returned by Open on systems without i2c-dev
var ErrUnsupported = errors.New("i2c: i2c-dev is only available on linux")

// i2cSlave is the i2c-dev ioctl that selects the target address
const i2cSlave = 0x0703
