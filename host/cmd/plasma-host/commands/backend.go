package commands

import (
	"fmt"
	"log/slog"

	"plasmacut/core"
	"plasmacut/host/bridge"
	"plasmacut/host/expander"
	"plasmacut/host/i2c"
	"plasmacut/host/serial"
	"plasmacut/standalone/config"
)

// openDriver opens the output backend named in cfg. The returned close
// function releases whatever the backend holds.
func openDriver(cfg *config.MachineConfig, log *slog.Logger) (core.GPIODriver, func() error, error) {
	out := cfg.Output
	switch out.Backend {
	case config.BackendMemory:
		return core.NewMemoryGPIO(), func() error { return nil }, nil

	case config.BackendExpander:
		bus, err := i2c.Open(out.I2CBus)
		if err != nil {
			return nil, nil, err
		}
		exp, err := expander.New(bus, out.I2CAddress)
		if err != nil {
			_ = bus.Close()
			return nil, nil, err
		}
		log.Info("expander attached", "bus", out.I2CBus, "address", fmt.Sprintf("0x%02x", out.I2CAddress))
		return exp, bus.Close, nil

	case config.BackendBridge:
		sc := serial.DefaultConfig(out.SerialPort)
		sc.Baud = out.Baud
		b, err := bridge.Dial(sc, bridge.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown output backend %q", out.Backend)
}
