package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"plasmacut/core"
	"plasmacut/standalone/motion"
)

// Overlap policies for a burst requested while the axis is still pulsing
const (
	BusySupersede = "supersede" // Abandon the running burst, start the new one
	BusyReject    = "reject"    // Keep the running burst, fail the new request
)

// Output backends
const (
	BackendMemory   = "memory"   // In-memory lines (dry run)
	BackendExpander = "expander" // MCP23017 over Linux i2c-dev
	BackendBridge   = "bridge"   // Remote MCU over a serial link
)

// AxisConfig represents configuration for a single axis
type AxisConfig struct {
	StepPin          string  `json:"step_pin"`           // Output pin for step pulses
	DirPin           string  `json:"dir_pin"`            // Output pin for direction
	EnablePin        string  `json:"enable_pin"`         // Output pin for driver enable (optional)
	StepsPerCM       float64 `json:"steps_per_cm"`       // Steps per centimetre
	InvertStep       bool    `json:"invert_step"`        // Invert step signal
	InvertDir        bool    `json:"invert_dir"`         // Invert direction signal
	EnableActiveHigh bool    `json:"enable_active_high"` // Enable line is active-high (default active-low)
}

// OutputConfig selects and parameterizes the line backend
type OutputConfig struct {
	Backend    string `json:"backend"`
	I2CBus     string `json:"i2c_bus"`
	I2CAddress uint8  `json:"i2c_address"`
	SerialPort string `json:"serial_port"`
	Baud       int    `json:"baud"`
}

// MachineConfig represents the complete machine configuration
type MachineConfig struct {
	WorkArea motion.WorkArea       `json:"work_area"` // cm
	Axes     map[string]AxisConfig `json:"axes"`      // "x", "y"

	RelayPin    string `json:"relay_pin"`
	InvertRelay bool   `json:"invert_relay"`

	StepPeriodUS  uint32 `json:"step_period_us"` // Time between step pulses
	CadenceMS     uint32 `json:"cadence_ms"`     // Time between path points
	BusyPolicy    string `json:"busy_policy"`
	CurveSegments int    `json:"curve_segments"` // Chords per curve command, 0 skips curves

	Output OutputConfig `json:"output"`
}

// StepPeriod returns the step pulse period
func (c *MachineConfig) StepPeriod() time.Duration {
	return time.Duration(c.StepPeriodUS) * time.Microsecond
}

// Cadence returns the sequencer period
func (c *MachineConfig) Cadence() time.Duration {
	return time.Duration(c.CadenceMS) * time.Millisecond
}

// LoadConfig parses a JSON configuration and returns a validated MachineConfig
func LoadConfig(jsonData []byte) (*MachineConfig, error) {
	var config MachineConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Apply defaults
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses a JSON configuration file
func LoadFile(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return LoadConfig(data)
}

var defaultAxes = map[string]AxisConfig{
	"x": {StepPin: "gpio13", DirPin: "gpio6", EnablePin: "gpio5"},
	"y": {StepPin: "gpio20", DirPin: "gpio16", EnablePin: "gpio21"},
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *MachineConfig) {
	if config.WorkArea.Width == 0 {
		config.WorkArea.Width = 90.0
	}
	if config.WorkArea.Height == 0 {
		config.WorkArea.Height = 50.0
	}
	if config.RelayPin == "" {
		config.RelayPin = "gpio27"
	}
	if config.StepPeriodUS == 0 {
		config.StepPeriodUS = 1000 // 1ms
	}
	if config.CadenceMS == 0 {
		config.CadenceMS = 100
	}
	if config.BusyPolicy == "" {
		config.BusyPolicy = BusySupersede
	}

	if config.Axes == nil {
		config.Axes = make(map[string]AxisConfig)
	}
	for name, def := range defaultAxes {
		axis, ok := config.Axes[name]
		if !ok {
			axis = def
		}
		if axis.StepPin == "" {
			axis.StepPin = def.StepPin
		}
		if axis.DirPin == "" {
			axis.DirPin = def.DirPin
		}
		if axis.StepsPerCM == 0 {
			axis.StepsPerCM = 100.0
		}
		config.Axes[name] = axis
	}

	// Output backend
	if config.Output.Backend == "" {
		config.Output.Backend = BackendMemory
	}
	if config.Output.I2CBus == "" {
		config.Output.I2CBus = "/dev/i2c-1"
	}
	if config.Output.I2CAddress == 0 {
		config.Output.I2CAddress = 0x20
	}
	if config.Output.SerialPort == "" {
		config.Output.SerialPort = "/dev/ttyACM0"
	}
	if config.Output.Baud == 0 {
		config.Output.Baud = 250000
	}
}

// Validate checks the configuration for values the engine cannot run with
func (c *MachineConfig) Validate() error {
	if !(c.WorkArea.Width > 0) || !(c.WorkArea.Height > 0) {
		return fmt.Errorf("config: work area must be positive, got %gx%g", c.WorkArea.Width, c.WorkArea.Height)
	}
	for name := range c.Axes {
		if _, ok := motion.ParseAxis(name); !ok {
			return fmt.Errorf("config: unknown axis %q", name)
		}
	}
	for _, name := range []string{"x", "y"} {
		axis, ok := c.Axes[name]
		if !ok {
			return fmt.Errorf("config: %s axis not configured", name)
		}
		if !(axis.StepsPerCM > 0) {
			return fmt.Errorf("config: %s axis steps_per_cm must be positive", name)
		}
	}
	if c.StepPeriodUS == 0 || c.CadenceMS == 0 {
		return errors.New("config: step and cadence periods must be non-zero")
	}
	switch c.BusyPolicy {
	case BusySupersede, BusyReject:
	default:
		return fmt.Errorf("config: unknown busy_policy %q", c.BusyPolicy)
	}
	if c.CurveSegments < 0 {
		return errors.New("config: curve_segments must not be negative")
	}
	switch c.Output.Backend {
	case BackendMemory, BackendExpander, BackendBridge:
	default:
		return fmt.Errorf("config: unknown output backend %q", c.Output.Backend)
	}

	pins, err := c.Pins()
	if err != nil {
		return err
	}
	if c.Output.Backend == BackendExpander {
		for line, pin := range pins {
			if pin > 15 {
				return fmt.Errorf("config: %s pin %d is not on the expander (0-15)", line, pin)
			}
		}
	}
	return nil
}

// Pins resolves every configured line name to its pin, rejecting
// malformed and duplicated pins.
func (c *MachineConfig) Pins() (map[string]core.GPIOPin, error) {
	pins := make(map[string]core.GPIOPin)
	used := make(map[core.GPIOPin]string)

	add := func(line, spec string) error {
		if spec == "" {
			return nil
		}
		pin, err := ParsePin(spec)
		if err != nil {
			return fmt.Errorf("config: %s: %w", line, err)
		}
		if other, ok := used[pin]; ok {
			return fmt.Errorf("config: %s and %s share pin %d", other, line, pin)
		}
		used[pin] = line
		pins[line] = pin
		return nil
	}

	for _, name := range []string{"x", "y"} {
		axis := c.Axes[name]
		if err := add(name+".step", axis.StepPin); err != nil {
			return nil, err
		}
		if err := add(name+".dir", axis.DirPin); err != nil {
			return nil, err
		}
		if err := add(name+".enable", axis.EnablePin); err != nil {
			return nil, err
		}
	}
	if err := add("relay", c.RelayPin); err != nil {
		return nil, err
	}
	return pins, nil
}

// ParsePin parses a pin name such as "gpio13" or "13"
func ParsePin(name string) (core.GPIOPin, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "gpio")
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", name)
	}
	return core.GPIOPin(n), nil
}

// DefaultPlasmaConfig returns the configuration of the reference plasma
// table: 90x50 cm bed, 100 steps/cm, BCM pin numbering.
func DefaultPlasmaConfig() *MachineConfig {
	config := &MachineConfig{}
	applyDefaults(config)
	return config
}
