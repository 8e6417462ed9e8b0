// Package config loads the host tool's JSON profile
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"periph.io/x/conn/v3/physic"

	"i2cstepper/protocol"
)

// Profile describes the bus, the controllers on it and the firmware debug
// console
type Profile struct {
	// Bus is the periph I²C bus name; empty opens the first bus
	Bus string `json:"bus"`

	// TickRateHz is the controller step timer rate
	TickRateHz int64 `json:"tick_rate_hz"`

	Console ConsoleConfig          `json:"console"`
	Motors  map[string]MotorConfig `json:"motors"`
}

// ConsoleConfig selects the UART carrying the firmware debug output
type ConsoleConfig struct {
	Device        string `json:"device"`
	Baud          int    `json:"baud"`
	ReadTimeoutMS int    `json:"read_timeout_ms"`
}

// MotorConfig is one controller on the bus
type MotorConfig struct {
	Address     uint16 `json:"address"`
	StepsPerRev uint32 `json:"steps_per_rev"`
	Hold        bool   `json:"hold"`

	// StepInterval is the default time between steps, e.g. "2ms"
	StepInterval string `json:"step_interval"`
}

// TickRate returns the step timer rate as a frequency
func (p *Profile) TickRate() physic.Frequency {
	return physic.Frequency(p.TickRateHz) * physic.Hertz
}

// Interval parses the motor's default step interval
func (m MotorConfig) Interval() (time.Duration, error) {
	return time.ParseDuration(m.StepInterval)
}

// LoadConfig parses a JSON profile and fills in defaults
func LoadConfig(jsonData []byte) (*Profile, error) {
	var profile Profile

	err := json.Unmarshal(jsonData, &profile)
	if err != nil {
		return nil, err
	}

	applyDefaults(&profile)

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LoadFile reads and parses a JSON profile from path
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return LoadConfig(data)
}

// Validate checks motor addresses and intervals
func (p *Profile) Validate() error {
	seen := make(map[uint16]string)
	for name, m := range p.Motors {
		if m.Address == 0 || m.Address > 0x7F {
			return fmt.Errorf("motor %s: address 0x%02X is not a 7-bit address", name, m.Address)
		}
		if m.Address == protocol.BroadcastAddress {
			return fmt.Errorf("motor %s: address 0x%02X is the broadcast address", name, m.Address)
		}
		if other, ok := seen[m.Address]; ok {
			return fmt.Errorf("motor %s: address 0x%02X already used by %s", name, m.Address, other)
		}
		seen[m.Address] = name
		if _, err := m.Interval(); err != nil {
			return fmt.Errorf("motor %s: %w", name, err)
		}
	}
	return nil
}

// applyDefaults fills in missing values
func applyDefaults(p *Profile) {
	if p.TickRateHz == 0 {
		p.TickRateHz = 1000000
	}

	if p.Console.Device == "" {
		p.Console.Device = "/dev/ttyUSB0"
	}
	if p.Console.Baud == 0 {
		p.Console.Baud = 115200
	}
	if p.Console.ReadTimeoutMS == 0 {
		p.Console.ReadTimeoutMS = 100
	}

	if len(p.Motors) == 0 {
		p.Motors = map[string]MotorConfig{"default": {}}
	}
	for name, m := range p.Motors {
		if m.Address == 0 {
			m.Address = protocol.DefaultAddress
		}
		if m.StepsPerRev == 0 {
			m.StepsPerRev = 200 // 1.8° full-step motor
		}
		if m.StepInterval == "" {
			m.StepInterval = "2ms"
		}
		p.Motors[name] = m
	}
}

// DefaultProfile returns a profile for one controller at the stock address
func DefaultProfile() *Profile {
	p := &Profile{}
	applyDefaults(p)
	return p
}
