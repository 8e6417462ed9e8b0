package core

import (
	"errors"

	"i2cstepper/protocol"
)

var (
	ErrInvalidAddress = errors.New("bus address must be 7-bit and nonzero")
	ErrAddressClash   = errors.New("primary and broadcast address must differ")
	ErrMissingPeriph  = errors.New("timer, phase port and shift register are required")
)

// Config holds the device's bus identity. Compiled into the firmware by
// the target; there is no runtime configuration channel.
type Config struct {
	Address          uint8 // Primary 7-bit address
	BroadcastAddress uint8 // Broadcast 7-bit address
}

// DefaultConfig returns the stock addresses
func DefaultConfig() Config {
	return Config{
		Address:          protocol.DefaultAddress,
		BroadcastAddress: protocol.BroadcastAddress,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Address == 0 || c.Address > 0x7F {
		return ErrInvalidAddress
	}
	if c.BroadcastAddress == 0 || c.BroadcastAddress > 0x7F {
		return ErrInvalidAddress
	}
	if c.Address == c.BroadcastAddress {
		return ErrAddressClash
	}
	return nil
}
