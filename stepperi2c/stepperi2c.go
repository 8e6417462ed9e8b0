// Package stepperi2c drives an i2cstepper motor controller from another
// microcontroller over I2C.
//
// The driver follows the tinygo.org/x/drivers conventions: create it with
// New, call Configure, then issue commands.
package stepperi2c

import (
	"tinygo.org/x/drivers"

	"i2cstepper/protocol"
)

// Device wraps an I2C connection to a stepper controller
type Device struct {
	bus     drivers.I2C
	Address uint16

	buf [protocol.BlockSize]byte
}

// Config holds the driver settings
type Config struct {
	// Address overrides the 7-bit bus address. Zero keeps the default.
	Address uint16
}

// Move is one motion command
type Move struct {
	Period    uint32 // Timer ticks between steps
	Steps     uint32
	Direction protocol.Direction
	Hold      bool // Keep the coils energized after the last step
}

// Block converts m to its wire block. The mode index is owned by the
// controller and is sent as zero.
func (m Move) Block() protocol.Block {
	return protocol.Block{
		Period: m.Period,
		Steps:  m.Steps,
		Control: protocol.Control{
			Direction: m.Direction,
			Hold:      m.Hold,
		},
	}
}

// New creates a new stepper controller connection. The I2C bus must already
// be configured.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: protocol.DefaultAddress,
	}
}

// Configure applies cfg
func (d *Device) Configure(cfg Config) {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
}

// Broadcast returns a copy of d addressed to every controller on the bus.
// Reads through the copy are not answered.
func (d *Device) Broadcast() Device {
	return Device{bus: d.bus, Address: protocol.BroadcastAddress}
}

// Stage sends m to the controller's staging block without starting it
func (d *Device) Stage(m Move) error {
	blk := m.Block()
	if err := protocol.ValidateStage(blk); err != nil {
		return err
	}
	blk.Encode(d.buf[:])
	return d.bus.Tx(d.Address, d.buf[:], nil)
}

// Begin commits the staged move and starts it. It has no effect when
// nothing is staged.
func (d *Device) Begin() error {
	return d.command(protocol.OpBegin)
}

// Move stages m and begins it
func (d *Device) Move(m Move) error {
	if err := d.Stage(m); err != nil {
		return err
	}
	return d.Begin()
}

// Pause stops stepping and keeps the remaining count
func (d *Device) Pause() error {
	return d.command(protocol.OpPause)
}

// Resume restarts a paused move
func (d *Device) Resume() error {
	return d.command(protocol.OpResume)
}

// Enable energizes the driver
func (d *Device) Enable() error {
	return d.command(protocol.OpEnable)
}

// Disable de-energizes the driver
func (d *Device) Disable() error {
	return d.command(protocol.OpDisable)
}

// StepsRemaining reads the step counter of the active move
func (d *Device) StepsRemaining() (uint32, error) {
	d.buf[0] = uint8(protocol.OpReadSteps)
	r := d.buf[1 : 1+protocol.TelemetrySize]
	if err := d.bus.Tx(d.Address, d.buf[:1], r); err != nil {
		return 0, err
	}
	return protocol.DecodeSteps(r)
}

func (d *Device) command(op protocol.Opcode) error {
	d.buf[0] = uint8(op)
	return d.bus.Tx(d.Address, d.buf[:1], nil)
}
