package stepdev

import (
	"errors"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"i2cstepper/protocol"
)

// I2CAddr is the default I²C address of the controller.
const I2CAddr uint16 = protocol.DefaultAddress

// BroadcastAddr is answered by every controller on the bus. Reads through
// it are never acknowledged.
const BroadcastAddr uint16 = protocol.BroadcastAddress

// DefaultTickRate is the firmware's step timer rate.
const DefaultTickRate = physic.MegaHertz

var (
	// ErrConnectionFailed is returned when the driver fails to connect.
	ErrConnectionFailed = errors.New("failed to connect to stepper controller")

	// ErrInvalidSetting is returned when you provide an invalid value.
	ErrInvalidSetting = errors.New("invalid setting")
)

// Move is one motion command.
type Move struct {
	Period    uint32 // Timer ticks between steps
	Steps     uint32
	Direction protocol.Direction
	Hold      bool // Keep the coils energized after the last step
}

// Dev is a handle to an i2cstepper controller.
type Dev struct {
	c        conn.Conn
	addr     uint16
	tickRate physic.Frequency
}

// NewI2C returns an object that communicates with a controller over I²C.
//
// The default address is stepdev.I2CAddr.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	d := Dev{
		c:        &i2c.Dev{Bus: b, Addr: addr},
		addr:     addr,
		tickRate: DefaultTickRate,
	}

	// Test the connection with a read of the step counter. Throw away the
	// result.
	if _, err := d.StepsRemaining(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &d, nil
}

// NewBroadcast returns a write-only handle that reaches every controller on
// the bus. StepsRemaining is not available through it.
func NewBroadcast(b i2c.Bus) *Dev {
	return &Dev{
		c:        &i2c.Dev{Bus: b, Addr: BroadcastAddr},
		addr:     BroadcastAddr,
		tickRate: DefaultTickRate,
	}
}

// String returns the device name in a readable format.
//
// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("i2cstepper@0x%02X", d.addr)
}

// Halt pauses the current move.
//
// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return d.Pause()
}

// SetTickRate tells the driver the controller's step timer rate, used by
// Period and MoveAt.
func (d *Dev) SetTickRate(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("%w: tick rate %s", ErrInvalidSetting, f)
	}
	d.tickRate = f
	return nil
}

// Period converts a step interval to timer ticks.
func (d *Dev) Period(interval time.Duration) (uint32, error) {
	return Period(interval, d.tickRate)
}

// Period converts a step interval to timer ticks at tickRate.
func Period(interval time.Duration, tickRate physic.Frequency) (uint32, error) {
	if tickRate <= 0 {
		return 0, fmt.Errorf("%w: tick rate %s", ErrInvalidSetting, tickRate)
	}
	tick := tickRate.Period()
	if tick <= 0 {
		return 0, fmt.Errorf("%w: tick rate %s too fast", ErrInvalidSetting, tickRate)
	}
	ticks := int64(interval / tick)
	if ticks < 1 || ticks > math.MaxUint32 {
		return 0, fmt.Errorf("%w: interval %s is %d ticks", ErrInvalidSetting, interval, ticks)
	}
	return uint32(ticks), nil
}

// Stage sends m to the controller's staging block without starting it.
func (d *Dev) Stage(m Move) error {
	blk := protocol.Block{
		Period: m.Period,
		Steps:  m.Steps,
		Control: protocol.Control{
			Direction: m.Direction,
			Hold:      m.Hold,
		},
	}
	if err := protocol.ValidateStage(blk); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetting, err)
	}
	buf, _ := blk.MarshalBinary()
	return d.c.Tx(buf, nil)
}

// Begin commits the staged move and starts it.
//
// The controller ignores Begin when nothing is staged.
func (d *Dev) Begin() error {
	return d.command(protocol.OpBegin)
}

// Move stages m and begins it.
func (d *Dev) Move(m Move) error {
	if err := d.Stage(m); err != nil {
		return err
	}
	return d.Begin()
}

// MoveAt moves steps at one step per interval.
func (d *Dev) MoveAt(steps uint32, interval time.Duration, dir protocol.Direction, hold bool) error {
	period, err := d.Period(interval)
	if err != nil {
		return err
	}
	return d.Move(Move{Period: period, Steps: steps, Direction: dir, Hold: hold})
}

// Pause stops stepping without losing the remaining count.
func (d *Dev) Pause() error {
	return d.command(protocol.OpPause)
}

// Resume restarts stepping from the current state. The driver outputs are
// enabled as well.
func (d *Dev) Resume() error {
	return d.command(protocol.OpResume)
}

// Enable energizes the motor driver.
func (d *Dev) Enable() error {
	return d.command(protocol.OpEnable)
}

// Disable de-energizes the motor driver.
func (d *Dev) Disable() error {
	return d.command(protocol.OpDisable)
}

// StepsRemaining gets the number of steps left in the active move.
func (d *Dev) StepsRemaining() (uint32, error) {
	if d.addr == BroadcastAddr {
		return 0, fmt.Errorf("%w: no reads through broadcast", ErrInvalidSetting)
	}
	r := make([]byte, protocol.TelemetrySize)
	if err := d.c.Tx([]byte{uint8(protocol.OpReadSteps)}, r); err != nil {
		return 0, err
	}
	return protocol.DecodeSteps(r)
}

// Wait polls StepsRemaining every poll interval until the move completes or
// timeout elapses.
func (d *Dev) Wait(poll, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		n, err := d.StepsRemaining()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("move not complete after %s: %d steps left", timeout, n)
		}
		time.Sleep(poll)
	}
}

func (d *Dev) command(op protocol.Opcode) error {
	return d.c.Tx([]byte{uint8(op)}, nil)
}

var _ conn.Resource = &Dev{}
