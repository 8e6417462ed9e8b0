package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	ErrBlockSize      = errors.New("staged block must be 9 bytes")
	ErrZeroPeriod     = errors.New("period must be at least 1 tick")
	ErrZeroSteps      = errors.New("step count must be at least 1")
	ErrPeriodConflict = errors.New("period high byte collides with an opcode")
	ErrShortRead      = errors.New("read-steps response too short")
	ErrWordRange      = errors.New("value must be a whole number in 0..4294967295")
)

// BlockSize is the width of a staged command on the wire
const BlockSize = 9

// Byte offsets inside a serialized block
const (
	OffsetPeriod  = 0
	OffsetSteps   = 4
	OffsetControl = 8
)

// TelemetrySize is the number of meaningful bytes in a read-steps response:
// the whole 32-bit counter, most significant byte first. A master that reads
// only two bytes gets the upper half. Anything clocked past this is 0x00
// padding.
const TelemetrySize = 4

// Direction of rotation
type Direction uint8

const (
	Clockwise        Direction = 0 // mode index counts down, 0 wraps to 3
	CounterClockwise Direction = 1 // mode index counts up, 3 wraps to 0
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "ccw"
	}
	return "cw"
}

// Control byte layout, version 1
//
//	+---+---+---+---+---+---+---+---+
//	| D | H | - | - | - | - | I | I |
//	+---+---+---+---+---+---+---+---+
//
// I = mode index (0..3), H = hold position, D = direction (1 = CCW).
// Bits 2..5 are reserved and encoded as zero.
const (
	ControlLayoutVersion = 1

	ControlModeMask      = 0x03
	ControlHoldMask      = 0x40
	ControlDirectionMask = 0x80
)

// Control is the decoded control byte
type Control struct {
	ModeIndex uint8
	Direction Direction
	Hold      bool
}

// ParseControl decodes a control byte
func ParseControl(b uint8) Control {
	c := Control{ModeIndex: b & ControlModeMask}
	if b&ControlDirectionMask != 0 {
		c.Direction = CounterClockwise
	}
	c.Hold = b&ControlHoldMask != 0
	return c
}

// Byte encodes c. The mode index is masked to 0..3.
func (c Control) Byte() uint8 {
	b := c.ModeIndex & ControlModeMask
	if c.Direction == CounterClockwise {
		b |= ControlDirectionMask
	}
	if c.Hold {
		b |= ControlHoldMask
	}
	return b
}

// Block is one motion command: the active command or the staged one
type Block struct {
	Period  uint32 // Hardware ticks per step
	Steps   uint32 // Remaining steps, 0 = motion complete
	Control Control
}

// MarshalBinary encodes b in the 9-byte wire layout
func (b Block) MarshalBinary() ([]byte, error) {
	buf := make([]byte, BlockSize)
	b.Encode(buf)
	return buf, nil
}

// Encode writes b into buf, which must hold BlockSize bytes
func (b Block) Encode(buf []byte) {
	binary.BigEndian.PutUint32(buf[OffsetPeriod:], b.Period)
	binary.BigEndian.PutUint32(buf[OffsetSteps:], b.Steps)
	buf[OffsetControl] = b.Control.Byte()
}

// UnmarshalBinary decodes the 9-byte wire layout
func (b *Block) UnmarshalBinary(data []byte) error {
	if len(data) != BlockSize {
		return ErrBlockSize
	}
	b.Period = binary.BigEndian.Uint32(data[OffsetPeriod:])
	b.Steps = binary.BigEndian.Uint32(data[OffsetSteps:])
	b.Control = ParseControl(data[OffsetControl])
	return nil
}

// PutByte stores one wire byte at offset i, as the firmware does while a
// stage write is arriving. Offsets past the block are ignored.
func (b *Block) PutByte(i int, v uint8) {
	switch {
	case i < OffsetSteps:
		shift := uint(8 * (3 - i))
		b.Period = b.Period&^(0xFF<<shift) | uint32(v)<<shift
	case i < OffsetControl:
		shift := uint(8 * (7 - i))
		b.Steps = b.Steps&^(0xFF<<shift) | uint32(v)<<shift
	case i == OffsetControl:
		b.Control = ParseControl(v)
	}
}

// ValidateStage checks that b can be staged over the bus and begun.
//
// The first byte of a stage write shares the opcode slot, so the period's
// high byte must not be a handled opcode.
func ValidateStage(b Block) error {
	if b.Period == 0 {
		return ErrZeroPeriod
	}
	if b.Steps == 0 {
		return ErrZeroSteps
	}
	if IsHandled(Opcode(b.Period >> 24)) {
		return ErrPeriodConflict
	}
	return nil
}

// WordFromFloat converts a number from a float-only caller (JavaScript)
// into a period or step count. Negative, fractional and oversized values
// are rejected rather than wrapped.
func WordFromFloat(f float64) (uint32, error) {
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, ErrWordRange
	}
	return uint32(f), nil
}

// EncodeSteps returns the read-steps telemetry encoding of n
func EncodeSteps(n uint32) [TelemetrySize]byte {
	var out [TelemetrySize]byte
	binary.BigEndian.PutUint32(out[:], n)
	return out
}

// DecodeSteps decodes a read-steps response. Padding past the first
// TelemetrySize bytes is ignored.
func DecodeSteps(data []byte) (uint32, error) {
	if len(data) < TelemetrySize {
		return 0, ErrShortRead
	}
	return binary.BigEndian.Uint32(data), nil
}
