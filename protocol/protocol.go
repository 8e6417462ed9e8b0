// Package protocol implements the i2cstepper bus protocol
package protocol

// Version represents the i2cstepper firmware version
const Version = "0.1.0"

// Bus addresses (7-bit). The firmware compares them shifted left by one
// bit so they line up with the received address+R/W byte.
const (
	DefaultAddress   = 0x2D
	BroadcastAddress = 0x55
)

// Opcode is the first byte of a write transaction
type Opcode uint8

// Opcodes
const (
	OpEnable  Opcode = 0xA1 // Assert driver enable lines
	OpDisable Opcode = 0xA2 // Deassert driver enable lines
	OpBegin   Opcode = 0xA3 // Commit staged command and start motion
	OpPause   Opcode = 0xA4 // Stop timer, keep state
	OpResume  Opcode = 0xA5 // Restart timer from current state

	// Reserved: present in the opcode space, no firmware handler.
	OpStop         Opcode = 0xA6
	OpReadPeriod   Opcode = 0xB1
	OpReadSteps    Opcode = 0xB2 // Arm a one-shot read of the step counter
	OpReadSettings Opcode = 0xB3
)

// IsHandled reports whether the firmware acts on op as a command.
// Every other value, reserved opcodes included, is a payload byte.
func IsHandled(op Opcode) bool {
	switch op {
	case OpEnable, OpDisable, OpBegin, OpPause, OpResume, OpReadSteps:
		return true
	}
	return false
}

// Name returns a short name for op, used by debug output and the host CLI
func (op Opcode) Name() string {
	switch op {
	case OpEnable:
		return "enable"
	case OpDisable:
		return "disable"
	case OpBegin:
		return "begin"
	case OpPause:
		return "pause"
	case OpResume:
		return "resume"
	case OpStop:
		return "stop"
	case OpReadPeriod:
		return "read_period"
	case OpReadSteps:
		return "read_steps"
	case OpReadSettings:
		return "read_settings"
	}
	return "payload"
}

// Read direction bit of the address byte
const AddrRead = 0x01
