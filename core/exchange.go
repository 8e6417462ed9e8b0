package core

import "i2cstepper/protocol"

// CommandBlock is one motion command. See protocol.Block for the wire
// layout; the firmware keeps two: active and staged.
type CommandBlock = protocol.Block

// Exchange holds the active and staged command blocks and the rule that
// moves one into the other.
//
// Ownership: active.Control.ModeIndex and active.Steps are mutated only by
// the Stepper; the Target touches active only through Commit and the
// read-only telemetry accessors. staged belongs to the Target alone.
type Exchange struct {
	active CommandBlock
	staged CommandBlock
}

// StageByte stores byte i (0..protocol.BlockSize-1) of the staged block
func (x *Exchange) StageByte(i int, b uint8) {
	x.staged.PutByte(i, b)
}

// Staged returns a copy of the staged block
func (x *Exchange) Staged() CommandBlock {
	return x.staged
}

// Active returns a copy of the active block
func (x *Exchange) Active() CommandBlock {
	return x.active
}

// StepsRemaining returns the live step counter of the active block
func (x *Exchange) StepsRemaining() uint32 {
	return x.active.Steps
}

// Commit moves the staged block into the active block.
//
// A staged step count of zero makes Commit a no-op: nothing changes and it
// returns false. Otherwise period and step counter are copied verbatim,
// control is copied except the mode index, which keeps the phase that is
// on the output pins, and staged is zeroed. The copy runs with interrupts
// masked so the Stepper never sees a half-written active block.
func (x *Exchange) Commit() bool {
	if x.staged.Steps == 0 {
		return false
	}

	state := disableInterrupts()
	mode := x.active.Control.ModeIndex
	x.active = x.staged
	x.active.Control.ModeIndex = mode
	restoreInterrupts(state)

	x.staged = CommandBlock{}
	return true
}
