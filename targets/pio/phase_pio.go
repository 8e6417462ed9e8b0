//go:build rp2040

package pio

// PIO phase output: the four bridge inputs are latched in a single PIO
// cycle so no intermediate coil state ever reaches the H-bridge.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildPhaseProgram creates the phase PIO program using AssemblerV0.
// With autopull at a 4-bit threshold every FIFO word becomes one
// `out pins, 4`.
func buildPhaseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Out(rp2pio.OutDestPins, 4).Encode(), // 0: out pins, 4
		// .wrap
	}
}

const phasePIOOrigin = -1 // Any free offset; the program has no jumps

// PhasePIO implements core.PhasePort with the phase lines on four
// consecutive pins driven by a PIO state machine and the two enable lines
// on plain GPIO
type PhasePIO struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	base   machine.Pin
	enA    machine.Pin
	enB    machine.Pin
	offset uint8
}

// NewPhasePIO claims a free state machine for a phase port
func NewPhasePIO() (*PhasePIO, bool) {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil, false
	}

	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	return &PhasePIO{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}, true
}

// Init loads the program. base is IN1; IN2..IN4 follow on base+1..base+3.
func (p *PhasePIO) Init(base, enA, enB machine.Pin) error {
	p.base = base
	p.enA = enA
	p.enB = enB

	p.sm.TryClaim()

	program := buildPhaseProgram()
	offset, err := p.pio.AddProgram(program, phasePIOOrigin)
	if err != nil {
		return err
	}
	p.offset = offset

	for i := machine.Pin(0); i < 4; i++ {
		(base + i).Configure(machine.PinConfig{Mode: p.pio.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(base, 4)

	// Shift right, autopull every 4 bits
	cfg.SetOutShift(true, true, 4)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	p.sm.Init(offset, cfg)

	// Pin directions must be set after Init
	p.sm.SetPindirsConsecutive(base, 4, true)
	p.sm.SetPinsConsecutive(base, 4, false)

	p.enA.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.enB.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.enA.Low()
	p.enB.Low()

	p.sm.SetEnabled(true)
	return nil
}

// SetPhase implements core.PhasePort. Bits 1..4 of pattern are IN1..IN4.
func (p *PhasePIO) SetPhase(pattern uint8) {
	// The FIFO drains one word per PIO cycle; this never spins in practice
	for p.sm.IsTxFIFOFull() {
	}
	p.sm.TxPut(uint32(pattern>>1) & 0x0F)
}

// SetEnable implements core.PhasePort
func (p *PhasePIO) SetEnable(on bool) {
	p.enA.Set(on)
	p.enB.Set(on)
}

// Stop parks the phase lines low and releases the state machine's FIFO
func (p *PhasePIO) Stop() {
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	p.sm.SetPinsConsecutive(p.base, 4, false)
	p.sm.SetEnabled(true)
}
