//go:build rp2040 || rp2350

package pio

import (
	"device/rp"
	"machine"
)

// PhaseGPIO implements core.PhasePort on SIO. It is the fallback when no
// PIO state machine is free.
//
// The four phase lines change in one GPIO_OUT_XOR write, so they switch
// together like the PIO version.
type PhaseGPIO struct {
	base     machine.Pin
	enA, enB machine.Pin
	mask     uint32 // Phase lines
	enMask   uint32 // Enable lines
}

// NewPhaseGPIO creates a phase port with IN1..IN4 on base..base+3
func NewPhaseGPIO(base, enA, enB machine.Pin) *PhaseGPIO {
	return &PhaseGPIO{
		base:   base,
		enA:    enA,
		enB:    enB,
		mask:   0x0F << uint32(base),
		enMask: 1<<uint32(enA) | 1<<uint32(enB),
	}
}

// Init configures every line as a low output
func (g *PhaseGPIO) Init() {
	for i := machine.Pin(0); i < 4; i++ {
		pin := g.base + i
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}
	g.enA.Configure(machine.PinConfig{Mode: machine.PinOutput})
	g.enB.Configure(machine.PinConfig{Mode: machine.PinOutput})
	rp.SIO.GPIO_OUT_CLR.Set(g.enMask)
}

// SetPhase implements core.PhasePort
func (g *PhaseGPIO) SetPhase(pattern uint8) {
	want := (uint32(pattern>>1) & 0x0F) << uint32(g.base)
	cur := rp.SIO.GPIO_OUT.Get()
	rp.SIO.GPIO_OUT_XOR.Set((cur ^ want) & g.mask)
}

// SetEnable implements core.PhasePort
func (g *PhaseGPIO) SetEnable(on bool) {
	if on {
		rp.SIO.GPIO_OUT_SET.Set(g.enMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(g.enMask)
	}
}
