// Package sim runs the firmware core on virtual peripherals
package sim

import (
	"i2cstepper/core"
)

// Bench is a complete simulated device: firmware core, virtual timer,
// phase port, shift register and a bus master attached to it
type Bench struct {
	Timer  *Timer
	Port   *Port
	USI    *USI
	Bus    *Bus
	Device *core.Device
}

// NewBench builds a Bench with cfg
func NewBench(cfg core.Config) (*Bench, error) {
	b := &Bench{}
	b.Timer = NewTimer()
	b.Port = NewPort(b.Timer.Now)
	b.USI = NewUSI(func(start bool) {
		b.Device.BusInterrupt(start)
	})
	b.Bus = NewBus(b.USI)
	b.Bus.advance = b.Timer.Advance

	dev, err := core.NewDevice(cfg, b.Timer, b.Port, b.USI)
	if err != nil {
		return nil, err
	}
	b.Device = dev
	b.Timer.SetHandler(dev.TimerInterrupt)
	b.Port.Reset()

	return b, nil
}

// Run advances time by ticks
func (b *Bench) Run(ticks uint64) {
	b.Timer.Advance(ticks)
}

// RunUntilIdle advances time until the step timer stops or limit ticks
// have passed. Returns the ticks consumed.
func (b *Bench) RunUntilIdle(limit uint64) uint64 {
	start := b.Timer.Now()
	for b.Timer.Running() && b.Timer.Now()-start < limit {
		step := b.Timer.next - b.Timer.Now()
		if remaining := limit - (b.Timer.Now() - start); step > remaining {
			step = remaining
		}
		if step == 0 {
			step = 1
		}
		b.Timer.Advance(step)
	}
	return b.Timer.Now() - start
}
