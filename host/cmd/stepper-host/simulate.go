package main

import (
	"fmt"

	"i2cstepper/core"
	"i2cstepper/host/stepdev"
	"i2cstepper/sim"
)

// simulate runs a move on a simulated controller and prints the phase
// trace and the firmware event log
func simulate(m *moveArgs) error {
	bench, err := sim.NewBench(core.DefaultConfig())
	if err != nil {
		return err
	}
	core.ClearEvents()

	dev, err := stepdev.NewI2C(bench.Bus, stepdev.I2CAddr)
	if err != nil {
		return err
	}
	if err := dev.MoveAt(uint32(m.steps), m.interval, m.direction(), m.hold); err != nil {
		return err
	}

	period, _ := dev.Period(m.interval)
	limit := uint64(period)*uint64(m.steps) + 1
	ticks := bench.RunUntilIdle(limit)

	fmt.Printf("Simulated %d ticks, %d timer interrupts\n", ticks, bench.Timer.Fired)
	for _, c := range bench.Port.Steps() {
		fmt.Printf("  t=%-10d phase=0b%04b\n", c.Tick, c.Pattern>>1)
	}
	fmt.Printf("Driver enabled: %v\n", bench.Port.Enabled)

	if *verbose {
		for _, evt := range core.Events() {
			fmt.Println(core.FormatEvent(evt))
		}
	}
	return nil
}
