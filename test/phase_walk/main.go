//go:build rp2040

package main

// Phase walk bring-up test: drives the four-phase table through the PIO
// phase port at a few fixed rates, both directions, with no bus involved.
// Watch IN1..IN4 on a scope or feel the motor turn.

import (
	"machine"
	"time"

	"i2cstepper/core"
	"i2cstepper/targets/pio"
)

const (
	pinIN1 = machine.GPIO10
	pinENA = machine.GPIO14
	pinENB = machine.GPIO15
)

// Step intervals to try, slowest first
var speedTests = []struct {
	interval time.Duration
	name     string
}{
	{20 * time.Millisecond, "50 steps/s"},
	{5 * time.Millisecond, "200 steps/s"},
	{2 * time.Millisecond, "500 steps/s"},
	{time.Millisecond, "1000 steps/s"},
}

const stepsPerTest = 200

func main() {
	time.Sleep(3 * time.Second)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Flash LED to indicate start
	for i := 0; i < 3; i++ {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}

	println("=== Phase Walk Test ===")
	println("IN1..IN4: GP10..GP13, EN: GP14/GP15")

	port, ok := pio.NewPhasePIO()
	if !ok {
		println("No free PIO state machine")
		return
	}
	if err := port.Init(pinIN1, pinENA, pinENB); err != nil {
		println("Init error:", err.Error())
		return
	}

	for {
		for _, test := range speedTests {
			println("Speed:", test.name, "period", core.TicksFromUS(uint32(test.interval/time.Microsecond)), "ticks")
			led.High()
			walk(port, test.interval, true)
			led.Low()
			walk(port, test.interval, false)
		}

		port.SetEnable(false)
		port.Stop()
		time.Sleep(2 * time.Second)
	}
}

// walk takes stepsPerTest steps in one direction
func walk(port *pio.PhasePIO, interval time.Duration, ccw bool) {
	port.SetEnable(true)
	var mi uint8
	for i := 0; i < stepsPerTest; i++ {
		port.SetPhase(core.PhasePattern(mi))
		if ccw {
			mi = (mi + 1) & 3
		} else {
			mi = (mi + 3) & 3
		}
		time.Sleep(interval)
	}
}
