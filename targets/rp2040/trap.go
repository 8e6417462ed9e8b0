//go:build rp2040

package main

import (
	"device/rp"
	"machine"
	"runtime/interrupt"

	"i2cstepper/core"
)

// installResetHandler makes core.Trap reset through the watchdog
func installResetHandler() {
	core.SetResetHandler(func() {
		machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
		machine.Watchdog.Start()
		for {
			// Wait for the watchdog
		}
	})
}

// installTraps routes interrupts this firmware never enables to core.Trap
func installTraps() {
	qspi := interrupt.New(rp.IRQ_IO_IRQ_QSPI, func(interrupt.Interrupt) {
		core.Trap(core.TrapPort)
	})
	qspi.Enable()

	adc := interrupt.New(rp.IRQ_ADC_IRQ_FIFO, func(interrupt.Interrupt) {
		core.Trap(core.TrapADC)
	})
	adc.Enable()

	pwm := interrupt.New(rp.IRQ_PWM_IRQ_WRAP, func(interrupt.Interrupt) {
		core.Trap(core.TrapTimerAux)
	})
	pwm.Enable()

	aux := interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) {
		core.Trap(core.TrapTimerAux)
	})
	aux.Enable()
}
