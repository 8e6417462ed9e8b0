//go:build rp2040

package main

import (
	"device/arm"
	"device/rp"
	"machine"
	"runtime/interrupt"

	"i2cstepper/core"
	"i2cstepper/protocol"
	"i2cstepper/targets/pio"
)

// Board wiring
const (
	pinSDA = machine.GPIO4
	pinSCL = machine.GPIO5
	pinIN1 = machine.GPIO10 // IN1..IN4 on GPIO10..13
	pinENA = machine.GPIO14
	pinENB = machine.GPIO15

	debugConsole = true // Event log on UART0
)

// NVIC priorities, lower is more urgent. The bus must preempt the step
// timer so no bit is missed while a step is being taken.
const (
	priorityBus   = 0x40
	priorityTimer = 0x80
)

var device *core.Device

func main() {
	// Clear any watchdog state left by a trap reset
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	installResetHandler()
	installTraps()

	if debugConsole {
		InitDebugUART()
		core.SetDebugWriter(DebugPrintln)
		core.SetDebugEnabled(debugEnabled)
		core.DebugPrintln("i2cstepper " + protocol.Version)
	}

	var port core.PhasePort
	if p, ok := pio.NewPhasePIO(); ok && p.Init(pinIN1, pinENA, pinENB) == nil {
		port = p
	} else {
		g := pio.NewPhaseGPIO(pinIN1, pinENA, pinENB)
		g.Init()
		port = g
	}
	if debugConsole {
		if pio.ClaimedStateMachines() > 0 {
			core.DebugPrintln("phase port: pio")
		} else {
			core.DebugPrintln("phase port: sio")
		}
	}

	var err error
	device, err = core.NewDevice(core.DefaultConfig(), &stepTimer, port, &bus)
	if err != nil {
		core.Trap(core.TrapNMI)
	}

	stepTimer.Init(priorityTimer, device.TimerInterrupt)
	if err := bus.Init(pinSDA, pinSCL, device.BusInterrupt); err != nil {
		core.Trap(core.TrapPort)
	}
	arm.SetPriority(rp.IRQ_IO_IRQ_BANK0, priorityBus)

	// All work happens in the two interrupts from here on
	for {
		arm.Asm("wfi")
		if core.IsDebugEnabled() {
			dumpEvents()
		}
	}
}

// dumpEvents prints the event ring. The ring is copied with interrupts
// masked since both handlers append to it.
func dumpEvents() {
	state := interrupt.Disable()
	evts := core.Events()
	core.ClearEvents()
	interrupt.Restore(state)

	if len(evts) == 0 {
		return
	}
	for _, evt := range evts {
		core.DebugPrintln(core.FormatEvent(evt))
	}
	core.DebugPrintln(device.Status())
}
