//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
)

// Step timer on TIMER alarm 2. The runtime keeps alarms 0 and 1 for
// sleeping.
const (
	stepAlarm    = 2
	stepAlarmBit = 1 << stepAlarm
)

// alarmTimer implements core.StepTimer on an RP2040 TIMER alarm.
//
// The alarm compares against the free-running 1MHz counter, so a reload
// is added to the previous deadline rather than to the time the interrupt
// was serviced. Reloads keep the 16-bit width of the step engine's timer
// contract.
type alarmTimer struct {
	reload   uint16
	deadline uint32
	running  bool
	firing   bool

	handler func()
	intr    interrupt.Interrupt
}

var stepTimer alarmTimer

// Init installs the alarm interrupt at priority
func (t *alarmTimer) Init(priority uint8, handler func()) {
	t.handler = handler
	t.intr = interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) {
		stepTimer.service()
	})
	t.intr.SetPriority(priority)
	t.intr.Enable()
}

// SetReload implements core.StepTimer
func (t *alarmTimer) SetReload(ticks uint16) {
	t.reload = ticks
	if t.firing {
		t.deadline += uint32(ticks)
	}
}

// Start implements core.StepTimer. A zero reload keeps the alarm disarmed.
func (t *alarmTimer) Start() {
	if t.reload == 0 {
		return
	}
	t.running = true
	t.deadline = GetHardwareTime() + uint32(t.reload)
	rp.TIMER.INTE.SetBits(stepAlarmBit)
	rp.TIMER.ALARM2.Set(t.deadline)
}

// Stop implements core.StepTimer
func (t *alarmTimer) Stop() {
	t.running = false
	rp.TIMER.INTE.ClearBits(stepAlarmBit)
	rp.TIMER.ARMED.Set(stepAlarmBit)
	rp.TIMER.INTR.Set(stepAlarmBit)
}

func (t *alarmTimer) service() {
	rp.TIMER.INTR.Set(stepAlarmBit)
	UpdateSystemTime()

	fired := t.deadline
	t.firing = true
	t.handler()
	t.firing = false

	if !t.running {
		return
	}
	if t.reload == 0 {
		t.Stop()
		return
	}
	if t.deadline == fired {
		// No new reload: the hardware repeats the last one
		t.deadline += uint32(t.reload)
	}
	rp.TIMER.ALARM2.Set(t.deadline)

	// Deadline already in the past: fire again right away
	if int32(t.deadline-GetHardwareTime()) <= 0 {
		rp.TIMER.INTF.SetBits(stepAlarmBit)
	}
}
