package core

// Stepping Engine: a phase sequencer for a two-coil stepper driven through
// an external H-bridge, paced by a 16-bit periodic timer.

import "i2cstepper/protocol"

// Phase table: AB, A'B, A'B', AB'
//
// A = coil A forward, A' = coil A reversed, likewise for B. Bits 1..4 map
// to the bridge inputs IN1..IN4.
var phaseTable = [4]uint8{
	0x14, // A B   0b00010100
	0x12, // A'B   0b00010010
	0x0A, // A'B'  0b00001010
	0x0C, // A B'  0b00001100
}

// PhaseMask covers the four phase lines of a PhasePort pattern
const PhaseMask = 0x1E

// PhasePattern returns the output pattern for mode index i (masked to 0..3)
func PhasePattern(i uint8) uint8 {
	return phaseTable[i&3]
}

// PeriodAccumulator splits a 32-bit step period across a timer whose
// reload register is only 16 bits wide.
type PeriodAccumulator struct {
	remaining uint32
}

// Arm loads a full period for the next step
func (a *PeriodAccumulator) Arm(period uint32) {
	if period == 0 {
		period = 1
	}
	a.remaining = period
}

// Remaining returns the ticks left before the next step
func (a *PeriodAccumulator) Remaining() uint32 {
	return a.remaining
}

// Next returns the reload for the interrupt being serviced and whether
// that interrupt completes a period (i.e. should step).
//
// While more than MaxReload ticks remain the timer runs a full MaxReload
// chunk and no step is taken. Otherwise the remainder is loaded, the
// accumulator is re-armed with period and the step is due. The sum of
// reloads between two steps is always exactly period.
func (a *PeriodAccumulator) Next(period uint32) (reload uint16, step bool) {
	if a.remaining > MaxReload {
		a.remaining -= MaxReload
		return MaxReload, false
	}
	reload = uint16(a.remaining)
	a.Arm(period)
	return reload, true
}

// Stepper is the Stepping Engine. HandleTimer is its interrupt body.
type Stepper struct {
	exch  *Exchange
	timer StepTimer
	port  PhasePort
	acc   PeriodAccumulator

	running bool
	enabled bool
	steps   uint32 // Steps taken since boot
}

// NewStepper creates a Stepping Engine over the given peripherals
func NewStepper(exch *Exchange, timer StepTimer, port PhasePort) *Stepper {
	return &Stepper{
		exch:  exch,
		timer: timer,
		port:  port,
	}
}

// HandleTimer services one timer interrupt
func (s *Stepper) HandleTimer() {
	active := &s.exch.active

	if active.Steps == 0 {
		// Resumed with nothing left to do
		s.halt()
		if !active.Control.Hold {
			s.setEnable(false)
		}
		return
	}

	// Reschedule first to keep jitter down
	reload, step := s.acc.Next(active.Period)
	s.timer.SetReload(reload)
	if !step {
		return
	}

	ctl := &active.Control
	s.port.SetPhase(phaseTable[ctl.ModeIndex&3])
	if ctl.Direction == protocol.CounterClockwise {
		if ctl.ModeIndex >= 3 {
			ctl.ModeIndex = 0
		} else {
			ctl.ModeIndex++
		}
	} else {
		if ctl.ModeIndex == 0 || ctl.ModeIndex > 3 {
			ctl.ModeIndex = 3
		} else {
			ctl.ModeIndex--
		}
	}

	active.Steps--
	s.steps++
	RecordEvent(EvtStep, GetTime(), active.Steps, uint32(ctl.ModeIndex))

	if active.Steps == 0 {
		s.halt()
		if !ctl.Hold {
			s.setEnable(false)
		}
		RecordEvent(EvtComplete, GetTime(), s.steps, boolToU32(ctl.Hold))
	}
}

// Start arms the accumulator from the active period, enables the driver
// and requests an immediate interrupt. Called after a successful commit.
func (s *Stepper) Start() {
	s.acc.Arm(s.exch.active.Period)
	s.setEnable(true)
	s.kick()
}

// Pause stops the timer without touching any state
func (s *Stepper) Pause() {
	s.timer.SetReload(0)
	s.halt()
	RecordEvent(EvtPause, GetTime(), s.exch.active.Steps, 0)
}

// Resume enables the driver and restarts the timer from the current state
func (s *Stepper) Resume() {
	s.setEnable(true)
	s.kick()
	RecordEvent(EvtResume, GetTime(), s.exch.active.Steps, 0)
}

// Enable asserts the driver-enable lines without touching the timer
func (s *Stepper) Enable() {
	s.setEnable(true)
}

// Disable deasserts the driver-enable lines without touching the timer
func (s *Stepper) Disable() {
	s.setEnable(false)
}

// Running reports whether the step timer is running
func (s *Stepper) Running() bool {
	return s.running
}

// Enabled reports whether the driver-enable lines are asserted
func (s *Stepper) Enabled() bool {
	return s.enabled
}

// StepCount returns the number of steps taken since boot
func (s *Stepper) StepCount() uint32 {
	return s.steps
}

func (s *Stepper) kick() {
	s.timer.SetReload(1)
	s.timer.Start()
	s.running = true
}

func (s *Stepper) halt() {
	s.timer.Stop()
	s.running = false
}

func (s *Stepper) setEnable(on bool) {
	s.port.SetEnable(on)
	s.enabled = on
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
