package core

// MaxReload is the largest value the step timer's 16-bit reload register
// accepts. Longer periods are split by the PeriodAccumulator.
const MaxReload = 0xFFFF

// StepTimer is the periodic-interrupt timer that paces the Stepping Engine.
// It is owned by the Stepping Engine; no other component reloads it.
type StepTimer interface {
	// SetReload sets the number of ticks until the next interrupt.
	// Called from inside the timer interrupt to schedule the next one.
	SetReload(ticks uint16)

	// Start runs the timer; the first interrupt fires after the current
	// reload value.
	Start()

	// Stop halts the timer. Pending state is kept.
	Stop()
}

// PhasePort is the parallel output driving the H-bridge: four phase lines
// and two driver-enable lines.
type PhasePort interface {
	// SetPhase clears all phase lines then asserts pattern (bits from
	// the phase table). Must be fast, it is called from the timer interrupt.
	SetPhase(pattern uint8)

	// SetEnable asserts (true) or deasserts both driver-enable lines
	SetEnable(on bool)
}

// ShiftRegister models a bare I2C-capable shift-register peripheral.
//
// The peripheral only shifts bits and raises two interrupts ("start
// condition" and "bit counter reached zero"). It performs no address
// comparison, ACK generation or clock stretching logic of its own; all of
// that is done by the Target state machine. It is owned by the Target.
type ShiftRegister interface {
	// Data returns the shift register contents
	Data() uint8

	// Load sets the shift register contents. When output is enabled the
	// MSB is driven onto SDA for the next clocked bit.
	Load(b uint8)

	// Count arms the bit counter: the shift-complete interrupt fires after
	// bits more SCL clocks. Replaces any count still pending.
	Count(bits uint8)

	// SetOutput enables (true) or releases the SDA driver
	SetOutput(on bool)

	// ClearStart acknowledges the start-condition flag
	ClearStart()
}
