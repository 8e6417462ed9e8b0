package core

// Trap sources: interrupts the device never enables
const (
	TrapPort     = 1
	TrapADC      = 2
	TrapTimerAux = 3
	TrapWatchdog = 4
	TrapNMI      = 5
)

var resetHandler func()

// SetResetHandler installs the function that resets the device.
// Targets use a watchdog reset.
func SetResetHandler(handler func()) {
	resetHandler = handler
}

// Trap handles a spurious interrupt by resetting the device. Continuing
// in an unknown state is never attempted.
func Trap(source uint8) {
	RecordEvent(EvtTrap, GetTime(), uint32(source), 0)
	if resetHandler == nil {
		panic("trap: no reset handler")
	}
	resetHandler()
}
