//go:build !tinygo

package core

// State stands in for interrupt.State off target
type State uintptr

// criticalSections counts completed critical sections so tests can check
// which operations mask interrupts.
var criticalSections uint32

// disableInterrupts does nothing off target. Interrupt handlers are plain
// method calls there, so nothing can preempt the caller.
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(state State) {
	criticalSections++
}
