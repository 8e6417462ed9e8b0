package core

import "sync/atomic"

// TickFreq is the step timer tick rate on the reference target
// (RP2040 TIMER, 1MHz). Periods on the wire are expressed in these ticks.
const TickFreq = 1000000

// systemTicks is written from the timer interrupt and read from the bus
// interrupt and the main loop.
var systemTicks atomic.Uint32

// GetTime returns the current time in timer ticks, as last published by
// the target. Used to stamp debug events.
func GetTime() uint32 {
	return systemTicks.Load()
}

// SetTime publishes the current time (target clock or simulator)
func SetTime(ticks uint32) {
	systemTicks.Store(ticks)
}

// TicksFromUS converts microseconds to timer ticks
func TicksFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TickFreq / 1000000)
}
