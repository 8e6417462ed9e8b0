//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"i2cstepper/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// GetHardwareTime reads the low 32 bits of the 1MHz microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime updates the core timer with hardware time.
// Called at the top of every interrupt so events carry real timestamps.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
