// Package stepdev controls i2cstepper motor controllers from a Linux host
// via I²C.
//
// The controller runs one move at a time: a period in timer ticks between
// steps, a step count, a direction and whether to keep the coils energized
// afterwards. A move is staged first and started with Begin; Move does
// both.
package stepdev
