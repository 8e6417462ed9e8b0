//go:build rp2040

package main

import (
	"device/rp"
	"machine"
)

// gpioUSI implements core.ShiftRegister on two GPIO pins.
//
// The RP2040 I2C block does its own addressing and acknowledgement, so the
// bus is sampled bit by bit instead: SCL edges clock the shift register and
// an SDA fall while SCL is high is a start condition. SDA and SCL are
// open-drain: the output latch stays low and only the direction changes.
type gpioUSI struct {
	sda, scl machine.Pin
	sdaMask  uint32
	sclMask  uint32

	sr      uint8
	count   uint8
	oe      bool
	stretch bool // Hold SCL low on the next falling edge

	irq func(start bool)
}

var bus gpioUSI

// Init configures the pins and edge interrupts. irq is the bus interrupt
// body.
func (u *gpioUSI) Init(sda, scl machine.Pin, irq func(start bool)) error {
	u.sda, u.scl = sda, scl
	u.sdaMask = 1 << uint32(sda)
	u.sclMask = 1 << uint32(scl)
	u.irq = irq

	for _, pin := range []machine.Pin{sda, scl} {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		pin.Low()
	}
	rp.SIO.GPIO_OE_CLR.Set(u.sdaMask | u.sclMask)

	if err := scl.SetInterrupt(machine.PinToggle, func(machine.Pin) { bus.onSCL() }); err != nil {
		return err
	}
	return sda.SetInterrupt(machine.PinFalling, func(machine.Pin) { bus.onSDAFall() })
}

// Data implements core.ShiftRegister
func (u *gpioUSI) Data() uint8 { return u.sr }

// Load implements core.ShiftRegister
func (u *gpioUSI) Load(b uint8) { u.sr = b }

// Count implements core.ShiftRegister
func (u *gpioUSI) Count(bits uint8) { u.count = bits }

// SetOutput implements core.ShiftRegister
func (u *gpioUSI) SetOutput(on bool) {
	u.oe = on
	if !on {
		rp.SIO.GPIO_OE_CLR.Set(u.sdaMask)
	}
}

// ClearStart implements core.ShiftRegister. Start detection is edge
// triggered, so there is no flag to clear.
func (u *gpioUSI) ClearStart() {}

func (u *gpioUSI) level() uint32 {
	return rp.SIO.GPIO_IN.Get()
}

func (u *gpioUSI) onSDAFall() {
	if u.level()&u.sclMask == 0 {
		return
	}
	UpdateSystemTime()
	u.irq(true)
}

func (u *gpioUSI) onSCL() {
	in := u.level()

	if in&u.sclMask != 0 {
		// Rising: sample SDA into the register
		if u.count == 0 {
			return
		}
		var bit uint8
		if in&u.sdaMask != 0 {
			bit = 1
		}
		u.sr = u.sr<<1 | bit
		u.count--
		if u.count == 0 {
			u.stretch = true
		}
		return
	}

	// Falling: run the engine with SCL held, then present the next bit
	if u.stretch {
		u.stretch = false
		rp.SIO.GPIO_OE_SET.Set(u.sclMask)
		UpdateSystemTime()
		u.irq(false)
	}
	if u.oe && u.sr&0x80 == 0 {
		rp.SIO.GPIO_OE_SET.Set(u.sdaMask)
	} else {
		rp.SIO.GPIO_OE_CLR.Set(u.sdaMask)
	}
	rp.SIO.GPIO_OE_CLR.Set(u.sclMask)
}
