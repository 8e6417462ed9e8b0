package sim

// USI is a virtual shift-register bus peripheral: an 8-bit shift register
// clocked MSB first, a bit counter, an SDA output enable and a start flag.
// Like the real part it does no addressing or acknowledgement itself.
type USI struct {
	sr        uint8
	count     uint8
	oe        bool
	startFlag bool

	irq func(start bool)
}

// NewUSI creates a peripheral raising interrupts through irq
func NewUSI(irq func(start bool)) *USI {
	return &USI{irq: irq}
}

// Data implements core.ShiftRegister
func (u *USI) Data() uint8 {
	return u.sr
}

// Load implements core.ShiftRegister
func (u *USI) Load(b uint8) {
	u.sr = b
}

// Count implements core.ShiftRegister
func (u *USI) Count(bits uint8) {
	u.count = bits
}

// SetOutput implements core.ShiftRegister
func (u *USI) SetOutput(on bool) {
	u.oe = on
}

// ClearStart implements core.ShiftRegister
func (u *USI) ClearStart() {
	u.startFlag = false
}

// Driving reports whether the peripheral drives SDA
func (u *USI) Driving() bool {
	return u.oe
}

// Pending returns the bits left before the next shift-complete interrupt
func (u *USI) Pending() uint8 {
	return u.count
}

// start signals a start condition on the bus
func (u *USI) start() {
	u.startFlag = true
	if u.irq != nil {
		u.irq(true)
	}
}

// clock runs one SCL pulse. master is the level the master leaves on SDA
// (1 = released). Returns the wired-AND level seen on the bus.
func (u *USI) clock(master uint8) uint8 {
	line := master & 1
	if u.oe && u.sr&0x80 == 0 {
		line = 0
	}
	if u.count == 0 {
		return line
	}

	u.sr = u.sr<<1 | line
	u.count--
	if u.count == 0 && u.irq != nil {
		u.irq(false)
	}
	return line
}
