package sim

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

var (
	// ErrAddressNack is returned when no device acknowledges the address
	ErrAddressNack = errors.New("sim: address not acknowledged")

	// ErrDataNack is returned when the device does not acknowledge a byte
	ErrDataNack = errors.New("sim: data not acknowledged")
)

var (
	_ i2c.Bus     = (*Bus)(nil)
	_ drivers.I2C = (*Bus)(nil)
)

// Bus is a single-master I2C bus driven one bit at a time into a USI.
//
// It satisfies both periph's i2c.Bus and TinyGo's drivers.I2C, so host and
// MCU drivers can talk to the simulated firmware unchanged.
type Bus struct {
	usi   *USI
	speed physic.Frequency

	// advance, when set, is called with BitTicks before every SCL pulse
	// so timer interrupts interleave with bus traffic
	advance  func(ticks uint64)
	BitTicks uint64
}

// NewBus attaches a master to usi
func NewBus(usi *USI) *Bus {
	return &Bus{usi: usi, speed: 100 * physic.KiloHertz}
}

// String implements i2c.Bus
func (b *Bus) String() string {
	return "sim-i2c"
}

// SetSpeed implements i2c.Bus
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("sim: invalid bus speed %s", f)
	}
	b.speed = f
	return nil
}

// Tx implements i2c.Bus and drivers.I2C. A write followed by a read is
// joined by a repeated start.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	defer b.stop()

	if len(w) > 0 || len(r) == 0 {
		b.start()
		if !b.writeByte(uint8(addr << 1)) {
			return fmt.Errorf("%w: 0x%02X", ErrAddressNack, addr)
		}
		for i, v := range w {
			if !b.writeByte(v) {
				return fmt.Errorf("%w: byte %d of %d", ErrDataNack, i, len(w))
			}
		}
	}

	if len(r) > 0 {
		b.start()
		if !b.writeByte(uint8(addr<<1) | 0x01) {
			return fmt.Errorf("%w: 0x%02X", ErrAddressNack, addr)
		}
		for i := range r {
			r[i] = b.readByte(i < len(r)-1)
		}
	}
	return nil
}

// WriteRaw sends a start, the raw address byte and data, reporting the
// acknowledge seen for each byte (address first). Used to check protocol
// corners such as broadcast matching.
func (b *Bus) WriteRaw(addrByte uint8, data ...byte) []bool {
	defer b.stop()

	b.start()
	acks := []bool{b.writeByte(addrByte)}
	for _, v := range data {
		acks = append(acks, b.writeByte(v))
	}
	return acks
}

// Abort sends a start and the first bits of an address, then leaves the
// transaction hanging, as a master that stalls mid-byte would
func (b *Bus) Abort(addrByte uint8, bits int) {
	b.start()
	for i := 7; i > 7-bits && i >= 0; i-- {
		b.bit(addrByte >> uint(i))
	}
}

func (b *Bus) start() {
	b.usi.start()
}

func (b *Bus) stop() {
	// The firmware does not watch for stop conditions
}

func (b *Bus) bit(v uint8) uint8 {
	if b.advance != nil && b.BitTicks > 0 {
		b.advance(b.BitTicks)
	}
	return b.usi.clock(v)
}

func (b *Bus) writeByte(v uint8) bool {
	for i := 7; i >= 0; i-- {
		b.bit(v >> uint(i))
	}
	return b.bit(1) == 0
}

func (b *Bus) readByte(ack bool) uint8 {
	var v uint8
	for i := 0; i < 8; i++ {
		v = v<<1 | b.bit(1)
	}
	if ack {
		b.bit(0)
	} else {
		b.bit(1)
	}
	return v
}
