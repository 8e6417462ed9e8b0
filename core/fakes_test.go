package core

// fakeTimer records reloads and run state
type fakeTimer struct {
	reload  uint16
	running bool
	reloads []uint16
	starts  int
	stops   int
}

func (f *fakeTimer) SetReload(ticks uint16) {
	f.reload = ticks
	f.reloads = append(f.reloads, ticks)
}

func (f *fakeTimer) Start() {
	f.running = true
	f.starts++
}

func (f *fakeTimer) Stop() {
	f.running = false
	f.stops++
}

// fakePort records phase writes and enable state
type fakePort struct {
	pattern uint8
	enabled bool
	phases  []uint8
}

func (f *fakePort) SetPhase(pattern uint8) {
	f.pattern = pattern
	f.phases = append(f.phases, pattern)
}

func (f *fakePort) SetEnable(on bool) {
	f.enabled = on
}

// fakeUSI records what the engine asks of the shift register. The test
// plays the bus by setting sr before each shift-complete event.
type fakeUSI struct {
	sr         uint8
	count      uint8
	oe         bool
	startClear bool
	loads      []uint8
}

func (f *fakeUSI) Data() uint8 { return f.sr }

func (f *fakeUSI) Load(b uint8) {
	f.sr = b
	f.loads = append(f.loads, b)
}

func (f *fakeUSI) Count(bits uint8)  { f.count = bits }
func (f *fakeUSI) SetOutput(on bool) { f.oe = on }
func (f *fakeUSI) ClearStart()       { f.startClear = true }

type rig struct {
	timer *fakeTimer
	port  *fakePort
	usi   *fakeUSI
	dev   *Device
}

func newRig() *rig {
	r := &rig{
		timer: &fakeTimer{},
		port:  &fakePort{},
		usi:   &fakeUSI{},
	}
	dev, err := NewDevice(DefaultConfig(), r.timer, r.port, r.usi)
	if err != nil {
		panic(err)
	}
	r.dev = dev
	r.port.phases = nil
	ClearEvents()
	return r
}

// shift delivers a shift-complete event with the register holding sr
func (r *rig) shift(sr uint8) {
	r.usi.sr = sr
	r.dev.BusInterrupt(false)
}

// ackBit delivers the shift-complete event of a 1-bit ACK/NACK slot. The
// register shifts left and takes the bus level into bit 0.
func (r *rig) ackBit(level uint8) {
	r.shift(r.usi.sr<<1 | level&1)
}

// write runs a complete write transaction: start, address, data
func (r *rig) write(addr uint8, data ...uint8) {
	r.dev.BusInterrupt(true)
	r.shift(addr << 1)
	r.ackBit(0)
	for _, b := range data {
		r.shift(b)
		r.ackBit(0)
	}
}

// stage writes a 9-byte staged block
func (r *rig) stage(b CommandBlock) {
	buf, _ := b.MarshalBinary()
	r.write(DefaultConfig().Address, buf...)
}

// runSteps services timer interrupts until the timer stops or limit
// interrupts have been delivered
func (r *rig) runSteps(limit int) int {
	n := 0
	for r.timer.running && n < limit {
		r.dev.TimerInterrupt()
		n++
	}
	return n
}
