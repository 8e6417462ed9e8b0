package sim

import "i2cstepper/core"

// Timer is a virtual up-counting timer with a 16-bit reload register.
// Time only moves when Advance is called.
type Timer struct {
	now     uint64
	next    uint64
	reload  uint16
	running bool
	firing  bool

	handler func()

	// Fired counts delivered interrupts
	Fired int
}

// NewTimer creates a stopped timer
func NewTimer() *Timer {
	return &Timer{}
}

// SetHandler installs the interrupt handler
func (t *Timer) SetHandler(handler func()) {
	t.handler = handler
}

// Now returns the current tick
func (t *Timer) Now() uint64 {
	return t.now
}

// Running reports whether the timer is counting
func (t *Timer) Running() bool {
	return t.running
}

// Reload returns the reload register
func (t *Timer) Reload() uint16 {
	return t.reload
}

// SetReload implements core.StepTimer. From inside the interrupt it
// schedules the next one relative to the tick being serviced.
func (t *Timer) SetReload(ticks uint16) {
	t.reload = ticks
	if t.firing {
		t.next = t.now + uint64(ticks)
	}
}

// Start implements core.StepTimer. A zero reload keeps the counter parked.
func (t *Timer) Start() {
	if t.reload == 0 {
		return
	}
	t.running = true
	t.next = t.now + uint64(t.reload)
}

// Stop implements core.StepTimer
func (t *Timer) Stop() {
	t.running = false
}

// Advance moves time forward by ticks, delivering every interrupt that
// falls due on the way
func (t *Timer) Advance(ticks uint64) {
	end := t.now + ticks
	for t.running && t.next <= end {
		t.now = t.next
		core.SetTime(uint32(t.now))

		// Without a new reload the hardware repeats the last one
		t.next = t.now + uint64(t.reload)
		t.firing = true
		t.Fired++
		if t.handler != nil {
			t.handler()
		}
		t.firing = false

		if t.running && t.reload == 0 {
			t.running = false
		}
	}
	t.now = end
	core.SetTime(uint32(t.now))
}
