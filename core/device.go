package core

// Device wires the Command Exchange, Stepping Engine and I2C Transport
// Engine to one set of peripherals.
//
// Preemption policy: the bus interrupt outranks the timer interrupt, so
// BusInterrupt may run in the middle of TimerInterrupt but never the
// reverse. The only code that masks interrupts is Exchange.Commit.
type Device struct {
	Exchange *Exchange
	Stepper  *Stepper
	Target   *Target
}

// NewDevice validates cfg and builds a Device
func NewDevice(cfg Config, timer StepTimer, port PhasePort, usi ShiftRegister) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if timer == nil || port == nil || usi == nil {
		return nil, ErrMissingPeriph
	}

	exch := &Exchange{}
	stepper := NewStepper(exch, timer, port)
	target := NewTarget(usi, exch, stepper, cfg.Address, cfg.BroadcastAddress)

	// Outputs start low with the driver off and the timer stopped
	port.SetPhase(0)
	stepper.Disable()
	timer.Stop()

	return &Device{
		Exchange: exch,
		Stepper:  stepper,
		Target:   target,
	}, nil
}

// Status renders a one-line summary for the debug console:
//
//	[STA] taken=12 left=3 run=1 en=1
func (d *Device) Status() string {
	return "[STA] taken=" + utoa(d.Stepper.StepCount()) +
		" left=" + utoa(d.Exchange.StepsRemaining()) +
		" run=" + utoa(boolToU32(d.Stepper.Running())) +
		" en=" + utoa(boolToU32(d.Stepper.Enabled()))
}

// TimerInterrupt is the step timer interrupt body
func (d *Device) TimerInterrupt() {
	d.Stepper.HandleTimer()
}

// BusInterrupt is the bus peripheral interrupt body. start reports a
// pending start condition; it takes precedence over shift-complete.
func (d *Device) BusInterrupt(start bool) {
	if start {
		d.Target.HandleStart()
		return
	}
	d.Target.HandleShiftComplete()
}
