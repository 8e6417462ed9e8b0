package core

// I2C Transport Engine: slave addressing, ACK/NACK and multi-byte framing
// synthesized in software on top of a bare ShiftRegister.

import "i2cstepper/protocol"

// BusState is the protocol state of the current bus session. Each state
// names what the engine is waiting for on the next shift-complete event.
type BusState uint8

const (
	StateIdle          BusState = iota // No transaction in progress
	StateAddressWait                   // 8 address+R/W bits
	StateIdlePrep                      // ACK/NACK bit that ends the transaction
	StateReceiveByte                   // ACK bit after address or data byte
	StateReceiveCheck                  // 8 data bits from the master
	StateTransmitCheck                 // ACK bit before the next outgoing byte
	StateWaitAck                       // 8 data bits sent to the master
)

// String returns the state name
func (s BusState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAddressWait:
		return "address_wait"
	case StateIdlePrep:
		return "idle_prep"
	case StateReceiveByte:
		return "receive_byte"
	case StateReceiveCheck:
		return "receive_check"
	case StateTransmitCheck:
		return "transmit_check"
	case StateWaitAck:
		return "wait_ack"
	}
	return "unknown"
}

const (
	ackBit  = 0x00 // SDA low
	nackBit = 0xFF // SDA released (MSB high)
)

// Session is the transient state of one bus transaction
type Session struct {
	State   BusState
	RxIndex uint8 // 0 = opcode byte, N = payload byte N
	TxIndex uint8 // Bytes sent in this read
	Read    bool  // R/W bit of the matched address

	// ReadExpected is set by a read-steps opcode and consumed by the next
	// address match. It survives the stop/restart between the two.
	ReadExpected bool

	honored   bool // This read was requested; otherwise send padding only
	telemetry [protocol.TelemetrySize]byte
}

// reset returns the session to its idle values, keeping ReadExpected
func (s *Session) reset() {
	s.State = StateIdle
	s.RxIndex = 0
	s.TxIndex = 0
	s.Read = false
	s.honored = false
}

// Target is the I2C Transport Engine. HandleStart and HandleShiftComplete
// are the bodies of the bus peripheral's two interrupt sources.
type Target struct {
	usi     ShiftRegister
	exch    *Exchange
	stepper *Stepper
	ops     *OpcodeTable

	addr  uint8 // Own address, pre-shifted
	bcast uint8 // Broadcast address, pre-shifted

	s Session
}

// NewTarget creates an I2C Transport Engine answering at addr and bcast
// (7-bit) and registers the command opcodes.
func NewTarget(usi ShiftRegister, exch *Exchange, stepper *Stepper, addr, bcast uint8) *Target {
	t := &Target{
		usi:     usi,
		exch:    exch,
		stepper: stepper,
		ops:     NewOpcodeTable(),
		addr:    addr << 1,
		bcast:   bcast << 1,
	}

	t.ops.Register(protocol.OpEnable, t.enable)
	t.ops.Register(protocol.OpDisable, t.disable)
	t.ops.Register(protocol.OpBegin, t.begin)
	t.ops.Register(protocol.OpPause, t.stepper.Pause)
	t.ops.Register(protocol.OpResume, t.stepper.Resume)
	t.ops.Register(protocol.OpReadSteps, t.armRead)

	return t
}

// Opcodes returns the opcode table
func (t *Target) Opcodes() *OpcodeTable {
	return t.ops
}

// Session returns a copy of the current bus session
func (t *Target) Session() Session {
	return t.s
}

// HandleStart services a start (or repeated start) condition. Any
// partial transaction is discarded.
func (t *Target) HandleStart() {
	t.s.reset()
	t.usi.SetOutput(false)
	t.usi.Count(8)
	t.usi.ClearStart()
	t.s.State = StateAddressWait
}

// HandleShiftComplete services the bit counter reaching zero
func (t *Target) HandleShiftComplete() {
	switch t.s.State {
	case StateIdle:
		// Not addressed; nothing was armed

	case StateAddressWait:
		t.checkAddress()

	case StateIdlePrep:
		t.finish()

	case StateReceiveByte:
		t.usi.SetOutput(false)
		t.usi.Count(8)
		t.s.State = StateReceiveCheck

	case StateReceiveCheck:
		t.usi.SetOutput(true)
		t.receive(t.usi.Data())
		t.usi.Load(ackBit)
		t.usi.Count(1)

	case StateTransmitCheck:
		if t.s.TxIndex > 0 && t.usi.Data()&0x01 != 0 {
			RecordEvent(EvtReadNack, GetTime(), uint32(t.s.TxIndex), 0)
			t.finish()
			return
		}
		t.transmit()

	case StateWaitAck:
		t.usi.SetOutput(false)
		t.usi.Count(1)
		t.s.State = StateTransmitCheck
	}
}

// checkAddress decides whether the received address byte is ours and
// shifts out the ACK or NACK bit
func (t *Target) checkAddress() {
	data := t.usi.Data()
	if data&^protocol.AddrRead != t.addr && data != t.bcast {
		t.usi.Load(nackBit)
		t.usi.Count(1)
		t.s.State = StateIdlePrep
		RecordEvent(EvtAddrNack, GetTime(), uint32(data), 0)
		return
	}

	t.s.Read = data&protocol.AddrRead != 0
	if t.s.Read {
		t.s.honored = t.s.ReadExpected
		if t.s.honored {
			t.s.telemetry = protocol.EncodeSteps(t.exch.StepsRemaining())
		}
		t.s.State = StateTransmitCheck
	} else {
		t.s.State = StateReceiveByte
	}
	t.s.ReadExpected = false

	t.usi.SetOutput(true)
	t.usi.Load(ackBit)
	t.usi.Count(1)
}

// receive handles one data byte of a write transaction
func (t *Target) receive(data uint8) {
	if t.s.RxIndex == 0 {
		if t.ops.Dispatch(protocol.Opcode(data)) {
			t.s.State = StateIdlePrep
			return
		}
	}

	t.exch.StageByte(int(t.s.RxIndex), data)
	t.s.RxIndex++
	if t.s.RxIndex >= protocol.BlockSize {
		t.s.State = StateIdlePrep
		return
	}
	t.s.State = StateReceiveByte
}

// transmit loads the next telemetry byte: the step counter big end first,
// then padding
func (t *Target) transmit() {
	var b uint8
	if t.s.honored && int(t.s.TxIndex) < len(t.s.telemetry) {
		b = t.s.telemetry[t.s.TxIndex]
	}
	if t.s.TxIndex < 0xFF {
		t.s.TxIndex++
	}

	t.usi.SetOutput(true)
	t.usi.Load(b)
	t.usi.Count(8)
	t.s.State = StateWaitAck
}

// finish releases the bus and returns to idle
func (t *Target) finish() {
	t.usi.SetOutput(false)
	t.s.reset()
}

func (t *Target) begin() {
	if !t.exch.Commit() {
		RecordEvent(EvtBeginNoop, GetTime(), 0, 0)
		return
	}
	active := t.exch.Active()
	RecordEvent(EvtCommit, GetTime(), active.Period, active.Steps)
	t.stepper.Start()
}

func (t *Target) enable() {
	t.stepper.Enable()
	RecordEvent(EvtEnable, GetTime(), 0, 0)
}

func (t *Target) disable() {
	t.stepper.Disable()
	RecordEvent(EvtDisable, GetTime(), 0, 0)
}

func (t *Target) armRead() {
	t.s.ReadExpected = true
	RecordEvent(EvtReadArmed, GetTime(), 0, 0)
}
