package core

import (
	"testing"

	"i2cstepper/protocol"
)

// read runs a read transaction of n bytes, ACKing all but the last, and
// returns the bytes the engine loaded for transmission
func (r *rig) read(addr uint8, n int) []uint8 {
	r.dev.BusInterrupt(true)
	r.shift(addr<<1 | protocol.AddrRead)
	r.ackBit(0)

	var out []uint8
	for i := 0; i < n; i++ {
		if r.dev.Target.s.State != StateWaitAck {
			break
		}
		out = append(out, r.usi.sr)
		// Master released SDA for the whole byte; the register rotates
		r.shift(r.usi.sr)
		if i == n-1 {
			r.ackBit(1)
		} else {
			r.ackBit(0)
		}
	}
	return out
}

func TestAddressMismatch(t *testing.T) {
	r := newRig()
	r.dev.Exchange.active = CommandBlock{Period: 7, Steps: 3}
	r.dev.Exchange.staged = CommandBlock{Period: 8, Steps: 1}
	active, staged := r.dev.Exchange.Active(), r.dev.Exchange.Staged()

	r.dev.BusInterrupt(true)
	if !r.usi.startClear || r.usi.count != 8 {
		t.Fatalf("Expected start cleared and 8 bits armed, got %v/%d", r.usi.startClear, r.usi.count)
	}
	r.shift(0x10 << 1)
	if r.usi.sr != nackBit || r.usi.count != 1 {
		t.Errorf("Expected NACK bit armed, got sr=0x%02X count=%d", r.usi.sr, r.usi.count)
	}
	if r.usi.oe {
		t.Error("Expected SDA released for NACK")
	}
	r.ackBit(1)

	// The rest of the foreign transaction is ignored
	r.shift(uint8(protocol.OpBegin))
	r.shift(0x00)

	s := r.dev.Target.Session()
	if s.State != StateIdle || s.RxIndex != 0 || s.Read {
		t.Errorf("Expected idle session, got %+v", s)
	}
	if r.dev.Exchange.Active() != active || r.dev.Exchange.Staged() != staged {
		t.Error("Expected command blocks untouched")
	}
	if evts := Events(); len(evts) != 1 || evts[0].Type != EvtAddrNack {
		t.Errorf("Expected one ADDR_NACK event, got %v", evts)
	}
}

func TestBroadcastAddress(t *testing.T) {
	r := newRig()
	r.dev.BusInterrupt(true)
	r.shift(protocol.BroadcastAddress << 1)
	if r.usi.sr != ackBit || !r.usi.oe {
		t.Errorf("Expected ACK for broadcast write, got sr=0x%02X oe=%v", r.usi.sr, r.usi.oe)
	}

	// Broadcast is matched exactly, so its read form is not ours
	r.dev.BusInterrupt(true)
	r.shift(protocol.BroadcastAddress<<1 | protocol.AddrRead)
	if r.usi.sr != nackBit {
		t.Errorf("Expected NACK for broadcast read, got sr=0x%02X", r.usi.sr)
	}
}

func TestStageAndBegin(t *testing.T) {
	r := newRig()
	r.dev.Exchange.active.Control.ModeIndex = 2
	r.stage(CommandBlock{
		Period:  1000,
		Steps:   5,
		Control: protocol.Control{ModeIndex: 0, Direction: protocol.CounterClockwise},
	})

	if s := r.dev.Target.Session(); s.State != StateIdle {
		t.Errorf("Expected idle after 9 bytes, got %v", s.State)
	}
	if r.dev.Exchange.Staged().Steps != 5 {
		t.Fatalf("Expected 5 staged steps, got %d", r.dev.Exchange.Staged().Steps)
	}
	for i, b := range r.usi.loads {
		if b != ackBit {
			t.Errorf("Expected every byte ACKed, load %d was 0x%02X", i, b)
		}
	}

	r.write(DefaultConfig().Address, uint8(protocol.OpBegin))

	active := r.dev.Exchange.Active()
	if active.Period != 1000 || active.Steps != 5 || active.Control.Direction != protocol.CounterClockwise {
		t.Errorf("Expected staged block active, got %+v", active)
	}
	if active.Control.ModeIndex != 2 {
		t.Errorf("Expected mode index 2 kept, got %d", active.Control.ModeIndex)
	}
	if r.dev.Exchange.Staged() != (CommandBlock{}) {
		t.Error("Expected staged zeroed after commit")
	}
	if !r.timer.running || r.timer.reload != 1 || !r.port.enabled {
		t.Errorf("Expected immediate start with driver on, got running=%v reload=%d enabled=%v",
			r.timer.running, r.timer.reload, r.port.enabled)
	}
}

func TestBeginWithoutStepsIsNoop(t *testing.T) {
	r := newRig()
	r.dev.Exchange.active = CommandBlock{Period: 3, Steps: 0, Control: protocol.Control{ModeIndex: 1}}
	before := r.dev.Exchange.Active()

	r.write(DefaultConfig().Address, uint8(protocol.OpBegin))

	if r.dev.Exchange.Active() != before {
		t.Errorf("Expected active unchanged, got %+v", r.dev.Exchange.Active())
	}
	if r.timer.running {
		t.Error("Expected timer to stay stopped")
	}
	if r.usi.loads[len(r.usi.loads)-1] != ackBit {
		t.Error("Expected the begin byte to be ACKed")
	}
}

func TestStageWriteStopsAtBlockSize(t *testing.T) {
	r := newRig()
	data := []uint8{0, 0, 0, 9, 0, 0, 0, 2, 0x40, 0xEE, 0xEE}
	r.write(DefaultConfig().Address, data...)

	staged := r.dev.Exchange.Staged()
	if staged.Period != 9 || staged.Steps != 2 || !staged.Control.Hold {
		t.Errorf("Expected first 9 bytes staged, got %+v", staged)
	}
	if s := r.dev.Target.Session(); s.State != StateIdle {
		t.Errorf("Expected idle, got %v", s.State)
	}
}

func TestStartDiscardsPartialWrite(t *testing.T) {
	r := newRig()
	r.write(DefaultConfig().Address, 0x00, 0x00, 0x01)
	if s := r.dev.Target.Session(); s.RxIndex != 3 {
		t.Fatalf("Expected rx index 3 mid-write, got %d", s.RxIndex)
	}

	// A new transaction starts over at byte 0
	r.stage(CommandBlock{Period: 20, Steps: 4})
	staged := r.dev.Exchange.Staged()
	if staged.Period != 20 || staged.Steps != 4 {
		t.Errorf("Expected fresh block, got %+v", staged)
	}
}

func TestReservedOpcodeIsPayload(t *testing.T) {
	for _, op := range []protocol.Opcode{protocol.OpStop, protocol.OpReadPeriod, protocol.OpReadSettings, 0x07} {
		r := newRig()
		r.write(DefaultConfig().Address, uint8(op))
		if s := r.dev.Target.Session(); s.RxIndex != 1 || s.State != StateReceiveCheck {
			t.Errorf("op %s: expected payload byte, got %+v", hex8(uint8(op)), s)
		}
		if got := r.dev.Exchange.Staged().Period >> 24; got != uint32(op) {
			t.Errorf("op %s: expected staged byte 0, got 0x%02X", hex8(uint8(op)), got)
		}
	}
}

func TestControlOpcodes(t *testing.T) {
	r := newRig()
	addr := DefaultConfig().Address

	r.write(addr, uint8(protocol.OpEnable))
	if !r.port.enabled || r.timer.running {
		t.Errorf("enable: expected driver on, timer untouched")
	}
	r.write(addr, uint8(protocol.OpDisable))
	if r.port.enabled {
		t.Error("disable: expected driver off")
	}

	r.dev.Exchange.active = CommandBlock{Period: 10, Steps: 10}
	r.write(addr, uint8(protocol.OpResume))
	if !r.timer.running || !r.port.enabled {
		t.Error("resume: expected timer running and driver on")
	}
	r.write(addr, uint8(protocol.OpPause))
	if r.timer.running {
		t.Error("pause: expected timer stopped")
	}
	if r.dev.Exchange.StepsRemaining() != 10 {
		t.Errorf("pause: expected state kept, got %d steps", r.dev.Exchange.StepsRemaining())
	}
}

func TestReadStepsTelemetry(t *testing.T) {
	r := newRig()
	r.dev.Exchange.active = CommandBlock{Period: 10, Steps: 0x01020304}
	addr := DefaultConfig().Address

	r.write(addr, uint8(protocol.OpReadSteps))
	if !r.dev.Target.Session().ReadExpected {
		t.Fatal("Expected read armed")
	}

	got := r.read(addr, 6)
	want := []uint8{0x01, 0x02, 0x03, 0x04, 0x00, 0x00}
	if len(got) != len(want) {
		t.Fatalf("Expected %d bytes, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: expected 0x%02X, got 0x%02X", i, want[i], got[i])
		}
	}
	s := r.dev.Target.Session()
	if s.State != StateIdle || s.ReadExpected {
		t.Errorf("Expected idle with read consumed, got %+v", s)
	}
	if r.usi.oe {
		t.Error("Expected SDA released after NACK")
	}
}

func TestShortReadGetsUpperBytes(t *testing.T) {
	tests := []struct {
		steps uint32
		want  []uint8
	}{
		{3, []uint8{0x00, 0x00}},
		{0x00012345, []uint8{0x00, 0x01}},
		{0xABCD0000, []uint8{0xAB, 0xCD}},
	}
	addr := DefaultConfig().Address

	for _, tt := range tests {
		r := newRig()
		r.dev.Exchange.active = CommandBlock{Period: 10, Steps: tt.steps}
		r.write(addr, uint8(protocol.OpReadSteps))

		got := r.read(addr, 2)
		if len(got) != 2 || got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("steps=0x%08X: expected % X, got % X", tt.steps, tt.want, got)
		}
		if s := r.dev.Target.Session(); s.State != StateIdle {
			t.Errorf("steps=0x%08X: expected idle after NACK, got state %v", tt.steps, s.State)
		}
	}
}

func TestUnrequestedReadSendsPadding(t *testing.T) {
	r := newRig()
	r.dev.Exchange.active = CommandBlock{Period: 10, Steps: 0xAABBCCDD}
	r.dev.Exchange.staged = CommandBlock{Period: 1}
	staged := r.dev.Exchange.Staged()

	got := r.read(DefaultConfig().Address, 4)
	for i, b := range got {
		if b != 0 {
			t.Errorf("byte %d: expected padding, got 0x%02X", i, b)
		}
	}
	if r.dev.Exchange.Staged() != staged {
		t.Error("Expected staged untouched by a read")
	}
}

func TestReadExpectedIsOneShot(t *testing.T) {
	r := newRig()
	r.dev.Exchange.active = CommandBlock{Period: 10, Steps: 7}
	addr := DefaultConfig().Address

	r.write(addr, uint8(protocol.OpReadSteps))
	if got := r.read(addr, 4); got[3] != 7 {
		t.Errorf("Expected 7, got %v", got)
	}
	if got := r.read(addr, 4); got[3] != 0 {
		t.Errorf("Expected padding on the second read, got %v", got)
	}
}

func TestOpcodeTableRegistered(t *testing.T) {
	r := newRig()
	ops := r.dev.Target.Opcodes()
	if ops.Count() != 6 {
		t.Errorf("Expected 6 opcodes, got %d", ops.Count())
	}
	for op := 0; op < 256; op++ {
		_, ok := ops.Lookup(protocol.Opcode(op))
		if ok != protocol.IsHandled(protocol.Opcode(op)) {
			t.Errorf("opcode %s: table=%v protocol=%v", hex8(uint8(op)), ok, !ok)
		}
	}
}
