package stepperi2c

import (
	"errors"
	"testing"

	"i2cstepper/core"
	"i2cstepper/protocol"
	"i2cstepper/sim"
)

// recorder is a drivers.I2C that logs every transfer
type recorder struct {
	addrs  []uint16
	writes [][]byte
	reply  []byte
	err    error
}

func (r *recorder) Tx(addr uint16, w, rd []byte) error {
	r.addrs = append(r.addrs, addr)
	r.writes = append(r.writes, append([]byte(nil), w...))
	copy(rd, r.reply)
	return r.err
}

func TestStageEncoding(t *testing.T) {
	bus := &recorder{}
	dev := New(bus)

	err := dev.Stage(Move{Period: 0x1234, Steps: 10, Direction: protocol.CounterClockwise, Hold: true})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	want := []byte{0x00, 0x00, 0x12, 0x34, 0x00, 0x00, 0x00, 0x0A, 0xC0}
	got := bus.writes[0]
	if len(got) != len(want) {
		t.Fatalf("Expected %d bytes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: expected 0x%02X, got 0x%02X", i, want[i], got[i])
		}
	}
	if bus.addrs[0] != protocol.DefaultAddress {
		t.Errorf("Expected address 0x%02X, got 0x%02X", protocol.DefaultAddress, bus.addrs[0])
	}
}

func TestStageRejectsInvalid(t *testing.T) {
	bus := &recorder{}
	dev := New(bus)

	if err := dev.Stage(Move{Period: 0xA4000000, Steps: 1}); !errors.Is(err, protocol.ErrPeriodConflict) {
		t.Errorf("Expected ErrPeriodConflict, got %v", err)
	}
	if err := dev.Move(Move{Period: 10}); !errors.Is(err, protocol.ErrZeroSteps) {
		t.Errorf("Expected ErrZeroSteps, got %v", err)
	}
	if len(bus.writes) != 0 {
		t.Errorf("Expected nothing sent, got %d transfers", len(bus.writes))
	}
}

func TestCommands(t *testing.T) {
	bus := &recorder{}
	dev := New(bus)
	dev.Configure(Config{Address: 0x30})

	tests := []struct {
		fn func() error
		op protocol.Opcode
	}{
		{dev.Begin, protocol.OpBegin},
		{dev.Pause, protocol.OpPause},
		{dev.Resume, protocol.OpResume},
		{dev.Enable, protocol.OpEnable},
		{dev.Disable, protocol.OpDisable},
	}

	for i, tt := range tests {
		if err := tt.fn(); err != nil {
			t.Fatalf("%s failed: %v", tt.op.Name(), err)
		}
		if w := bus.writes[i]; len(w) != 1 || w[0] != uint8(tt.op) {
			t.Errorf("%s: expected [0x%02X], got % X", tt.op.Name(), uint8(tt.op), w)
		}
		if bus.addrs[i] != 0x30 {
			t.Errorf("%s: expected address 0x30, got 0x%02X", tt.op.Name(), bus.addrs[i])
		}
	}
}

func TestStepsRemainingBusError(t *testing.T) {
	busErr := errors.New("bus fault")
	dev := New(&recorder{err: busErr})
	if _, err := dev.StepsRemaining(); !errors.Is(err, busErr) {
		t.Errorf("Expected bus error, got %v", err)
	}
}

func TestAgainstSimulatedController(t *testing.T) {
	bench, err := sim.NewBench(core.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	dev := New(bench.Bus)

	if err := dev.Move(Move{Period: 200, Steps: 12}); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	bench.Run(1000)

	n, err := dev.StepsRemaining()
	if err != nil {
		t.Fatalf("StepsRemaining failed: %v", err)
	}
	// Steps land at ticks 1, 201, 401, 601 and 801
	if n != 7 {
		t.Errorf("Expected 7 steps left, got %d", n)
	}

	if err := dev.Pause(); err != nil {
		t.Fatal(err)
	}
	bench.Run(5000)
	if n, _ := dev.StepsRemaining(); n != 7 {
		t.Errorf("Expected pause to hold at 7, got %d", n)
	}

	if err := dev.Resume(); err != nil {
		t.Fatal(err)
	}
	bench.RunUntilIdle(10000)
	if n, _ := dev.StepsRemaining(); n != 0 {
		t.Errorf("Expected 0 after completion, got %d", n)
	}
	if got := len(bench.Port.Steps()); got != 12 {
		t.Errorf("Expected 12 steps, got %d", got)
	}
}

func TestBroadcastEnable(t *testing.T) {
	bench, err := sim.NewBench(core.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	dev := New(bench.Bus)
	all := dev.Broadcast()

	if err := all.Enable(); err != nil {
		t.Fatalf("broadcast Enable failed: %v", err)
	}
	if !bench.Port.Enabled {
		t.Error("Expected driver enabled by broadcast")
	}
}
