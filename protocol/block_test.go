package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestBlockWireLayout(t *testing.T) {
	b := Block{
		Period:  0x000003E8,
		Steps:   0x01020304,
		Control: Control{ModeIndex: 2, Direction: CounterClockwise, Hold: true},
	}
	got, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	want := []byte{0x00, 0x00, 0x03, 0xE8, 0x01, 0x02, 0x03, 0x04, 0xC2}
	if !bytes.Equal(got, want) {
		t.Errorf("Expected % X, got % X", want, got)
	}

	var back Block
	if err := back.UnmarshalBinary(got); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if back != b {
		t.Errorf("Expected %+v, got %+v", b, back)
	}
}

func TestBlockUnmarshalSize(t *testing.T) {
	var b Block
	for _, n := range []int{0, 8, 10} {
		if err := b.UnmarshalBinary(make([]byte, n)); !errors.Is(err, ErrBlockSize) {
			t.Errorf("len %d: expected ErrBlockSize, got %v", n, err)
		}
	}
}

func TestBlockPutByte(t *testing.T) {
	want := Block{Period: 0xDEADBEEF, Steps: 0x00000100, Control: ParseControl(0x81)}
	wire, _ := want.MarshalBinary()

	var b Block
	for i, v := range wire {
		b.PutByte(i, v)
	}
	if b != want {
		t.Errorf("Expected %+v, got %+v", want, b)
	}

	// Overwriting one byte leaves its neighbours alone
	b.PutByte(1, 0x00)
	if b.Period != 0xDE00BEEF {
		t.Errorf("Expected period 0xDE00BEEF, got 0x%08X", b.Period)
	}
	b.PutByte(BlockSize, 0xFF)
	if b.Control != want.Control {
		t.Error("Expected out-of-range byte ignored")
	}
}

func TestParseControl(t *testing.T) {
	tests := []struct {
		in   uint8
		want Control
		out  uint8
	}{
		{0x00, Control{}, 0x00},
		{0x03, Control{ModeIndex: 3}, 0x03},
		{0x80, Control{Direction: CounterClockwise}, 0x80},
		{0x40, Control{Hold: true}, 0x40},
		// Reserved bits are dropped on re-encode
		{0x3D, Control{ModeIndex: 1}, 0x01},
	}

	for _, tt := range tests {
		got := ParseControl(tt.in)
		if got != tt.want {
			t.Errorf("0x%02X: expected %+v, got %+v", tt.in, tt.want, got)
		}
		if got.Byte() != tt.out {
			t.Errorf("0x%02X: expected re-encode 0x%02X, got 0x%02X", tt.in, tt.out, got.Byte())
		}
	}
}

func TestValidateStage(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		err   error
	}{
		{"ok", Block{Period: 1000, Steps: 5}, nil},
		{"zero period", Block{Period: 0, Steps: 5}, ErrZeroPeriod},
		{"zero steps", Block{Period: 1000, Steps: 0}, ErrZeroSteps},
		{"begin collision", Block{Period: 0xA3000000, Steps: 1}, ErrPeriodConflict},
		{"read-steps collision", Block{Period: 0xB2000001, Steps: 1}, ErrPeriodConflict},
		{"reserved opcode is fine", Block{Period: 0xA6000000, Steps: 1}, nil},
	}

	for _, tt := range tests {
		if err := ValidateStage(tt.block); !errors.Is(err, tt.err) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.err, err)
		}
	}
}

func TestStepsTelemetry(t *testing.T) {
	enc := EncodeSteps(0x00ABCDEF)
	if enc != [TelemetrySize]byte{0x00, 0xAB, 0xCD, 0xEF} {
		t.Errorf("Unexpected encoding % X", enc)
	}

	n, err := DecodeSteps([]byte{0x00, 0xAB, 0xCD, 0xEF, 0x00, 0x00})
	if err != nil || n != 0x00ABCDEF {
		t.Errorf("Expected 0x00ABCDEF, got 0x%X (%v)", n, err)
	}

	if _, err := DecodeSteps([]byte{1, 2, 3}); !errors.Is(err, ErrShortRead) {
		t.Errorf("Expected ErrShortRead, got %v", err)
	}
}

func TestIsHandled(t *testing.T) {
	handled := 0
	for op := 0; op < 256; op++ {
		if IsHandled(Opcode(op)) {
			handled++
		}
	}
	if handled != 6 {
		t.Errorf("Expected 6 handled opcodes, got %d", handled)
	}
	if IsHandled(OpStop) || IsHandled(OpReadPeriod) || IsHandled(OpReadSettings) {
		t.Error("Expected reserved opcodes to be payload")
	}
	if OpReadSteps.Name() != "read_steps" || Opcode(0x10).Name() != "payload" {
		t.Error("Unexpected opcode names")
	}
}

func TestWordFromFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want uint32
		err  error
	}{
		{0, 0, nil},
		{1000, 1000, nil},
		{4294967295, 0xFFFFFFFF, nil},
		{4294967296, 0, ErrWordRange},
		{-1, 0, ErrWordRange},
		{1.5, 0, ErrWordRange},
		{math.NaN(), 0, ErrWordRange},
	}

	for _, tt := range tests {
		got, err := WordFromFloat(tt.in)
		if err != tt.err {
			t.Errorf("WordFromFloat(%v): expected error %v, got %v", tt.in, tt.err, err)
			continue
		}
		if got != tt.want {
			t.Errorf("WordFromFloat(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
