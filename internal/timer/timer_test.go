package timer

import "testing"

func TestTimer_DIVIncrementsOncePer256Cycles(t *testing.T) {
	tm := New(nil)
	for i := 0; i < 255; i++ {
		tm.Tick(1)
	}
	if got := tm.ReadDIV(); got != 0 {
		t.Fatalf("DIV after 255 cycles got %02X want 00", got)
	}
	tm.Tick(1)
	if got := tm.ReadDIV(); got != 1 {
		t.Fatalf("DIV after 256 cycles got %02X want 01", got)
	}
}

func TestTimer_WriteDIVResetsToZero(t *testing.T) {
	tm := New(nil)
	tm.Tick(1000)
	if tm.ReadDIV() == 0 {
		t.Fatalf("expected nonzero DIV before reset")
	}
	tm.WriteDIV()
	if got := tm.ReadDIV(); got != 0 {
		t.Fatalf("DIV after write got %02X want 00", got)
	}
}

func TestTimer_TIMAOverflowReloadsAfterDelayAndRequestsInterrupt(t *testing.T) {
	var gotBit = -1
	tm := New(func(bit int) { gotBit = bit })
	tm.WriteTAC(0x05) // enabled, input bit 3
	tm.WriteTMA(0xAB)
	tm.tima = 0xFF
	tm.div = 0x000F // next tick flips bit3 1->0: falling edge -> overflow

	tm.Tick(1)
	if got := tm.ReadTIMA(); got != 0x00 {
		t.Fatalf("TIMA after overflow got %02X want 00", got)
	}
	for i := 0; i < 3; i++ {
		tm.Tick(1)
		if got := tm.ReadTIMA(); got != 0x00 {
			t.Fatalf("TIMA during reload delay got %02X want 00", got)
		}
	}
	tm.Tick(1)
	if got := tm.ReadTIMA(); got != 0xAB {
		t.Fatalf("TIMA after reload got %02X want AB", got)
	}
	if gotBit != 2 {
		t.Fatalf("expected IF bit 2 requested, got %d", gotBit)
	}
}

func TestTimer_WriteTIMADuringDelayCancelsReload(t *testing.T) {
	tm := New(nil)
	tm.WriteTAC(0x05)
	tm.WriteTMA(0x55)
	tm.tima = 0xFF
	tm.div = 0x000F
	tm.Tick(1) // overflow, reload pending

	tm.WriteTIMA(0x77)
	for i := 0; i < 8; i++ {
		tm.Tick(1)
	}
	if got := tm.ReadTIMA(); got != 0x77 {
		t.Fatalf("TIMA got %02X want 77 (reload should have been cancelled)", got)
	}
}

func TestTimer_DisabledTACNeverIncrements(t *testing.T) {
	tm := New(nil)
	tm.WriteTAC(0x00) // disabled
	for i := 0; i < 100000; i++ {
		tm.Tick(1)
	}
	if got := tm.ReadTIMA(); got != 0 {
		t.Fatalf("TIMA incremented while disabled: got %02X", got)
	}
}
