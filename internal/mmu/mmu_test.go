package mmu

import (
	"testing"

	"github.com/arrankleinschmidt/gbcore/internal/cart"
)

func newTestMMU() *MMU {
	return New(cart.NewROMOnly(make([]byte, 0x8000)))
}

func TestMMU_ROMAndRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	m := New(cart.NewROMOnly(rom))

	if got := m.ReadByte(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02X want 42", got)
	}

	m.WriteByte(0xC000, 0x99)
	if got := m.ReadByte(0xC000); got != 0x99 {
		t.Fatalf("WRAM read got %02X want 99", got)
	}

	m.WriteByte(0xE000, 0x55)
	if got := m.ReadByte(0xC000); got != 0x55 {
		t.Fatalf("echo write did not mirror to WRAM: got %02X", got)
	}

	m.WriteByte(0xFF80, 0xAB)
	if got := m.ReadByte(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02X want AB", got)
	}

	if got := m.ReadByte(0xA123); got != 0xFF {
		t.Fatalf("ext RAM (ROM-only) got %02X want FF", got)
	}

	if got := m.ReadByte(0xFEA5); got != 0xFF {
		t.Fatalf("unusable region got %02X want FF", got)
	}
}

func TestMMU_IEAndIF(t *testing.T) {
	m := newTestMMU()
	m.WriteByte(0xFF0F, 0x3F)
	if got := m.ReadByte(0xFF0F); got != 0xE0|0x1F {
		t.Fatalf("IF read got %02X want E0|1F", got)
	}
	m.WriteByte(0xFFFF, 0x1B)
	if got := m.ReadByte(0xFFFF); got != 0x1B {
		t.Fatalf("IE read got %02X want 1B", got)
	}
}

func TestMMU_RequestInterruptAndClearIF(t *testing.T) {
	m := newTestMMU()
	m.RequestInterrupt(IntTimer)
	if m.IF()&(1<<IntTimer) == 0 {
		t.Fatalf("expected IF timer bit set")
	}
	m.ClearIF(IntTimer)
	if m.IF()&(1<<IntTimer) != 0 {
		t.Fatalf("expected IF timer bit cleared")
	}
}

func TestMMU_LYWritesAreIgnored(t *testing.T) {
	m := newTestMMU()
	m.WriteByte(0xFF40, 0x80) // LCD on
	m.Tick(252)               // mid-line, LY still 0
	m.WriteByte(0xFF44, 0x99)
	if got := m.ReadByte(0xFF44); got != 0 {
		t.Fatalf("LY write should be ignored, got %02X want 00", got)
	}
}

func TestMMU_JoypadSelection(t *testing.T) {
	m := newTestMMU()
	m.WriteByte(0xFF00, 0x20) // select D-Pad
	m.SetButtons(1 << 0)      // Right
	if got := m.ReadByte(0xFF00) & 0x0F; got != 0x0E {
		t.Fatalf("D-Pad read got %02X want 0E", got)
	}
}

func TestMMU_TimerRegisterRoundTrip(t *testing.T) {
	m := newTestMMU()
	m.WriteByte(0xFF05, 0x77)
	if got := m.ReadByte(0xFF05); got != 0x77 {
		t.Fatalf("TIMA got %02X want 77", got)
	}
	m.WriteByte(0xFF06, 0x88)
	if got := m.ReadByte(0xFF06); got != 0x88 {
		t.Fatalf("TMA got %02X want 88", got)
	}
	m.WriteByte(0xFF04, 0x12) // any write resets DIV to 0
	if got := m.ReadByte(0xFF04); got != 0x00 {
		t.Fatalf("DIV got %02X want 00", got)
	}
}

func TestMMU_SerialImmediateWriteAndIRQ(t *testing.T) {
	m := newTestMMU()
	var out []byte
	m.SetSerialWriter(writerFunc(func(p []byte) (int, error) {
		out = append(out, p...)
		return len(p), nil
	}))

	m.WriteByte(0xFF01, 0x41)
	m.WriteByte(0xFF02, 0x81)
	if len(out) != 1 || out[0] != 0x41 {
		t.Fatalf("serial out got %v want [0x41]", out)
	}
	if m.ReadByte(0xFF02)&0x80 != 0 {
		t.Fatalf("transfer-in-progress bit not cleared after immediate completion")
	}
	if m.IF()&(1<<IntSerial) == 0 {
		t.Fatalf("serial IF bit not set after transfer")
	}
}

func TestMMU_OAMDMA_StepwiseAndBlocking(t *testing.T) {
	m := newTestMMU()
	for i := 0; i < 0xA0; i++ {
		m.WriteByte(0xC000+uint16(i), byte(i))
	}
	m.WriteByte(0xFF46, 0xC0)

	if got := m.ReadByte(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during DMA got %02X want FF", got)
	}
	m.WriteByte(0xFE00, 0xEE) // ignored while DMA active

	m.Tick(80)
	if got := m.ReadByte(0xFE10); got != 0xFF {
		t.Fatalf("mid-DMA OAM read got %02X want FF", got)
	}
	m.Tick(80)

	for i := 0; i < 0xA0; i++ {
		if got := m.ReadByte(0xFE00 + uint16(i)); got != byte(i) {
			t.Fatalf("OAM[%02X] got %02X want %02X", i, got, byte(i))
		}
	}

	m.WriteByte(0xFE00, 0x99)
	if got := m.ReadByte(0xFE00); got != 0x99 {
		t.Fatalf("OAM write post-DMA failed: got %02X", got)
	}
}

func TestMMU_VRAM_OAM_AccessRestrictedDuringModes(t *testing.T) {
	m := newTestMMU()
	m.WriteByte(0xFF40, 0x80)
	m.Tick(80 + 172) // mode 0 (HBlank)
	m.WriteByte(0x8000, 0x11)
	m.WriteByte(0xFE00, 0x22)

	m.Tick(456 - 252) // new line start (mode 2)
	m.Tick(80)        // enter mode 3
	m.WriteByte(0x8000, 0xAA)
	m.WriteByte(0xFE00, 0xBB)
	if got := m.ReadByte(0x8000); got != 0xFF {
		t.Fatalf("VRAM read during mode3 got %02X want FF", got)
	}
	if got := m.ReadByte(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during mode3 got %02X want FF", got)
	}

	m.Tick(172) // HBlank
	if got := m.ReadByte(0x8000); got != 0x11 {
		t.Fatalf("VRAM value changed despite blocked write: got %02X", got)
	}
	if got := m.ReadByte(0xFE00); got != 0x22 {
		t.Fatalf("OAM value changed despite blocked write: got %02X", got)
	}
}

func TestMMU_BootROMOverlayAndDisable(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0000] = 0xAA // cart byte, should be shadowed while boot ROM is active
	m := New(cart.NewROMOnly(rom))

	boot := make([]byte, 0x100)
	boot[0x0000] = 0x11
	m.SetBootROM(boot)

	if got := m.ReadByte(0x0000); got != 0x11 {
		t.Fatalf("expected boot ROM overlay, got %02X want 11", got)
	}

	m.WriteByte(0xFF50, 0x01)
	if got := m.ReadByte(0x0000); got != 0xAA {
		t.Fatalf("expected cart ROM after boot disable, got %02X want AA", got)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
