// Package mmu implements the memory management unit described in §4.2: a
// stateless dispatcher over the 64 KiB address space, owning WRAM, HRAM, and
// the I/O register file, and routing ROM/external-RAM access to the
// cartridge and VRAM/OAM/PPU-register access to the PPU.
package mmu

import (
	"io"

	"github.com/arrankleinschmidt/gbcore/internal/apu"
	"github.com/arrankleinschmidt/gbcore/internal/cart"
	"github.com/arrankleinschmidt/gbcore/internal/joypad"
	"github.com/arrankleinschmidt/gbcore/internal/ppu"
	"github.com/arrankleinschmidt/gbcore/internal/timer"
)

// Interrupt bit positions in IE/IF, in dispatch priority order.
const (
	IntVBlank = 0
	IntSTAT   = 1
	IntTimer  = 2
	IntSerial = 3
	IntJoypad = 4
)

// MMU wires CPU-visible address space to cartridge, WRAM, HRAM, PPU, Timer,
// and Joypad, and owns the IE/IF interrupt registers and OAM DMA.
type MMU struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000-0xDFFF; echo 0xE000-0xFDFF mirrors 0xC000-0xDDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	ppu    *ppu.PPU
	timer  *timer.Timer
	joypad *joypad.Joypad
	apu    *apu.APU

	ie    byte // 0xFFFF
	ifReg byte // 0xFF0F, lower 5 bits used

	sb byte      // FF01 serial data
	sc byte      // FF02 serial control
	sw io.Writer // optional sink for serial output

	dma       byte // FF46
	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	bootROM     []byte // optional 256-byte overlay at 0x0000-0x00FF
	bootEnabled bool
}

// SetBootROM installs an optional 256-byte boot ROM that overlays
// 0x0000-0x00FF until the host (or the boot ROM itself) disables it via a
// write to 0xFF50. This is a host convenience for booting through real boot
// code, not an emulation of the Nintendo logo/checksum boot sequence itself.
func (m *MMU) SetBootROM(rom []byte) {
	if len(rom) < 0x100 {
		return
	}
	m.bootROM = rom[:0x100]
	m.bootEnabled = true
}

// defaultSampleRate is used by New; hosts that need a different output rate
// construct an MMU then rely on PullStereo's bounded drain regardless of rate.
const defaultSampleRate = 44100

// New constructs an MMU wired to the given cartridge.
func New(c cart.Cartridge) *MMU {
	m := &MMU{cart: c}
	m.ppu = ppu.New(func(bit int) { m.RequestInterrupt(bit) })
	m.timer = timer.New(func(bit int) { m.RequestInterrupt(bit) })
	m.joypad = joypad.New(func(bit int) { m.RequestInterrupt(bit) })
	m.apu = apu.New(defaultSampleRate)
	return m
}

// PPU returns the owned PPU for host-side frame presentation.
func (m *MMU) PPU() *ppu.PPU { return m.ppu }

// ConsumeFrameReady reports whether the PPU finished composing a frame since
// the last call, per §4.7's tick loop ("if frame_ready: present(framebuffer)").
func (m *MMU) ConsumeFrameReady() bool { return m.ppu.ConsumeFrameReady() }

// Frame returns the PPU's composed framebuffer for presentation.
func (m *MMU) Frame() [144][160]byte { return m.ppu.Frame() }

// Cart returns the underlying cartridge, e.g. for battery-RAM inspection.
func (m *MMU) Cart() cart.Cartridge { return m.cart }

// SetButtons updates which buttons are currently pressed (mask of joypad.Right..joypad.Start).
func (m *MMU) SetButtons(mask byte) { m.joypad.SetButtons(mask) }

// SetSerialWriter sets an optional sink that receives bytes written via the
// serial port (e.g. to observe test-ROM pass/fail banners).
func (m *MMU) SetSerialWriter(w io.Writer) { m.sw = w }

// RequestInterrupt sets the given bit in IF (0xFF0F).
func (m *MMU) RequestInterrupt(bit int) { m.ifReg |= 1 << uint(bit) }

// IE returns the interrupt enable register.
func (m *MMU) IE() byte { return m.ie }

// IF returns the interrupt flag register (lower 5 bits).
func (m *MMU) IF() byte { return m.ifReg & 0x1F }

// ClearIF clears the given bit in IF, e.g. once the CPU dispatches it.
func (m *MMU) ClearIF(bit int) { m.ifReg &^= 1 << uint(bit) }

func (m *MMU) ReadByte(addr uint16) byte {
	switch {
	case m.bootEnabled && addr < 0x100:
		return m.bootROM[addr]
	case addr < 0x8000:
		return m.cart.Read(addr)
	case addr <= 0x9FFF:
		return m.ppu.CPURead(addr)
	case addr <= 0xBFFF:
		return m.cart.Read(addr)
	case addr <= 0xDFFF:
		return m.wram[addr-0xC000]
	case addr <= 0xFDFF:
		return m.wram[addr-0x2000-0xC000]
	case addr <= 0xFE9F:
		if m.dmaActive {
			return 0xFF
		}
		return m.ppu.CPURead(addr)
	case addr <= 0xFEFF:
		return 0xFF // unusable region
	case addr == 0xFF00:
		return m.joypad.ReadP1()
	case addr == 0xFF01:
		return m.sb
	case addr == 0xFF02:
		return 0x7E | (m.sc & 0x81)
	case addr == 0xFF04:
		return m.timer.ReadDIV()
	case addr == 0xFF05:
		return m.timer.ReadTIMA()
	case addr == 0xFF06:
		return m.timer.ReadTMA()
	case addr == 0xFF07:
		return m.timer.ReadTAC()
	case addr == 0xFF0F:
		return 0xE0 | m.IF()
	case addr == 0xFF46:
		return m.dma
	case addr >= 0xFF10 && addr <= 0xFF26:
		return m.apu.CPURead(addr)
	case addr >= 0xFF30 && addr <= 0xFF3F:
		return m.apu.CPURead(addr)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return m.ppu.CPURead(addr)
	case addr <= 0xFF7F:
		return 0xFF // unimplemented I/O
	case addr <= 0xFFFE:
		return m.hram[addr-0xFF80]
	default: // 0xFFFF
		return m.ie
	}
}

func (m *MMU) WriteByte(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		m.cart.Write(addr, value)
	case addr <= 0x9FFF:
		m.ppu.CPUWrite(addr, value)
	case addr <= 0xBFFF:
		m.cart.Write(addr, value)
	case addr <= 0xDFFF:
		m.wram[addr-0xC000] = value
	case addr <= 0xFDFF:
		m.wram[addr-0x2000-0xC000] = value
	case addr <= 0xFE9F:
		if m.dmaActive {
			return
		}
		m.ppu.CPUWrite(addr, value)
	case addr <= 0xFEFF:
		// unusable region: writes dropped
	case addr == 0xFF00:
		m.joypad.WriteP1(value)
	case addr == 0xFF01:
		m.sb = value
	case addr == 0xFF02:
		m.sc = value & 0x81
		if m.sc&0x80 != 0 {
			if m.sw != nil {
				_, _ = m.sw.Write([]byte{m.sb})
			}
			m.RequestInterrupt(IntSerial)
			m.sc &^= 0x80
		}
	case addr == 0xFF04:
		m.timer.WriteDIV()
	case addr == 0xFF05:
		m.timer.WriteTIMA(value)
	case addr == 0xFF06:
		m.timer.WriteTMA(value)
	case addr == 0xFF07:
		m.timer.WriteTAC(value)
	case addr == 0xFF0F:
		m.ifReg = value & 0x1F
	case addr == 0xFF46:
		m.dma = value
		m.dmaActive = true
		m.dmaSrc = uint16(value) << 8
		m.dmaIndex = 0
	case addr >= 0xFF10 && addr <= 0xFF26:
		m.apu.CPUWrite(addr, value)
	case addr >= 0xFF30 && addr <= 0xFF3F:
		m.apu.CPUWrite(addr, value)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		m.ppu.CPUWrite(addr, value)
	case addr == 0xFF50:
		if value != 0 {
			m.bootEnabled = false
		}
	case addr <= 0xFF7F:
		// unimplemented I/O: writes dropped
	case addr <= 0xFFFE:
		m.hram[addr-0xFF80] = value
	default: // 0xFFFF
		m.ie = value
	}
}

// PullStereo drains up to max interleaved [L,R,...] int16 samples produced
// since the last call, for the host's audio sink.
func (m *MMU) PullStereo(max int) []int16 { return m.apu.PullStereo(max) }

// Tick advances Timer, PPU, APU, and OAM DMA by the given number of CPU
// cycles, in the order §5 requires (Timer, then PPU, then APU).
func (m *MMU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	m.timer.Tick(cycles)
	m.ppu.Tick(cycles)
	m.apu.Tick(cycles)
	for i := 0; i < cycles && m.dmaActive; i++ {
		v := m.ReadByte(m.dmaSrc + uint16(m.dmaIndex))
		m.ppu.CPUWrite(0xFE00+uint16(m.dmaIndex), v)
		m.dmaIndex++
		if m.dmaIndex >= 0xA0 {
			m.dmaActive = false
		}
	}
}
