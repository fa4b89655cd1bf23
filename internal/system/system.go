// Package system implements the tick loop described in §4.7: it owns the
// CPU, MMU (which in turn owns Timer, Joypad, PPU, and APU), and drives them
// in lockstep, presenting a frame to the host whenever the PPU signals one
// is ready.
package system

import (
	"sync/atomic"

	"github.com/arrankleinschmidt/gbcore/internal/cart"
	"github.com/arrankleinschmidt/gbcore/internal/cpu"
	"github.com/arrankleinschmidt/gbcore/internal/joypad"
	"github.com/arrankleinschmidt/gbcore/internal/mmu"
)

// ButtonState is the set of currently pressed buttons, as polled once per
// presented frame per §4.7.
type ButtonState struct {
	Up, Down, Left, Right bool
	A, B, Select, Start   bool
}

func (b ButtonState) mask() byte {
	var m byte
	if b.Right {
		m |= joypad.Right
	}
	if b.Left {
		m |= joypad.Left
	}
	if b.Up {
		m |= joypad.Up
	}
	if b.Down {
		m |= joypad.Down
	}
	if b.A {
		m |= joypad.A
	}
	if b.B {
		m |= joypad.B
	}
	if b.Select {
		m |= joypad.Select
	}
	if b.Start {
		m |= joypad.Start
	}
	return m
}

// Host is the set of collaborators the core consumes, per §6.
type Host interface {
	// PollInput reports which buttons are currently pressed.
	PollInput() ButtonState
	// Present delivers one composed frame of 2-bit palette indices.
	Present(frame [144][160]byte)
	// AudioSink optionally receives interleaved [L,R,...] int16 samples.
	// A host that does not care about audio may make this a no-op.
	AudioSink(samples []int16)
}

// System wires a cartridge image to the CPU and MMU and drives the tick
// loop. It holds no back-references: components raise interrupts through
// the MMU's callback-based RequestInterrupt rather than calling into it
// directly, per §9.
type System struct {
	cpu *cpu.CPU
	mmu *mmu.MMU

	quit atomic.Bool
}

// New decodes the cartridge header, wires up the MMU/CPU, and resets the
// CPU to the documented DMG post-boot register state (§3's lifecycle),
// since boot ROM emulation is out of scope. Returns *cart.InvalidHeader on
// a malformed ROM image.
func New(rom []byte) (*System, error) {
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return nil, err
	}
	m := mmu.New(c)
	cc := cpu.New(m)
	cc.ResetNoBoot()
	m.WriteByte(0xFF40, 0x91) // LCDC: LCD+BG on, OBJ off, BG tilemap 0x9800, tiles 0x8000
	m.WriteByte(0xFF47, 0xFC) // BGP: documented post-boot palette
	return &System{cpu: cc, mmu: m}, nil
}

// NewWithBootROM wires up the MMU/CPU with a 256-byte boot ROM overlaid at
// 0x0000-0x00FF, leaving the CPU at its hardware reset state (PC=0x0000) so
// the boot ROM itself performs the startup sequence, as a host convenience;
// this is not an emulation of the Nintendo logo/checksum boot sequence.
func NewWithBootROM(rom, boot []byte) (*System, error) {
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return nil, err
	}
	m := mmu.New(c)
	m.SetBootROM(boot)
	cc := cpu.New(m)
	return &System{cpu: cc, mmu: m}, nil
}

// MMU exposes the underlying bus, e.g. for a diagnostics runner or a host
// that wants direct access to the cartridge's external RAM view.
func (s *System) MMU() *mmu.MMU { return s.mmu }

// CPU exposes the underlying CPU, e.g. for a diagnostics runner that needs
// to seed registers or single-step outside of RunUntilQuit.
func (s *System) CPU() *cpu.CPU { return s.cpu }

// RequestQuit sets the quit flag, checked at the next tick loop boundary.
// Safe to call from a goroutine other than the one running RunUntilQuit.
func (s *System) RequestQuit() { s.quit.Store(true) }

// RunUntilQuit implements §4.7's tick loop: step the CPU, advance Timer/PPU/
// APU by the returned cycle count, present and poll input once a frame is
// ready, and stop at the next boundary after RequestQuit.
func (s *System) RunUntilQuit(host Host) error {
	for !s.quit.Load() {
		cycles, err := s.cpu.Step()
		if err != nil {
			return err
		}
		s.mmu.Tick(cycles)

		if s.mmu.ConsumeFrameReady() {
			host.Present(s.mmu.Frame())
			if samples := s.mmu.PullStereo(4096); len(samples) > 0 {
				host.AudioSink(samples)
			}
			btn := host.PollInput()
			s.mmu.SetButtons(btn.mask())
		}
	}
	return nil
}
