package cart

import "log"

// MBC3 implements ROM/RAM banking (RTC not implemented). Supplements the
// NoMBC/MBC1 pair spec.md documents in detail; see SPEC_FULL.md §D.
//
// Banking:
//   - 0000-1FFF: RAM enable (0x0A in low nibble)
//   - 2000-3FFF: ROM bank, low 7 bits (0 maps to 1)
//   - 4000-5FFF: RAM bank 0-3, or RTC register select 08-0C (RTC ignored,
//     treated as RAM bank 0)
//   - 6000-7FFF: latch clock data (ignored, no RTC)
//   - A000-BFFF: external RAM when enabled and present
type MBC3 struct {
	rom []byte
	ram []byte

	ramEnabled bool
	romBank    byte // 7 bits (1..127)
	ramBank    byte // 0..3 (others ignored to 0)

	romBanks    int
	warnedRange bool
}

func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{rom: rom, romBank: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

// clampBank wraps an out-of-range bank selection to the available bank
// count via modulo, per spec §7's BankOutOfRange policy, logging once.
func (m *MBC3) clampBank(bank int) int {
	if bank < m.romBanks {
		return bank
	}
	clamped := bank % m.romBanks
	if !m.warnedRange {
		log.Printf("cart: MBC3 bank %d out of range (%d banks available), clamped to %d", bank, m.romBanks, clamped)
		m.warnedRange = true
	}
	return clamped
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		bank = m.clampBank(bank)
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		rb := int(m.ramBank & 0x03)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		if value <= 0x03 {
			m.ramBank = value & 0x03
		} else {
			m.ramBank = 0
		}
	case addr < 0x8000:
		_ = value // clock latch: no RTC to latch
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		rb := int(m.ramBank & 0x03)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *MBC3) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}
