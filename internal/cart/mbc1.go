package cart

import "log"

// MBC1 implements ROM/RAM banking per spec §4.1: 5-bit low ROM bank select,
// 2-bit RAM-bank/high-ROM-bank select, and the simple/advanced banking-mode
// flag. Banks 0x00, 0x20, 0x40, 0x60 alias to the next bank up.
type MBC1 struct {
	rom []byte
	ram []byte

	romBankLow5       byte // lower 5 bits of ROM bank number (0->1 remapped)
	ramBankOrRomHigh2 byte // RAM bank (mode 1) or ROM bank high bits (mode 0)
	ramEnabled        bool
	modeSelect        byte // 0: ROM banking (default), 1: RAM banking

	romBanks    int
	warnedRange bool
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, romBankLow5: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

func (m *MBC1) clampBank(bank int) int {
	if bank < m.romBanks {
		return bank
	}
	clamped := bank % m.romBanks
	if !m.warnedRange {
		log.Printf("cart: MBC1 bank %d out of range (%d banks available), clamped to %d", bank, m.romBanks, clamped)
		m.warnedRange = true
	}
	return clamped
}

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if m.modeSelect == 0 {
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		}
		bank := m.clampBank(int((m.ramBankOrRomHigh2 & 0x03) << 5))
		off := bank*0x4000 + int(addr)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr < 0x8000:
		bank := m.clampBank(int(m.effectiveROMBank()))
		off := bank*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		ramBank := 0
		if m.modeSelect == 1 {
			ramBank = int(m.ramBankOrRomHigh2 & 0x03)
		}
		off := ramBank*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		m.romBankLow5 = value & 0x1F
		if m.romBankLow5 == 0 {
			m.romBankLow5 = 1
		}
	case addr < 0x6000:
		m.ramBankOrRomHigh2 = value & 0x03
	case addr < 0x8000:
		m.modeSelect = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		ramBank := 0
		if m.modeSelect == 1 {
			ramBank = int(m.ramBankOrRomHigh2 & 0x03)
		}
		off := ramBank*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// effectiveROMBank combines the low 5 bits with the 2 high bits (only
// meaningful in mode 0, but harmless to compute regardless). 0x00, 0x20,
// 0x40, 0x60 can never be produced since romBankLow5 is never 0.
func (m *MBC1) effectiveROMBank() byte {
	high := m.ramBankOrRomHigh2 & 0x03
	return m.romBankLow5 | (high << 5)
}

func (m *MBC1) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}
