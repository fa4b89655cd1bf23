package cart

import "log"

// Cartridge defines the interface the MMU needs for ROM/RAM banking.
// Implementations can be ROM-only or MBC variants. Addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000-0x7FFF) and external RAM (0xA000-0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000-0x7FFF) and external RAM writes (0xA000-0xBFFF).
	Write(addr uint16, value byte)
}

// BatteryBacked is an optional interface for cartridges with external RAM.
// SaveRAM exposes a read-only copy of external RAM, per spec's external
// interface contract; there is no corresponding load path since the core
// does not persist anything itself.
type BatteryBacked interface {
	SaveRAM() []byte
}

// NewCartridge decodes the ROM header and picks an MBC implementation.
// Unsupported cartridge types are downgraded to NoMBC with a logged
// warning rather than failing construction, per spec §4.1.
func NewCartridge(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	switch h.CartType {
	case 0x00, 0x08, 0x09:
		return NewROMOnly(rom), nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return NewMBC3(rom, h.RAMSizeBytes), nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return NewMBC5(rom, h.RAMSizeBytes), nil
	default:
		log.Printf("cart: unsupported cartridge type %#02x (%s), falling back to NoMBC", h.CartType, h.CartTypeStr)
		return NewROMOnly(rom), nil
	}
}
