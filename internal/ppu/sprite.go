package ppu

import "sort"

// Sprite is a decoded OAM entry used to compose one scanline. X and Y are
// already adjusted to screen space (raw OAM bytes minus 8 and 16
// respectively), so Y==LY means the sprite's first row is on this line.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

const maxSpritesPerLine = 10

// ScanOAMForLine selects up to 10 sprites (OAM order) whose vertical extent
// intersects the given scanline, per §4.5 step 3.
func ScanOAMForLine(oam [0xA0]byte, ly byte, tall bool) []Sprite {
	height := 8
	if tall {
		height = 16
	}
	var out []Sprite
	for i := 0; i < 40 && len(out) < maxSpritesPerLine; i++ {
		base := i * 4
		y := int(oam[base+0]) - 16
		x := int(oam[base+1]) - 8
		row := int(ly) - y
		if row < 0 || row >= height {
			continue
		}
		out = append(out, Sprite{X: x, Y: y, Tile: oam[base+2], Attr: oam[base+3], OAMIndex: i})
	}
	return out
}

// ComposeSpriteLine renders a scanline of sprite color indices (0 meaning
// transparent / no sprite). See composeSpriteLine for the palette-tracking
// variant used by the full PPU compositor.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tall bool) [160]byte {
	ci, _ := composeSpriteLine(mem, sprites, ly, bgci, tall)
	return ci
}

// composeSpriteLine applies DMG sprite priority (lower X wins, ties broken
// by lower OAM index), X/Y flip, 8x16 mode, and the BG-over-OBJ attribute
// bit. pal[x] records which OBP register (0 or 1) produced ci[x].
func composeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tall bool) (ci, pal [160]byte) {
	if len(sprites) == 0 {
		return ci, pal
	}

	height := 8
	if tall {
		height = 16
	}

	ordered := make([]Sprite, len(sprites))
	copy(ordered, sprites)
	// Draw lowest-priority sprite first so higher-priority sprites overwrite.
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].X != ordered[j].X {
			return ordered[i].X > ordered[j].X
		}
		return ordered[i].OAMIndex > ordered[j].OAMIndex
	})

	for _, s := range ordered {
		row := int(ly) - s.Y
		if row < 0 || row >= height {
			continue
		}
		if s.Attr&(1<<6) != 0 { // Y-flip
			row = height - 1 - row
		}
		tile := s.Tile
		if tall {
			tile &^= 0x01 // 8x16 mode ignores bit 0 of the tile index
			if row >= 8 {
				tile++
				row -= 8
			}
		}
		base := uint16(0x8000) + uint16(tile)*16 + uint16(row)*2
		lo := mem.Read(base)
		hi := mem.Read(base + 1)

		for col := 0; col < 8; col++ {
			screenX := s.X + col
			if screenX < 0 || screenX >= 160 {
				continue
			}
			bit := byte(7 - col)
			if s.Attr&(1<<5) != 0 { // X-flip
				bit = byte(col)
			}
			px := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if px == 0 {
				continue // sprite color 0 is always transparent
			}
			if s.Attr&(1<<7) != 0 && bgci[screenX] != 0 { // BG-over-OBJ
				continue
			}
			ci[screenX] = px
			if s.Attr&(1<<4) != 0 {
				pal[screenX] = 1
			} else {
				pal[screenX] = 0
			}
		}
	}
	return ci, pal
}
