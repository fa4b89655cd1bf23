package presentation

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"image/color"

	"github.com/arrankleinschmidt/gbcore/internal/cart"
)

// Palette maps a PPU 2-bit color index (0 lightest, 3 darkest) to an RGBA
// shade. The core only ever produces indices; choosing what they look like
// is a presentation concern.
type Palette [4]color.RGBA

// namedPalette builds a 4-shade ramp by interpolating between a light and a
// dark anchor color in Lab space, which keeps the mid shades perceptually
// even instead of the muddy middle a naive RGB lerp produces.
func namedPalette(lightHex, darkHex string) Palette {
	light, err1 := colorful.Hex(lightHex)
	dark, err2 := colorful.Hex(darkHex)
	if err1 != nil || err2 != nil {
		light, dark = colorful.Color{R: 0.9, G: 0.95, B: 0.8}, colorful.Color{R: 0.05, G: 0.15, B: 0.05}
	}
	var p Palette
	for i := 0; i < 4; i++ {
		t := float64(i) / 3
		c := light.BlendLab(dark, t).Clamped()
		r, g, b := c.RGB255()
		p[i] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	}
	return p
}

// compatPalettes are the host's DMG-palette choices. Index 0 is the
// default; indices 1-5 are available for auto-detection and manual
// cycling. This is a DMG-only color choice, not a Game Boy Color mode.
var compatPalettes = []Palette{
	namedPalette("#9BBC0F", "#0F380F"), // 0: classic green
	namedPalette("#FFE4C4", "#5A3A22"), // 1: sepia
	namedPalette("#C4D7FF", "#1B2A63"), // 2: blue
	namedPalette("#FFD1C4", "#6B1B1B"), // 3: red
	namedPalette("#F5E1FF", "#5B3A6B"), // 4: pastel
	namedPalette("#D9D9D9", "#1A1A1A"), // 5: greyscale
}

// PaletteCount returns how many named palettes are available for cycling.
func PaletteCount() int { return len(compatPalettes) }

// PaletteByID returns the palette at id, clamped to the valid range.
func PaletteByID(id int) Palette {
	if id < 0 {
		id = 0
	}
	if id >= len(compatPalettes) {
		id = len(compatPalettes) - 1
	}
	return compatPalettes[id]
}

// compatTitleExact maps exact, normalized titles to a preferred palette ID.
var compatTitleExact = map[string]int{
	"TETRIS":              2,
	"TETRIS DX":           2,
	"SUPER MARIO LAND":    3,
	"SUPER MARIO LAND 2":  3,
	"DR. MARIO":           4,
	"DONKEY KONG":         1,
	"THE LEGEND OF ZELDA": 0,
	"ZELDA":               0,
	"METROID II":          3,
	"KIRBY'S DREAM LAND":  4,
	"MEGA MAN":            2,
	"MEGAMAN":             2,
	"WARIO LAND":          1,
	"POKEMON YELLOW":      4,
	"POKEMON RED":         4,
	"POKEMON BLUE":        4,
	"POCKET MONSTERS":     4,
}

type containsRule struct {
	substr string
	id     int
}

// compatTitleContains applies broader substring heuristics for families not
// caught by an exact title match.
var compatTitleContains = []containsRule{
	{"TETRIS", 2},
	{"MARIO", 3},
	{"ZELDA", 0},
	{"KIRBY", 4},
	{"DONKEY KONG", 1},
	{"METROID", 3},
	{"MEGA MAN", 2},
	{"MEGAMAN", 2},
	{"WARIO", 1},
	{"POKEMON", 4},
	{"POCKET MONSTERS", 4},
}

// AutoPaletteID picks a default palette ID for a cartridge using a small
// title table, then a stable fallback keyed on licensee/header checksum so
// the choice doesn't change across sessions for the same ROM.
func AutoPaletteID(h *cart.Header) int {
	if h == nil {
		return 0
	}
	t := strings.ToUpper(strings.TrimSpace(strings.TrimRight(h.Title, "\x00")))
	if id, ok := compatTitleExact[t]; ok {
		return id
	}
	for _, r := range compatTitleContains {
		if strings.Contains(t, r.substr) {
			return r.id
		}
	}
	nintendo := h.OldLicensee == 0x01
	if h.OldLicensee == 0x33 {
		nintendo = strings.ToUpper(h.NewLicensee) == "01"
	}
	if nintendo {
		return int(h.HeaderChecksum) % len(compatPalettes)
	}
	return 0
}
