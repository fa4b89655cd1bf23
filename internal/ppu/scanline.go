package ppu

// renderBGScanline renders 160 BG color indices for the given LY by driving
// the bgFetcher/fifo tile-by-tile, discarding SCX's fractional pixels and
// wrapping the tilemap row at 32 tiles, per §4.5 step 1.
func renderBGScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, scx, scy, ly byte) [160]byte {
	var out [160]byte

	// Compute BG coordinates.
	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31 // 0..31 rows

	startX := uint16(scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	// Map index address for the first tile column.
	tileIndexAddr := mapBase + mapY*32 + tileX

	var q fifo
	f := newBGFetcher(mem, &q)
	f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
	f.Fetch()
	// Discard scx fractional pixels.
	for i := 0; i < fineX; i++ {
		_, _ = q.Pop()
	}

	// Produce 160 pixels, fetching new tiles as the FIFO empties.
	for x := 0; x < 160; x++ {
		if q.Len() == 0 {
			// Advance to next tile in map row (wrap at 32 tiles).
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
			f.Fetch()
		}
		px, _ := q.Pop()
		out[x] = px
	}
	return out
}

// renderWindowScanline renders the window layer for a scanline, reusing the
// same bgFetcher but always starting at tile column 0 of the window's own
// map (the window has no independent scroll register). Fills pixels from
// wxStart (WX-7) onward; pixels before wxStart are left 0 for the caller to
// overlay onto the BG row it already composed, per §4.5 step 2.
func renderWindowScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, wxStart int, winLine byte) [160]byte {
	var out [160]byte
	if wxStart >= 160 {
		return out
	}
	if wxStart < 0 {
		wxStart = 0
	}
	// Compute window tile row and fineY
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7
	tileX := uint16(0)
	tileIndexAddr := mapBase + mapY*32 + tileX
	var q fifo
	f := newBGFetcher(mem, &q)
	f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
	f.Fetch()
	for x := wxStart; x < 160; x++ {
		if q.Len() == 0 {
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
			f.Fetch()
		}
		px, _ := q.Pop()
		out[x] = px
	}
	return out
}
