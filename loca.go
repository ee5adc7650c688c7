package ttf

// ParseLoca decodes the loca table into numGlyphs+1 offsets relative to the start of the glyf table. Glyph i occupies [offsets[i],offsets[i+1]).
func ParseLoca(b []byte, table Table, numGlyphs uint16, indexToLocFormat int16) ([]uint32, error) {
	n := uint32(numGlyphs) + 1
	var entrySize uint32
	switch indexToLocFormat {
	case 0:
		entrySize = 2
	case 1:
		entrySize = 4
	default:
		return nil, malformed(TagLoca, table.Offset, "bad indexToLocFormat %d", indexToLocFormat)
	}
	if table.Length < entrySize*n {
		return nil, malformed(TagLoca, table.Offset, "table length %d too short for %d offsets", table.Length, n)
	}

	offsets := make([]uint32, n)
	r := newBinaryReader(TagLoca, table.Offset, table.Bytes(b))
	for i := uint32(0); i < n; i++ {
		if entrySize == 2 {
			offsets[i] = 2 * uint32(r.ReadUint16())
		} else {
			offsets[i] = r.ReadUint32()
		}
		if 0 < i && offsets[i] < offsets[i-1] {
			return nil, malformed(TagLoca, table.Offset+i*entrySize, "offset %d of glyph %d decreases", offsets[i], i)
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return offsets, nil
}
