package ttf

// HMetric is the horizontal metric of a glyph in font units.
type HMetric struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

// ParseHmtx decodes the hmtx table into one metric per glyph. Glyphs beyond the last long metric record reuse its advance width. If numberOfHMetrics is zero, it is inferred from the table length.
func ParseHmtx(b []byte, table Table, numGlyphs, numberOfHMetrics uint16) ([]HMetric, error) {
	if numGlyphs == 0 {
		return nil, malformed(TagHmtx, table.Offset, "numGlyphs must be at least one")
	} else if numberOfHMetrics == 0 {
		// length = 4*n + 2*(numGlyphs-n) = 2*numGlyphs + 2*n
		if table.Length < 2*uint32(numGlyphs)+2 {
			return nil, malformed(TagHmtx, table.Offset, "table length %d too short for %d glyphs", table.Length, numGlyphs)
		}
		n := (table.Length - 2*uint32(numGlyphs)) / 2
		if uint32(numGlyphs) < n {
			n = uint32(numGlyphs)
		}
		numberOfHMetrics = uint16(n)
	} else if numGlyphs < numberOfHMetrics {
		return nil, malformed(TagHmtx, table.Offset, "numberOfHMetrics %d exceeds %d glyphs", numberOfHMetrics, numGlyphs)
	}

	length := 4*uint32(numberOfHMetrics) + 2*uint32(numGlyphs-numberOfHMetrics)
	if table.Length < length {
		return nil, malformed(TagHmtx, table.Offset, "table length %d too short, need %d", table.Length, length)
	}

	metrics := make([]HMetric, numGlyphs)
	r := newBinaryReader(TagHmtx, table.Offset, table.Bytes(b))
	for i := 0; i < int(numberOfHMetrics); i++ {
		metrics[i].AdvanceWidth = r.ReadUint16()
		metrics[i].LeftSideBearing = r.ReadInt16()
	}
	advance := metrics[numberOfHMetrics-1].AdvanceWidth
	for i := int(numberOfHMetrics); i < int(numGlyphs); i++ {
		metrics[i].AdvanceWidth = advance
		metrics[i].LeftSideBearing = r.ReadInt16()
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return metrics, nil
}
