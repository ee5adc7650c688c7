package ttf

// Hhea is the horizontal header table.
type Hhea struct {
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	MetricDataFormat    int16
	NumberOfHMetrics    uint16
}

// ParseHhea decodes the hhea table. NumberOfHMetrics must lie within [1,numGlyphs].
func ParseHhea(b []byte, table Table, numGlyphs uint16) (*Hhea, error) {
	if table.Length < 36 {
		return nil, malformed(TagHhea, table.Offset, "table length %d too short", table.Length)
	}

	hhea := &Hhea{}
	r := newBinaryReader(TagHhea, table.Offset, table.Bytes(b))
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 || minorVersion != 0 {
		return nil, malformed(TagHhea, table.Offset, "bad version %d.%d", majorVersion, minorVersion)
	}
	hhea.Ascender = r.ReadInt16()
	hhea.Descender = r.ReadInt16()
	hhea.LineGap = r.ReadInt16()
	hhea.AdvanceWidthMax = r.ReadUint16()
	hhea.MinLeftSideBearing = r.ReadInt16()
	hhea.MinRightSideBearing = r.ReadInt16()
	hhea.XMaxExtent = r.ReadInt16()
	hhea.CaretSlopeRise = r.ReadInt16()
	hhea.CaretSlopeRun = r.ReadInt16()
	hhea.CaretOffset = r.ReadInt16()
	r.Skip(8) // reserved
	hhea.MetricDataFormat = r.ReadInt16()
	hhea.NumberOfHMetrics = r.ReadUint16()
	if err := r.Err(); err != nil {
		return nil, err
	} else if hhea.NumberOfHMetrics == 0 || numGlyphs < hhea.NumberOfHMetrics {
		return nil, malformed(TagHhea, table.Offset+34, "bad numberOfHMetrics %d for %d glyphs", hhea.NumberOfHMetrics, numGlyphs)
	}
	return hhea, nil
}
