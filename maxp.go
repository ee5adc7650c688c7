package ttf

// Maxp is the maximum profile table. The limits besides NumGlyphs are only present in version 1.0 tables (TrueType outlines).
type Maxp struct {
	Version               uint32
	NumGlyphs             uint16
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

// ParseMaxp decodes the maxp table.
func ParseMaxp(b []byte, table Table) (*Maxp, error) {
	maxp := &Maxp{}
	r := newBinaryReader(TagMaxp, table.Offset, table.Bytes(b))
	maxp.Version = r.ReadUint32()
	maxp.NumGlyphs = r.ReadUint16()
	if err := r.Err(); err != nil {
		return nil, err
	} else if maxp.NumGlyphs == 0 {
		return nil, malformed(TagMaxp, table.Offset+4, "numGlyphs must be at least one")
	}

	switch maxp.Version {
	case 0x00005000:
		return maxp, nil
	case 0x00010000:
		if r.Len() < 26 {
			return nil, r.Errorf("version 1.0 table too short")
		}
		maxp.MaxPoints = r.ReadUint16()
		maxp.MaxContours = r.ReadUint16()
		maxp.MaxCompositePoints = r.ReadUint16()
		maxp.MaxCompositeContours = r.ReadUint16()
		maxp.MaxZones = r.ReadUint16()
		maxp.MaxTwilightPoints = r.ReadUint16()
		maxp.MaxStorage = r.ReadUint16()
		maxp.MaxFunctionDefs = r.ReadUint16()
		maxp.MaxInstructionDefs = r.ReadUint16()
		maxp.MaxStackElements = r.ReadUint16()
		maxp.MaxSizeOfInstructions = r.ReadUint16()
		maxp.MaxComponentElements = r.ReadUint16()
		maxp.MaxComponentDepth = r.ReadUint16()
		return maxp, nil
	}
	return nil, malformed(TagMaxp, table.Offset, "bad version 0x%08X", maxp.Version)
}
