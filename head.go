package ttf

import (
	"math"
	"time"
)

// Head is the font header table.
type Head struct {
	FontRevision           uint32
	CheckSumAdjustment     uint32
	Flags                  [16]bool
	UnitsPerEm             uint16
	Created, Modified      time.Time
	XMin, YMin, XMax, YMax int16
	MacStyle               [16]bool
	LowestRecPPEM          uint16
	FontDirectionHint      int16
	IndexToLocFormat       int16 // 0 for short loca offsets, 1 for long
	GlyphDataFormat        int16
}

// Scale returns the factor converting font units to EM units.
func (head *Head) Scale() float64 {
	return 1.0 / float64(head.UnitsPerEm)
}

var headEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// ParseHead decodes the head table.
func ParseHead(b []byte, table Table) (*Head, error) {
	if table.Length < 54 {
		return nil, malformed(TagHead, table.Offset, "table length %d too short", table.Length)
	}

	head := &Head{}
	r := newBinaryReader(TagHead, table.Offset, table.Bytes(b))
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 || minorVersion != 0 {
		return nil, malformed(TagHead, table.Offset, "bad version %d.%d", majorVersion, minorVersion)
	}
	head.FontRevision = r.ReadUint32()
	head.CheckSumAdjustment = r.ReadUint32()
	if r.ReadUint32() != 0x5F0F3CF5 { // magicNumber
		return nil, r.Errorf("bad magic number")
	}
	head.Flags = Uint16ToFlags(r.ReadUint16())
	head.UnitsPerEm = r.ReadUint16()
	if head.UnitsPerEm < 16 || 16384 < head.UnitsPerEm {
		return nil, r.Errorf("bad unitsPerEm %d", head.UnitsPerEm)
	}
	created := r.ReadUint64()
	modified := r.ReadUint64()
	if math.MaxInt64/uint64(time.Second) < created || math.MaxInt64/uint64(time.Second) < modified {
		// not fatal, some fonts store garbage here
		tracer().Debugf("head: created and/or modified dates too large")
	} else {
		head.Created = headEpoch.Add(time.Second * time.Duration(created))
		head.Modified = headEpoch.Add(time.Second * time.Duration(modified))
	}
	head.XMin = r.ReadInt16()
	head.YMin = r.ReadInt16()
	head.XMax = r.ReadInt16()
	head.YMax = r.ReadInt16()
	head.MacStyle = Uint16ToFlags(r.ReadUint16())
	head.LowestRecPPEM = r.ReadUint16()
	head.FontDirectionHint = r.ReadInt16()
	head.IndexToLocFormat = r.ReadInt16()
	if head.IndexToLocFormat != 0 && head.IndexToLocFormat != 1 {
		return nil, r.Errorf("bad indexToLocFormat %d", head.IndexToLocFormat)
	}
	head.GlyphDataFormat = r.ReadInt16()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return head, nil
}

// Uint16ToFlags converts a uint16 in 16 booleans from least to most significant.
func Uint16ToFlags(v uint16) (flags [16]bool) {
	for i := 0; i < 16; i++ {
		flags[i] = v&(1<<i) != 0
	}
	return
}
