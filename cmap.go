package ttf

import (
	"fmt"
	"sort"

	"golang.org/x/text/encoding/charmap"
)

// MaxCmapSegments is the maximum number of format 4 segments or format 12 groups that will be accepted.
const MaxCmapSegments = 20000

// CharacterMap maps a Unicode code point to a glyph index.
type CharacterMap struct {
	Unicode    rune
	GlyphIndex uint16
}

// CmapEncoding is an encoding record of the cmap table.
type CmapEncoding struct {
	PlatformID uint16
	EncodingID uint16
	Offset     uint32 // relative to the start of the cmap table
	Format     uint16
}

// rank orders encoding records by how well they cover Unicode, higher is better. It returns -1 for records that cannot be used.
func (enc CmapEncoding) rank() int {
	switch enc.Format {
	case 0, 4, 6, 12:
	default:
		return -1
	}
	switch {
	case enc.PlatformID == 3 && enc.EncodingID == 10:
		return 6
	case enc.PlatformID == 0 && (enc.EncodingID == 4 || enc.EncodingID == 6):
		return 5
	case enc.PlatformID == 3 && enc.EncodingID == 1:
		return 4
	case enc.PlatformID == 0 && enc.EncodingID == 3:
		return 3
	case enc.PlatformID == 0:
		return 2
	case enc.PlatformID == 3 && enc.EncodingID == 0:
		return 1
	case enc.PlatformID == 1 && enc.EncodingID == 0:
		return 0
	}
	return -1
}

func (enc CmapEncoding) String() string {
	return fmt.Sprintf("platform=%d encoding=%d format=%d", enc.PlatformID, enc.EncodingID, enc.Format)
}

// ParseCmapEncodings returns the encoding records of the cmap table in file order.
func ParseCmapEncodings(b []byte, table Table) ([]CmapEncoding, error) {
	r := newBinaryReader(TagCmap, table.Offset, table.Bytes(b))
	if version := r.ReadUint16(); version != 0 && r.Err() == nil {
		return nil, malformed(TagCmap, table.Offset, "bad version %d", version)
	}
	numTables := r.ReadUint16()
	if err := r.Err(); err != nil {
		return nil, err
	} else if r.Len() < 8*uint32(numTables) {
		return nil, r.Errorf("%d encoding records exceed table length %d", numTables, table.Length)
	}

	encs := make([]CmapEncoding, numTables)
	for i := range encs {
		recordOffset := r.Offset()
		encs[i].PlatformID = r.ReadUint16()
		encs[i].EncodingID = r.ReadUint16()
		encs[i].Offset = r.ReadUint32()
		if table.Length < 2 || table.Length-2 < encs[i].Offset {
			return nil, malformed(TagCmap, recordOffset, "subtable offset %d exceeds table length %d", encs[i].Offset, table.Length)
		}
		rs := newBinaryReader(TagCmap, table.Offset+encs[i].Offset, table.Bytes(b)[encs[i].Offset:])
		encs[i].Format = rs.ReadUint16()
	}
	return encs, nil
}

// selectCmapEncoding returns the index of the best ranked encoding record. Ties are resolved in favour of the first record.
func selectCmapEncoding(encs []CmapEncoding) (int, bool) {
	best, bestRank := -1, -1
	for i, enc := range encs {
		if rank := enc.rank(); bestRank < rank {
			best, bestRank = i, rank
		}
	}
	return best, best != -1
}

// cmapSubtable is a decoded and validated cmap subtable.
type cmapSubtable interface {
	// forEach calls f for each mapping in ascending order of character code.
	forEach(f func(code uint32, glyphID uint16))
}

type cmapFormat0 struct {
	GlyphIdArray [256]uint8
}

func (subtable *cmapFormat0) forEach(f func(uint32, uint16)) {
	for code, glyphID := range subtable.GlyphIdArray {
		f(uint32(code), uint16(glyphID))
	}
}

type cmapFormat4 struct {
	data          []byte // subtable bytes for indirect lookups
	StartCode     []uint16
	EndCode       []uint16
	IdDelta       []int16
	IdRangeOffset []uint16
}

// glyphIdArrayAddress returns the byte offset within the subtable of the glyphIdArray entry of code in segment i.
func (subtable *cmapFormat4) glyphIdArrayAddress(i int, code uint16) uint32 {
	segCount := uint32(len(subtable.StartCode))
	idRangeOffsetAddress := 16 + 6*segCount + 2*uint32(i)
	return idRangeOffsetAddress + uint32(subtable.IdRangeOffset[i]) + 2*uint32(code-subtable.StartCode[i])
}

func (subtable *cmapFormat4) glyphID(i int, code uint16) uint16 {
	if subtable.IdRangeOffset[i] == 0 {
		// is modulo 65536 with the idDelta cast and addition overflow
		return code + uint16(subtable.IdDelta[i])
	}
	address := subtable.glyphIdArrayAddress(i, code)
	glyphID := uint16(subtable.data[address])<<8 | uint16(subtable.data[address+1])
	if glyphID == 0 {
		return 0
	}
	return glyphID + uint16(subtable.IdDelta[i])
}

func (subtable *cmapFormat4) forEach(f func(uint32, uint16)) {
	for i := range subtable.StartCode {
		for code := uint32(subtable.StartCode[i]); code <= uint32(subtable.EndCode[i]); code++ {
			if code == 0xFFFF {
				break // noncharacter terminating the last segment
			}
			f(code, subtable.glyphID(i, uint16(code)))
		}
	}
}

type cmapFormat6 struct {
	FirstCode    uint16
	GlyphIdArray []uint16
}

func (subtable *cmapFormat6) forEach(f func(uint32, uint16)) {
	for i, glyphID := range subtable.GlyphIdArray {
		f(uint32(subtable.FirstCode)+uint32(i), glyphID)
	}
}

type cmapFormat12 struct {
	StartCharCode []uint32
	EndCharCode   []uint32
	StartGlyphID  []uint32
	numGlyphs     uint16
}

func (subtable *cmapFormat12) forEach(f func(uint32, uint16)) {
	for i := range subtable.StartCharCode {
		if uint32(subtable.numGlyphs) <= subtable.StartGlyphID[i] || 0x10FFFF < subtable.StartCharCode[i] {
			continue
		}
		// only visit codes that map below numGlyphs, groups may span large ranges
		end := subtable.EndCharCode[i]
		if 0x10FFFF < end {
			end = 0x10FFFF
		}
		if n := uint32(subtable.numGlyphs) - subtable.StartGlyphID[i]; n-1 < end-subtable.StartCharCode[i] {
			end = subtable.StartCharCode[i] + n - 1
		}
		for code := subtable.StartCharCode[i]; code <= end; code++ {
			f(code, uint16(subtable.StartGlyphID[i]+(code-subtable.StartCharCode[i])))
		}
	}
}

// cmapMacRoman translates a single-byte Mac Roman subtable to Unicode.
type cmapMacRoman struct {
	entries []CharacterMap // sorted by Unicode
}

func newCmapMacRoman(subtable cmapSubtable) *cmapMacRoman {
	entries := []CharacterMap{}
	subtable.forEach(func(code uint32, glyphID uint16) {
		if code < 256 {
			entries = append(entries, CharacterMap{charmap.Macintosh.DecodeByte(byte(code)), glyphID})
		}
	})
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Unicode < entries[j].Unicode })
	return &cmapMacRoman{entries}
}

func (subtable *cmapMacRoman) forEach(f func(uint32, uint16)) {
	for _, entry := range subtable.entries {
		f(uint32(entry.Unicode), entry.GlyphIndex)
	}
}

// visitCmap calls f for every usable mapping of subtable in ascending and unique order of code point. Glyph 0, glyph indices beyond numGlyphs and invalid code points are skipped.
func visitCmap(subtable cmapSubtable, numGlyphs uint16, f func(CharacterMap)) {
	last := int64(-1)
	subtable.forEach(func(code uint32, glyphID uint16) {
		if int64(code) <= last || 0x10FFFF < code || glyphID == 0 || numGlyphs <= glyphID {
			return
		}
		last = int64(code)
		f(CharacterMap{rune(code), glyphID})
	})
}

func parseCmapSubtable(b []byte, table Table, enc CmapEncoding, numGlyphs uint16) (cmapSubtable, error) {
	data := table.Bytes(b)[enc.Offset:]
	base := table.Offset + enc.Offset
	r := newBinaryReader(TagCmap, base, data)
	format := r.ReadUint16()

	var length uint32
	if format < 8 {
		length = uint32(r.ReadUint16())
	} else {
		_ = r.ReadUint16() // reserved
		length = r.ReadUint32()
	}
	if err := r.Err(); err != nil {
		return nil, err
	} else if uint32(len(data)) < length {
		return nil, malformed(TagCmap, base, "format %d subtable length %d exceeds table", format, length)
	}
	data = data[:length]
	r = newBinaryReader(TagCmap, base, data)
	if format < 8 {
		r.Seek(4)
	} else {
		r.Seek(8)
	}

	var subtable cmapSubtable
	switch format {
	case 0:
		if length < 262 {
			return nil, malformed(TagCmap, base, "format 0 subtable length %d too short", length)
		}
		_ = r.ReadUint16() // language

		format0 := &cmapFormat0{}
		copy(format0.GlyphIdArray[:], r.ReadBytes(256))
		subtable = format0
	case 4:
		_ = r.ReadUint16() // language
		segCountX2 := r.ReadUint16()
		if err := r.Err(); err != nil {
			return nil, err
		} else if segCountX2%2 != 0 || segCountX2 == 0 {
			return nil, malformed(TagCmap, base+6, "bad segCountX2 %d", segCountX2)
		}
		segCount := uint32(segCountX2 / 2)
		if MaxCmapSegments < segCount {
			return nil, malformed(TagCmap, base+6, "too many segments %d", segCount)
		}
		r.Skip(6) // searchRange, entrySelector, rangeShift
		if r.Len() < 2+8*segCount {
			return nil, r.Errorf("%d segments exceed subtable length %d", segCount, length)
		}

		format4 := &cmapFormat4{
			data:          data,
			EndCode:       make([]uint16, segCount),
			StartCode:     make([]uint16, segCount),
			IdDelta:       make([]int16, segCount),
			IdRangeOffset: make([]uint16, segCount),
		}
		for i := range format4.EndCode {
			format4.EndCode[i] = r.ReadUint16()
			if 0 < i && format4.EndCode[i] <= format4.EndCode[i-1] {
				return nil, r.Errorf("endCode not strictly increasing")
			}
		}
		if format4.EndCode[segCount-1] != 0xFFFF {
			return nil, r.Errorf("last endCode must be 0xFFFF")
		}
		_ = r.ReadUint16() // reservedPad
		for i := range format4.StartCode {
			format4.StartCode[i] = r.ReadUint16()
			if format4.EndCode[i] < format4.StartCode[i] || 0 < i && format4.StartCode[i] <= format4.EndCode[i-1] {
				return nil, r.Errorf("bad startCode %d for segment %d", format4.StartCode[i], i)
			}
		}
		for i := range format4.IdDelta {
			format4.IdDelta[i] = r.ReadInt16()
		}
		for i := range format4.IdRangeOffset {
			format4.IdRangeOffset[i] = r.ReadUint16()
			lastCode := format4.EndCode[i]
			if lastCode == 0xFFFF {
				lastCode-- // never looked up
			}
			if format4.IdRangeOffset[i] == 0 || lastCode < format4.StartCode[i] {
				continue
			} else if format4.IdRangeOffset[i]%2 != 0 {
				return nil, r.Errorf("odd idRangeOffset %d", format4.IdRangeOffset[i])
			} else if length < format4.glyphIdArrayAddress(i, lastCode)+2 {
				return nil, r.Errorf("idRangeOffset of segment %d exceeds subtable length %d", i, length)
			}
		}
		subtable = format4
	case 6:
		_ = r.ReadUint16() // language
		format6 := &cmapFormat6{}
		format6.FirstCode = r.ReadUint16()
		entryCount := r.ReadUint16()
		if err := r.Err(); err != nil {
			return nil, err
		} else if r.Len() < 2*uint32(entryCount) {
			return nil, r.Errorf("%d entries exceed subtable length %d", entryCount, length)
		} else if 0x10000 < uint32(format6.FirstCode)+uint32(entryCount) {
			return nil, r.Errorf("entries exceed 16-bit character codes")
		}
		format6.GlyphIdArray = make([]uint16, entryCount)
		for i := range format6.GlyphIdArray {
			format6.GlyphIdArray[i] = r.ReadUint16()
		}
		subtable = format6
	case 12:
		_ = r.ReadUint32() // language
		numGroups := r.ReadUint32()
		if err := r.Err(); err != nil {
			return nil, err
		} else if MaxCmapSegments < numGroups {
			return nil, r.Errorf("too many groups %d", numGroups)
		} else if r.Len() < 12*numGroups {
			return nil, r.Errorf("%d groups exceed subtable length %d", numGroups, length)
		}

		format12 := &cmapFormat12{
			StartCharCode: make([]uint32, numGroups),
			EndCharCode:   make([]uint32, numGroups),
			StartGlyphID:  make([]uint32, numGroups),
			numGlyphs:     numGlyphs,
		}
		for i := 0; i < int(numGroups); i++ {
			format12.StartCharCode[i] = r.ReadUint32()
			format12.EndCharCode[i] = r.ReadUint32()
			format12.StartGlyphID[i] = r.ReadUint32()
			if format12.EndCharCode[i] < format12.StartCharCode[i] || 0 < i && format12.StartCharCode[i] <= format12.EndCharCode[i-1] {
				return nil, r.Errorf("bad character code range %d-%d in group %d", format12.StartCharCode[i], format12.EndCharCode[i], i)
			}
		}
		subtable = format12
	default:
		return nil, unsupported(TagCmap, base, "subtable format %d", format)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if enc.PlatformID == 1 {
		subtable = newCmapMacRoman(subtable)
	}
	return subtable, nil
}

// CmapSize is the result of sizing the cmap table. It allocates nothing for the mappings and can fill exactly one caller-allocated slice of length Len.
type CmapSize struct {
	Encoding CmapEncoding

	subtable  cmapSubtable
	numGlyphs uint16
	n         int
	filled    bool
}

// GetCmapSize selects the best Unicode subtable of the cmap table and counts its usable mappings. Glyph 0 and glyph indices of numGlyphs or larger are not counted.
func GetCmapSize(b []byte, table Table, numGlyphs uint16) (*CmapSize, error) {
	encs, err := ParseCmapEncodings(b, table)
	if err != nil {
		return nil, err
	}
	i, ok := selectCmapEncoding(encs)
	if !ok {
		return nil, unsupported(TagCmap, table.Offset, "no supported subtable among %d encoding records", len(encs))
	}
	tracer().Debugf("cmap: selected %v", encs[i])

	subtable, err := parseCmapSubtable(b, table, encs[i], numGlyphs)
	if err != nil {
		return nil, err
	}
	size := &CmapSize{
		Encoding:  encs[i],
		subtable:  subtable,
		numGlyphs: numGlyphs,
	}
	visitCmap(subtable, numGlyphs, func(CharacterMap) { size.n++ })
	return size, nil
}

// Len returns the number of mappings that Fill writes.
func (size *CmapSize) Len() int {
	return size.n
}

// Fill writes the mappings in ascending order of code point into dst, whose length must equal Len. A CmapSize can be filled only once.
func (size *CmapSize) Fill(dst []CharacterMap) error {
	if size.filled {
		return fmt.Errorf("cmap: %w: already filled", ErrCmapSizeMismatch)
	} else if len(dst) != size.n {
		return fmt.Errorf("cmap: %w: got %d entries, sized for %d", ErrCmapSizeMismatch, len(dst), size.n)
	}
	size.filled = true

	i := 0
	visitCmap(size.subtable, size.numGlyphs, func(entry CharacterMap) {
		dst[i] = entry
		i++
	})
	size.subtable = nil
	return nil
}

// ParseCmap decodes the best Unicode subtable of the cmap table into mappings sorted by code point.
func ParseCmap(b []byte, table Table, numGlyphs uint16) ([]CharacterMap, error) {
	size, err := GetCmapSize(b, table, numGlyphs)
	if err != nil {
		return nil, err
	}
	cmap := make([]CharacterMap, size.Len())
	if err := size.Fill(cmap); err != nil {
		return nil, err
	}
	return cmap, nil
}

// LookupGlyphIndex returns the glyph index of r in a sorted character map.
func LookupGlyphIndex(cmap []CharacterMap, r rune) (uint16, bool) {
	i := sort.Search(len(cmap), func(i int) bool { return r <= cmap[i].Unicode })
	if i < len(cmap) && cmap[i].Unicode == r {
		return cmap[i].GlyphIndex, true
	}
	return 0, false
}
