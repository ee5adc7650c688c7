package ttf

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// MediaType returns the media type (MIME) of the font data: font/truetype for TrueType fonts and collections, font/opentype for CFF-flavoured fonts, and font/woff, font/woff2 or font/eot for the wrapped formats.
func MediaType(b []byte) (string, error) {
	if len(b) < 4 {
		return "", malformed(tagDirectory, 0, "file too short")
	}
	switch tag := string(b[:4]); tag {
	case "\x00\x01\x00\x00", "true", "ttcf":
		return "font/truetype", nil
	case "OTTO":
		return "font/opentype", nil
	case "wOFF":
		return "font/woff", nil
	case "wOF2":
		return "font/woff2", nil
	}
	if 36 <= len(b) && binary.LittleEndian.Uint16(b[34:]) == 0x504C {
		return "font/eot", nil
	}
	return "", unsupported(tagDirectory, 0, "unknown font format")
}

// ToSFNT unwraps WOFF, WOFF2 and EOT fonts into their uncompressed sfnt data. Plain sfnt data is returned as is.
func ToSFNT(b []byte) ([]byte, error) {
	mediatype, err := MediaType(b)
	if err != nil {
		return nil, err
	}
	switch mediatype {
	case "font/woff":
		return ParseWOFF(b)
	case "font/woff2":
		return ParseWOFF2(b)
	case "font/eot":
		return ParseEOT(b)
	}
	return b, nil
}

// sfntTable is a table to be written into an sfnt file.
type sfntTable struct {
	tag  Tag
	data []byte
}

// writeSFNT assembles an sfnt file from tables with the given version (flavor). Tables are sorted by tag, padded to four bytes, and get their checksums computed; head.checkSumAdjustment is set so that the file checksum is correct.
func writeSFNT(version uint32, tables []sfntTable) ([]byte, error) {
	if math.MaxUint16 < len(tables) {
		return nil, fmt.Errorf("too many tables")
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })
	numTables := uint16(len(tables))

	// find values for offset table
	var searchRange uint16 = 1
	var entrySelector uint16
	for searchRange*2 <= numTables {
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 16
	rangeShift := numTables*16 - searchRange

	sfntOffset := 12 + 16*uint32(numTables) // can never exceed uint32 as numTables is uint16
	size := uint64(sfntOffset)
	for _, table := range tables {
		size += uint64(len(table.data)+3) &^ 3
	}
	if uint64(MaxMemory) < size {
		return nil, ErrExceedsMemory
	}

	w := parse.NewBinaryWriter(make([]byte, 0, size))
	w.WriteUint32(version)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	var headOffset uint32
	hasHead := false
	for _, table := range tables {
		if len(table.tag) != 4 {
			return nil, fmt.Errorf("bad table tag %q", table.tag)
		}
		length := uint32(len(table.data))
		if table.tag == TagHead && 12 <= length {
			// clear checkSumAdjustment before computing the checksums
			binary.BigEndian.PutUint32(table.data[8:], 0)
			headOffset, hasHead = sfntOffset, true
		}
		w.WriteBytes([]byte(table.tag))
		w.WriteUint32(CalcChecksum(table.data))
		w.WriteUint32(sfntOffset)
		w.WriteUint32(length)
		sfntOffset += (length + 3) &^ 3
	}
	for _, table := range tables {
		w.WriteBytes(table.data)
		for i := len(table.data); i%4 != 0; i++ {
			w.WriteUint8(0)
		}
	}

	b := w.Bytes()
	if hasHead {
		binary.BigEndian.PutUint32(b[headOffset+8:], fileChecksumMagic-CalcChecksum(b))
	}
	return b, nil
}
