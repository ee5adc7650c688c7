package ttf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

const tagWOFF Tag = "wOFF"

// ParseWOFF parses the WOFF font format and returns its contained sfnt data. See https://www.w3.org/TR/WOFF/
func ParseWOFF(b []byte) ([]byte, error) {
	r := newBinaryReader(tagWOFF, 0, b)
	signature := r.ReadString(4)
	flavor := r.ReadUint32()
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	totalSfntSize := r.ReadUint32()
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	_ = r.ReadUint32() // metaOffset
	_ = r.ReadUint32() // metaLength
	_ = r.ReadUint32() // metaOrigLength
	_ = r.ReadUint32() // privOffset
	_ = r.ReadUint32() // privLength
	if err := r.Err(); err != nil {
		return nil, err
	} else if signature != "wOFF" {
		return nil, malformed(tagWOFF, 0, "bad signature")
	} else if flavor == 0x74746366 { // ttcf
		return nil, unsupported(tagWOFF, 4, "collections")
	} else if length != uint32(len(b)) {
		return nil, malformed(tagWOFF, 8, "length %d does not match file size %d", length, len(b))
	} else if numTables == 0 {
		return nil, malformed(tagWOFF, 12, "numTables must not be zero")
	} else if reserved != 0 {
		return nil, malformed(tagWOFF, 14, "reserved must be zero")
	} else if MaxMemory < totalSfntSize {
		return nil, ErrExceedsMemory
	} else if r.Len() < 20*uint32(numTables) {
		return nil, r.Errorf("%d table records exceed file length", numTables)
	}

	tables := make([]sfntTable, 0, numTables)
	seen := map[Tag]bool{}
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		recordOffset := r.Offset()
		tag := Tag(r.ReadString(4))
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		_ = r.ReadUint32() // origChecksum
		if seen[tag] {
			return nil, malformed(tag, recordOffset, "table defined more than once")
		} else if uint32(len(b)) < offset || uint32(len(b))-offset < compLength {
			return nil, malformed(tag, recordOffset, "table range %d+%d exceeds file length %d", offset, compLength, len(b))
		} else if origLength < compLength {
			return nil, malformed(tag, recordOffset, "compressed length %d exceeds original length %d", compLength, origLength)
		} else if MaxMemory-uncompressedSize < origLength {
			return nil, ErrExceedsMemory
		}
		seen[tag] = true
		uncompressedSize += origLength

		data := b[offset : offset+compLength]
		if compLength < origLength {
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("%s: %w: %v", tag, ErrMalformedFont, err)
			}
			buf := make([]byte, origLength)
			if _, err := io.ReadFull(zr, buf); err != nil {
				return nil, fmt.Errorf("%s: %w: %v", tag, ErrMalformedFont, err)
			}
			data = buf
		} else {
			data = append([]byte{}, data...)
		}
		tables = append(tables, sfntTable{tag, data})
	}
	tracer().Debugf("woff: unwrapped %d tables", numTables)
	return writeSFNT(flavor, tables)
}
