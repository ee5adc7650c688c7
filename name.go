package ttf

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NameID identifies a string in the name table.
type NameID uint16

// see NameID
const (
	NameCopyrightNotice NameID = 0
	NameFontFamily      NameID = 1
	NameFontSubfamily   NameID = 2
	NameUniqueID        NameID = 3
	NameFull            NameID = 4
	NameVersion         NameID = 5
	NamePostScript      NameID = 6
)

// NameRecord is a string of the name table. Value holds the raw encoded bytes.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     NameID
	Value      []byte
}

// String decodes the record from UTF-16BE (Unicode and Windows platforms) or Mac Roman.
func (record NameRecord) String() string {
	var decoder *encoding.Decoder
	if record.PlatformID == 0 || record.PlatformID == 3 {
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	} else if record.PlatformID == 1 && record.EncodingID == 0 {
		decoder = charmap.Macintosh.NewDecoder()
	} else {
		return string(record.Value)
	}
	s, _, err := transform.String(decoder, string(record.Value))
	if err != nil {
		return string(record.Value)
	}
	return s
}

// Name is the naming table.
type Name struct {
	Records []NameRecord
}

// Get returns the preferred string for id: English (US) Windows records first, then Unicode and Macintosh records. It returns an empty string if there is none.
func (name *Name) Get(id NameID) string {
	best, bestRank := -1, 0
	for i, record := range name.Records {
		if record.NameID != id {
			continue
		}
		rank := 1
		if record.PlatformID == 3 && record.LanguageID == 0x0409 {
			rank = 4
		} else if record.PlatformID == 3 {
			rank = 3
		} else if record.PlatformID == 0 {
			rank = 2
		}
		if bestRank < rank {
			best, bestRank = i, rank
		}
	}
	if best == -1 {
		return ""
	}
	return name.Records[best].String()
}

// ParseName decodes the name table. Record values are copied out of b.
func ParseName(b []byte, table Table) (*Name, error) {
	data := table.Bytes(b)
	r := newBinaryReader(TagName, table.Offset, data)
	version := r.ReadUint16()
	count := r.ReadUint16()
	storageOffset := r.ReadUint16()
	if err := r.Err(); err != nil {
		return nil, err
	} else if version != 0 && version != 1 {
		return nil, malformed(TagName, table.Offset, "bad version %d", version)
	} else if r.Len() < 12*uint32(count) || table.Length < uint32(storageOffset) {
		return nil, malformed(TagName, table.Offset, "%d records exceed table length %d", count, table.Length)
	}

	name := &Name{
		Records: make([]NameRecord, count),
	}
	storage := data[storageOffset:]
	for i := range name.Records {
		name.Records[i].PlatformID = r.ReadUint16()
		name.Records[i].EncodingID = r.ReadUint16()
		name.Records[i].LanguageID = r.ReadUint16()
		name.Records[i].NameID = NameID(r.ReadUint16())
		length := uint32(r.ReadUint16())
		offset := uint32(r.ReadUint16())
		if uint32(len(storage)) < offset+length {
			return nil, r.Errorf("string %d+%d exceeds storage", offset, length)
		}
		name.Records[i].Value = append([]byte{}, storage[offset:offset+length]...)
	}
	return name, nil
}
