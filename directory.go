package ttf

import (
	"encoding/binary"
	"sort"
)

// Tag is a four-byte table identifier such as "glyf" or "OS/2".
type Tag string

// Table tags decoded by this package.
const (
	TagCmap Tag = "cmap"
	TagGlyf Tag = "glyf"
	TagHead Tag = "head"
	TagHhea Tag = "hhea"
	TagHmtx Tag = "hmtx"
	TagLoca Tag = "loca"
	TagMaxp Tag = "maxp"
	TagName Tag = "name"

	tagDirectory Tag = "sfnt"
)

// Table is a table directory record.
type Table struct {
	Offset      uint32
	Length      uint32
	Checksum    uint32
	Initialized bool // set once the record has been validated against the file length
}

// Directory is the parsed table directory of a font.
type Directory struct {
	Version string
	Tables  map[Tag]Table
}

// IsTrueType returns true for fonts with TrueType (glyf) outlines.
func (dir *Directory) IsTrueType() bool {
	return dir.Version == "true" || dir.Version == "\x00\x01\x00\x00"
}

// Has returns true if the font contains a table with the given tag.
func (dir *Directory) Has(tag Tag) bool {
	_, ok := dir.Get(tag)
	return ok
}

// Get returns the table record for tag.
func (dir *Directory) Get(tag Tag) (Table, bool) {
	table, ok := dir.Tables[tag]
	return table, ok && table.Initialized
}

// Require returns the table record for tag or an error if the table is missing.
func (dir *Directory) Require(tag Tag) (Table, error) {
	table, ok := dir.Get(tag)
	if !ok {
		return Table{}, &FormatError{Tag: tag, Msg: "missing table", Err: ErrMalformedFont}
	}
	return table, nil
}

// Tags returns the table tags in ascending order.
func (dir *Directory) Tags() []Tag {
	tags := make([]Tag, 0, len(dir.Tables))
	for tag := range dir.Tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Bytes returns the table's bytes within the file buffer. The table must come from the directory parsed from b.
func (table Table) Bytes(b []byte) []byte {
	return b[table.Offset : table.Offset+table.Length : table.Offset+table.Length]
}

// ParseTableDirectory parses the offset table and table records of a single sfnt font.
func ParseTableDirectory(b []byte) (*Directory, error) {
	return parseTableDirectory(b, 0)
}

// ParseCollectionDirectory parses the table directory of the font at index within a TrueType collection (TTC). For plain sfnt files, index must be zero.
func ParseCollectionDirectory(b []byte, index int) (*Directory, error) {
	r := newBinaryReader(tagDirectory, 0, b)
	if r.ReadString(4) != "ttcf" {
		if index != 0 {
			return nil, malformed(tagDirectory, 0, "bad font index %d for a single font", index)
		}
		return parseTableDirectory(b, 0)
	}

	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 && majorVersion != 2 || minorVersion != 0 {
		return nil, malformed(tagDirectory, 4, "bad TTC version %d.%d", majorVersion, minorVersion)
	}
	numFonts := r.ReadUint32()
	if index < 0 || numFonts <= uint32(index) {
		return nil, malformed(tagDirectory, 8, "bad font index %d for %d fonts", index, numFonts)
	}
	r.Skip(4 * uint32(index))
	offset := r.ReadUint32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return parseTableDirectory(b, offset)
}

func parseTableDirectory(b []byte, start uint32) (*Directory, error) {
	if uint32(len(b)) < start || uint32(len(b))-start < 12 {
		return nil, malformed(tagDirectory, start, "file too short for offset table")
	}

	r := newBinaryReader(tagDirectory, 0, b)
	r.Seek(start)
	version := r.ReadString(4)
	if version != "OTTO" && version != "true" && binary.BigEndian.Uint32([]byte(version)) != 0x00010000 {
		return nil, malformed(tagDirectory, start, "bad version 0x%08X", binary.BigEndian.Uint32([]byte(version)))
	}
	numTables := r.ReadUint16()
	r.Skip(6) // searchRange, entrySelector, rangeShift
	if r.Len() < 16*uint32(numTables) { // can never exceed uint32 as numTables is uint16
		return nil, malformed(tagDirectory, r.Offset(), "%d table records exceed file length %d", numTables, len(b))
	}

	dir := &Directory{
		Version: version,
		Tables:  make(map[Tag]Table, numTables),
	}
	for i := 0; i < int(numTables); i++ {
		recordOffset := r.Offset()
		tag := Tag(r.ReadString(4))
		table := Table{
			Checksum: r.ReadUint32(),
			Offset:   r.ReadUint32(),
			Length:   r.ReadUint32(),
		}
		if uint32(len(b)) < table.Offset || uint32(len(b))-table.Offset < table.Length {
			return nil, malformed(tag, recordOffset, "table range %d+%d exceeds file length %d", table.Offset, table.Length, len(b))
		} else if _, ok := dir.Tables[tag]; ok {
			return nil, malformed(tag, recordOffset, "table defined more than once")
		}
		table.Initialized = true
		dir.Tables[tag] = table
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	tracer().Debugf("sfnt: %d tables, version %q", numTables, version)
	return dir, nil
}
