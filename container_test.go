package ttf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

// buildWOFF wraps an sfnt font in a WOFF container, compressing the tables for which compress returns true.
func buildWOFF(sfnt []byte, compress func(Tag) bool) []byte {
	dir, err := ParseTableDirectory(sfnt)
	if err != nil {
		panic(err)
	}
	tags := dir.Tags()

	offset := 44 + 20*uint32(len(tags))
	records := parse.NewBinaryWriter([]byte{})
	data := parse.NewBinaryWriter([]byte{})
	for _, tag := range tags {
		table := dir.Tables[tag]
		orig := table.Bytes(sfnt)
		stored := orig
		if compress(tag) {
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			if _, err := zw.Write(orig); err != nil {
				panic(err)
			}
			if err := zw.Close(); err != nil {
				panic(err)
			}
			if buf.Len() < len(orig) {
				stored = buf.Bytes()
			}
		}
		records.WriteBytes([]byte(tag))
		records.WriteUint32(offset)
		records.WriteUint32(uint32(len(stored)))
		records.WriteUint32(uint32(len(orig)))
		records.WriteUint32(table.Checksum)
		data.WriteBytes(stored)
		for i := len(stored); i%4 != 0; i++ {
			data.WriteUint8(0)
		}
		offset += (uint32(len(stored)) + 3) &^ 3
	}

	w := parse.NewBinaryWriter([]byte{})
	w.WriteBytes([]byte("wOFF"))
	w.WriteBytes([]byte(dir.Version))
	w.WriteUint32(offset) // length
	w.WriteUint16(uint16(len(tags)))
	w.WriteUint16(0) // reserved
	w.WriteUint32(uint32(len(sfnt)))
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	for i := 0; i < 5; i++ {
		w.WriteUint32(0) // metadata and private data
	}
	w.WriteBytes(records.Bytes())
	w.WriteBytes(data.Bytes())
	return w.Bytes()
}

func encodeUintBase128(v uint32) []byte {
	b := []byte{byte(v & 0x7F)}
	for v >>= 7; v != 0; v >>= 7 {
		b = append([]byte{byte(v&0x7F) | 0x80}, b...)
	}
	return b
}

// buildWOFF2 wraps an sfnt font in a WOFF2 container. With transform, the glyf, loca and hmtx tables are stored in their transformed formats.
func buildWOFF2(sfnt []byte, transform bool) []byte {
	dir, err := ParseTableDirectory(sfnt)
	if err != nil {
		panic(err)
	}
	tags := dir.Tags()

	var font *FontData
	if transform {
		if font, err = Parse(sfnt, DefaultOptions()); err != nil {
			panic(err)
		}
	}

	records := parse.NewBinaryWriter([]byte{})
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	for _, tag := range tags {
		table := dir.Tables[tag]
		flags := byte(63)
		for i, knownTag := range woff2TableTags {
			if knownTag == tag {
				flags = byte(i)
				break
			}
		}

		data := table.Bytes(sfnt)
		var transformed []byte
		switch {
		case transform && tag == TagGlyf:
			transformed = transformGlyf(font)
		case transform && tag == TagLoca:
			transformed = []byte{}
		case transform && tag == TagHmtx:
			transformed = transformHmtx(font)
			flags |= 0x40 // transform version 1
		case tag == TagGlyf || tag == TagLoca:
			flags |= 0xC0 // null transform
		}

		records.WriteUint8(flags)
		if flags&0x3F == 63 {
			records.WriteBytes([]byte(tag))
		}
		records.WriteBytes(encodeUintBase128(table.Length))
		if transformed != nil {
			records.WriteBytes(encodeUintBase128(uint32(len(transformed))))
			data = transformed
		}
		if _, err := bw.Write(data); err != nil {
			panic(err)
		}
	}
	if err := bw.Close(); err != nil {
		panic(err)
	}

	length := 48 + uint32(records.Len()) + uint32(buf.Len())
	w := parse.NewBinaryWriter([]byte{})
	w.WriteBytes([]byte("wOF2"))
	w.WriteBytes([]byte(dir.Version))
	w.WriteUint32(length)
	w.WriteUint16(uint16(len(tags)))
	w.WriteUint16(0) // reserved
	w.WriteUint32(uint32(len(sfnt)))
	w.WriteUint32(uint32(buf.Len()))
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	for i := 0; i < 5; i++ {
		w.WriteUint32(0) // metadata and private data
	}
	w.WriteBytes(records.Bytes())
	w.WriteBytes(buf.Bytes())
	return w.Bytes()
}

// buildEOT wraps an sfnt font in an EOT container of the given version.
func buildEOT(sfnt []byte, version, flags uint32) []byte {
	familyName := utf16.Encode([]rune("Test Sans"))

	var buf bytes.Buffer
	write := func(v interface{}) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	write(uint32(0)) // EOTSize, set below
	write(uint32(len(sfnt)))
	write(version)
	write(flags)
	write([10]byte{})     // FontPANOSE
	write(uint8(1))       // Charset
	write(uint8(0))       // Italic
	write(uint32(400))    // Weight
	write(uint16(0))      // fsType
	write(uint16(0x504C)) // MagicNumber
	write([24]byte{})     // UnicodeRange and CodePageRange
	write(uint32(0))      // CheckSumAdjustment
	write([16]byte{})     // Reserved
	write(uint16(0))      // Padding1
	write(uint16(2 * len(familyName)))
	write(familyName)
	for i := 0; i < 3; i++ {
		write(uint16(0)) // Padding
		write(uint16(0)) // StyleName, VersionName and FullName sizes
	}
	if version != 0x00010000 {
		write(uint16(0)) // Padding5
		write(uint16(0)) // RootStringSize
	}
	if version == 0x00020002 {
		write(uint32(0)) // RootStringCheckSum
		write(uint32(0)) // EUDCCodePage
		write(uint16(0)) // Padding6
		write(uint16(0)) // SignatureSize
		write(uint32(0)) // EUDCFlags
		write(uint32(0)) // EUDCFontSize
	}

	data := append([]byte{}, sfnt...)
	if flags&0x10000000 != 0 {
		for i := range data {
			data[i] ^= 0x50
		}
	}
	buf.Write(data)

	b := buf.Bytes()
	binary.LittleEndian.PutUint32(b, uint32(len(b)))
	return b
}

func TestMediaType(t *testing.T) {
	sfnt := newTestFont().Bytes()
	var tests = []struct {
		b         []byte
		mediatype string
	}{
		{sfnt, "font/truetype"},
		{[]byte("true...."), "font/truetype"},
		{makeCollection(sfnt), "font/truetype"},
		{[]byte("OTTO...."), "font/opentype"},
		{buildWOFF(sfnt, func(Tag) bool { return false }), "font/woff"},
		{buildWOFF2(sfnt, false), "font/woff2"},
		{buildEOT(sfnt, 0x00010000, 0), "font/eot"},
	}
	for _, tt := range tests {
		mediatype, err := MediaType(tt.b)
		test.Error(t, err)
		test.T(t, mediatype, tt.mediatype)
	}

	_, err := MediaType([]byte("ab"))
	test.That(t, errors.Is(err, ErrMalformedFont), err)
	_, err = MediaType(make([]byte, 64))
	test.That(t, errors.Is(err, ErrUnsupportedFeature), err)
}

func TestWriteSFNT(t *testing.T) {
	b := newTestFont().Bytes()
	test.T(t, binary.BigEndian.Uint16(b[4:]), uint16(8))   // numTables
	test.T(t, binary.BigEndian.Uint16(b[6:]), uint16(128)) // searchRange
	test.T(t, binary.BigEndian.Uint16(b[8:]), uint16(3))   // entrySelector
	test.T(t, binary.BigEndian.Uint16(b[10:]), uint16(0))  // rangeShift
	test.T(t, len(b)%4, 0)
	test.That(t, ValidateFileChecksum(b))

	_, err := writeSFNT(0x00010000, []sfntTable{{"abc", []byte{1}}})
	test.That(t, err != nil, "bad tag")
}

func TestParseWOFF(t *testing.T) {
	sfnt := newTestFont().Bytes()
	var tests = []struct {
		name     string
		compress func(Tag) bool
	}{
		{"stored", func(Tag) bool { return false }},
		{"compressed", func(Tag) bool { return true }},
		{"mixed", func(tag Tag) bool { return tag == TagGlyf || tag == TagName }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			woff := buildWOFF(sfnt, tt.compress)
			b, err := ParseWOFF(woff)
			test.Error(t, err)
			test.That(t, bytes.Equal(b, sfnt), "round trip must reproduce the sfnt font")

			font, err := Load(bytes.NewReader(woff), DefaultOptions())
			test.Error(t, err)
			test.T(t, font.FullName, "Test Sans Regular")
			test.T(t, len(font.ChecksumErrors), 0)
		})
	}
}

func TestParseWOFFErrors(t *testing.T) {
	woff := buildWOFF(newTestFont().Bytes(), func(Tag) bool { return true })
	modify := func(f func([]byte)) []byte {
		b := append([]byte{}, woff...)
		f(b)
		return b
	}

	var tests = []struct {
		name string
		b    []byte
	}{
		{"short header", woff[:40]},
		{"bad length", modify(func(b []byte) { binary.BigEndian.PutUint32(b[8:], 12) })},
		{"no tables", modify(func(b []byte) { binary.BigEndian.PutUint16(b[12:], 0) })},
		{"reserved", modify(func(b []byte) { binary.BigEndian.PutUint16(b[14:], 1) })},
		{"records exceed file", modify(func(b []byte) { binary.BigEndian.PutUint16(b[12:], 0xFFFF) })},
		{"table exceeds file", modify(func(b []byte) { binary.BigEndian.PutUint32(b[44+4:], 0xFFFFFF00) })},
		{"compressed exceeds original", modify(func(b []byte) { binary.BigEndian.PutUint32(b[44+12:], 1) })},
		{"bad zlib data", modify(func(b []byte) {
			for i := 0; i < int(binary.BigEndian.Uint16(b[12:])); i++ {
				record := b[44+20*i:]
				if binary.BigEndian.Uint32(record[8:]) < binary.BigEndian.Uint32(record[12:]) {
					b[binary.BigEndian.Uint32(record[4:])] = 0xFF // zlib header
					return
				}
			}
			panic("no compressed table")
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWOFF(tt.b)
			test.That(t, errors.Is(err, ErrMalformedFont), err)
		})
	}

	maxMemory := MaxMemory
	defer func() { MaxMemory = maxMemory }()
	MaxMemory = 100
	_, err := ParseWOFF(woff)
	test.That(t, errors.Is(err, ErrExceedsMemory), err)
}

func TestParseWOFF2(t *testing.T) {
	sfnt := newTestFont().Bytes()
	woff2 := buildWOFF2(sfnt, false)
	b, err := ParseWOFF2(woff2)
	test.Error(t, err)
	test.That(t, bytes.Equal(b, sfnt), "round trip must reproduce the sfnt font")

	font, err := Load(bytes.NewReader(woff2), DefaultOptions())
	test.Error(t, err)
	test.T(t, font.Glyph(2).Points, triangle)

	// hmtx only defines transform versions 0 and 1
	transformed := append([]byte{}, woff2...)
	for pos := 48; ; pos++ {
		if transformed[pos]&0x3F == 3 { // hmtx
			transformed[pos] |= 0x80
			break
		}
		for pos++; transformed[pos]&0x80 != 0; pos++ {
			// skip origLength
		}
	}
	_, err = ParseWOFF2(transformed)
	test.That(t, errors.Is(err, ErrUnsupportedFeature), err)

	truncated := append([]byte{}, woff2[:len(woff2)-8]...)
	binary.BigEndian.PutUint32(truncated[8:], uint32(len(truncated)))
	_, err = ParseWOFF2(truncated)
	test.That(t, errors.Is(err, ErrMalformedFont), err)

	badSignature := append([]byte{}, woff2...)
	badSignature[3] = '3'
	_, err = ParseWOFF2(badSignature)
	test.That(t, errors.Is(err, ErrMalformedFont), err)
}

func TestReadUintBase128(t *testing.T) {
	var tests = []struct {
		b []byte
		v uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x3F}, 63},
		{[]byte{0x81, 0x00}, 128},
		{encodeUintBase128(0xFFFFFFFF), 0xFFFFFFFF},
		{encodeUintBase128(123456), 123456},
	}
	for _, tt := range tests {
		v, err := readUintBase128(newBinaryReader(tagWOFF2, 0, tt.b))
		test.Error(t, err)
		test.T(t, v, tt.v)
	}

	for _, b := range [][]byte{
		{0x80, 0x01},                   // leading zeros
		{0x90, 0x80, 0x80, 0x80, 0x00}, // overflow
		{0x81, 0x80, 0x80, 0x80, 0x80, 0x00},
		{0x81},
	} {
		_, err := readUintBase128(newBinaryReader(tagWOFF2, 0, b))
		test.That(t, errors.Is(err, ErrMalformedFont), b)
	}
}

func TestParseEOT(t *testing.T) {
	sfnt := newTestFont().Bytes()
	for _, version := range []uint32{0x00010000, 0x00020001, 0x00020002} {
		for _, flags := range []uint32{0, 0x10000000} {
			eot := buildEOT(sfnt, version, flags)
			b, err := ParseEOT(eot)
			test.Error(t, err)
			test.That(t, bytes.Equal(b, sfnt), version, flags)
		}
	}

	font, err := Load(bytes.NewReader(buildEOT(sfnt, 0x00020001, 0x10000000)), DefaultOptions())
	test.Error(t, err)
	test.T(t, font.FamilyName, "Test Sans")

	_, err = ParseEOT(buildEOT(sfnt, 0x00010000, 0x00000004))
	test.That(t, errors.Is(err, ErrUnsupportedFeature), "MicroType Express")
	_, err = ParseEOT(buildEOT(sfnt, 0x00030000, 0))
	test.That(t, errors.Is(err, ErrUnsupportedFeature), "version")

	eot := buildEOT(sfnt, 0x00010000, 0)
	_, err = ParseEOT(eot[:len(eot)-1])
	test.That(t, errors.Is(err, ErrMalformedFont), "truncated font data")

	badPadding := append([]byte{}, eot...)
	badPadding[80] = 1 // Padding1
	_, err = ParseEOT(badPadding)
	test.That(t, errors.Is(err, ErrMalformedFont), "padding")

	badFontDataSize := append([]byte{}, eot...)
	binary.LittleEndian.PutUint32(badFontDataSize[4:], uint32(len(sfnt)+1))
	_, err = ParseEOT(badFontDataSize)
	test.That(t, errors.Is(err, ErrMalformedFont), "FontDataSize")
}
