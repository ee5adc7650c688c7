package ttf

import (
	"bytes"
	"io"
	"math"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF2/

// Other implementations:
// https://github.com/google/woff2/blob/master/src/woff2_dec.cc
// https://github.com/fonttools/fonttools/blob/main/Lib/fontTools/ttLib/woff2.py

const tagWOFF2 Tag = "wOF2"

var woff2TableTags = []Tag{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

type woff2Table struct {
	tag         Tag
	origLength  uint32
	length      uint32 // bytes in the decompressed stream
	transformed bool
	data        []byte
}

// ParseWOFF2 parses the WOFF2 font format and returns its contained sfnt data. Transformed glyf, loca and hmtx tables are reconstructed.
func ParseWOFF2(b []byte) ([]byte, error) {
	r := newBinaryReader(tagWOFF2, 0, b)
	signature := r.ReadString(4)
	flavor := r.ReadUint32()
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	_ = r.ReadUint32()                    // totalSfntSize
	totalCompressedSize := r.ReadUint32() // totalCompressedSize
	_ = r.ReadUint16()                    // majorVersion
	_ = r.ReadUint16()                    // minorVersion
	_ = r.ReadUint32()                    // metaOffset
	_ = r.ReadUint32()                    // metaLength
	_ = r.ReadUint32()                    // metaOrigLength
	_ = r.ReadUint32()                    // privOffset
	_ = r.ReadUint32()                    // privLength
	if err := r.Err(); err != nil {
		return nil, err
	} else if signature != "wOF2" {
		return nil, malformed(tagWOFF2, 0, "bad signature")
	} else if flavor == 0x74746366 { // ttcf
		return nil, unsupported(tagWOFF2, 4, "collections")
	} else if length != uint32(len(b)) {
		return nil, malformed(tagWOFF2, 8, "length %d does not match file size %d", length, len(b))
	} else if numTables == 0 {
		return nil, malformed(tagWOFF2, 12, "numTables must not be zero")
	} else if reserved != 0 {
		return nil, malformed(tagWOFF2, 14, "reserved must be zero")
	}

	tables := []woff2Table{}
	index := map[Tag]int{}
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		recordOffset := r.Offset()
		flags := r.ReadUint8()
		tagIndex := int(flags & 0x3F)
		transformVersion := flags >> 6

		var tag Tag
		if tagIndex == 63 {
			tag = Tag(r.ReadString(4))
		} else if tagIndex < len(woff2TableTags) {
			tag = woff2TableTags[tagIndex]
		} else {
			return nil, malformed(tagWOFF2, recordOffset, "bad known table index %d", tagIndex)
		}

		origLength, err := readUintBase128(r)
		if err != nil {
			return nil, err
		}

		// glyf and loca use version 3 for the null transform, all other tables version 0
		table := woff2Table{tag: tag, origLength: origLength, length: origLength}
		isGlyfLoca := tag == TagGlyf || tag == TagLoca
		if isGlyfLoca && transformVersion == 0 || tag == TagHmtx && transformVersion == 1 {
			table.transformed = true
			if table.length, err = readUintBase128(r); err != nil {
				return nil, err
			} else if tag == TagLoca && table.length != 0 {
				return nil, malformed(tag, recordOffset, "transformLength must be zero")
			} else if tag != TagLoca && table.length == 0 {
				return nil, malformed(tag, recordOffset, "transformLength must be set")
			}
		} else if isGlyfLoca && transformVersion != 3 || !isGlyfLoca && transformVersion != 0 {
			return nil, unsupported(tag, recordOffset, "transform version %d", transformVersion)
		}

		if _, ok := index[tag]; ok {
			return nil, malformed(tag, recordOffset, "table defined more than once")
		} else if math.MaxUint32-uncompressedSize < table.length {
			return nil, malformed(tag, recordOffset, "table lengths overflow")
		}
		index[tag] = len(tables)
		uncompressedSize += table.length
		tables = append(tables, table)
	}

	iGlyf, hasGlyf := index[TagGlyf]
	iLoca, hasLoca := index[TagLoca]
	if hasGlyf != hasLoca {
		return nil, malformed(tagWOFF2, 0, "glyf and loca tables must be both present")
	} else if hasGlyf && tables[iGlyf].transformed != tables[iLoca].transformed {
		return nil, malformed(tagWOFF2, 0, "glyf and loca tables must be both transformed or untransformed")
	}

	// decompress font data using Brotli
	compData := r.ReadBytes(totalCompressedSize)
	if err := r.Err(); err != nil {
		return nil, err
	} else if MaxMemory < uncompressedSize {
		return nil, ErrExceedsMemory
	}
	rBrotli := brotli.NewReader(bytes.NewReader(compData))
	data := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(rBrotli, data); err != nil {
		return nil, malformed(tagWOFF2, r.Offset()-totalCompressedSize, "brotli: %v", err)
	} else if n, _ := rBrotli.Read(make([]byte, 1)); n != 0 {
		return nil, malformed(tagWOFF2, r.Offset()-totalCompressedSize, "sum of table lengths must match decompressed font data size")
	}

	var offset uint32
	for i := range tables {
		tables[i].data = data[offset : offset+tables[i].length : offset+tables[i].length]
		offset += tables[i].length
	}

	if hasGlyf && tables[iGlyf].transformed {
		glyf, loca, err := reconstructGlyfLoca(tables[iGlyf].data)
		if err != nil {
			return nil, err
		} else if uint32(len(loca)) != tables[iLoca].origLength {
			return nil, malformed(TagLoca, 0, "origLength %d does not match %d reconstructed bytes", tables[iLoca].origLength, len(loca))
		}
		tables[iGlyf].data, tables[iLoca].data = glyf, loca
	}
	if iHmtx, ok := index[TagHmtx]; ok && tables[iHmtx].transformed {
		tableData := make(map[Tag][]byte, len(tables))
		for _, table := range tables {
			tableData[table.tag] = table.data
		}
		hmtx, err := reconstructHmtx(tables[iHmtx].data, tableData)
		if err != nil {
			return nil, err
		}
		tables[iHmtx].data = hmtx
	}

	sfntTables := make([]sfntTable, len(tables))
	for i, table := range tables {
		sfntTables[i] = sfntTable{tag: table.tag, data: table.data}
	}
	tracer().Debugf("woff2: unwrapped %d tables", numTables)
	return writeSFNT(flavor, sfntTables)
}

// reconstructGlyfLoca rebuilds the glyf and loca tables from a transformed glyf table. Error offsets are relative to the transformed table.
func reconstructGlyfLoca(b []byte) ([]byte, []byte, error) {
	r := newBinaryReader(TagGlyf, 0, b)
	_ = r.ReadUint16() // reserved
	optionFlags := r.ReadUint16()
	numGlyphs := r.ReadUint16()
	indexFormat := r.ReadUint16()
	nContourStreamSize := r.ReadUint32()
	nPointsStreamSize := r.ReadUint32()
	flagStreamSize := r.ReadUint32()
	glyphStreamSize := r.ReadUint32()
	compositeStreamSize := r.ReadUint32()
	bboxStreamSize := r.ReadUint32()
	instructionStreamSize := r.ReadUint32()
	bitmapSize := ((uint32(numGlyphs) + 31) >> 5) << 2
	if err := r.Err(); err != nil {
		return nil, nil, err
	} else if nContourStreamSize != 2*uint32(numGlyphs) {
		return nil, nil, malformed(TagGlyf, 8, "nContourStreamSize %d does not match %d glyphs", nContourStreamSize, numGlyphs)
	} else if 1 < indexFormat {
		return nil, nil, malformed(TagGlyf, 6, "bad indexFormat %d", indexFormat)
	} else if bboxStreamSize < bitmapSize {
		return nil, nil, malformed(TagGlyf, 28, "bboxStreamSize %d smaller than its bitmap", bboxStreamSize)
	}

	stream := func(n uint32) *binaryReader {
		base := r.Offset()
		return newBinaryReader(TagGlyf, base, r.ReadBytes(n))
	}
	nContourStream := stream(nContourStreamSize)
	nPointsStream := stream(nPointsStreamSize)
	flagStream := stream(flagStreamSize)
	glyphStream := stream(glyphStreamSize)
	compositeStream := stream(compositeStreamSize)
	bboxBitmap := r.ReadBytes(bitmapSize)
	bboxStream := stream(bboxStreamSize - bitmapSize)
	instructionStream := stream(instructionStreamSize)
	var overlapBitmap []byte
	if optionFlags&0x0001 != 0 {
		overlapBitmap = r.ReadBytes(bitmapSize)
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}

	locaLength := 2 * (uint32(numGlyphs) + 1)
	if indexFormat == 1 {
		locaLength *= 2
	}
	w := parse.NewBinaryWriter(make([]byte, 0, glyphStreamSize))
	loca := parse.NewBinaryWriter(make([]byte, 0, locaLength))
	writeLoca := func() error {
		offset := uint32(w.Len())
		if indexFormat == 0 {
			if math.MaxUint16 < offset/2 {
				return malformed(TagGlyf, 0, "glyf length %d exceeds short loca", offset)
			}
			loca.WriteUint16(uint16(offset / 2))
		} else {
			loca.WriteUint32(offset)
		}
		return nil
	}

	for glyphID := 0; glyphID < int(numGlyphs); glyphID++ {
		if err := writeLoca(); err != nil {
			return nil, nil, err
		}

		explicitBbox := bitmapBit(bboxBitmap, glyphID)
		numberOfContours := nContourStream.ReadInt16()
		if numberOfContours == 0 {
			if explicitBbox {
				return nil, nil, malformed(TagGlyf, 0, "empty glyph %d has a bounding box", glyphID)
			}
			continue
		}

		var xMin, yMin, xMax, yMax int16
		if explicitBbox {
			xMin = bboxStream.ReadInt16()
			yMin = bboxStream.ReadInt16()
			xMax = bboxStream.ReadInt16()
			yMax = bboxStream.ReadInt16()
			if err := bboxStream.Err(); err != nil {
				return nil, nil, err
			}
		} else if numberOfContours < 0 {
			return nil, nil, malformed(TagGlyf, 0, "composite glyph %d has no bounding box", glyphID)
		}

		if 0 < numberOfContours {
			var numPoints uint32
			endPtsOfContours := make([]uint16, numberOfContours)
			for i := range endPtsOfContours {
				numPoints += uint32(read255Uint16(nPointsStream))
				if numPoints == 0 || math.MaxUint16 < numPoints {
					return nil, nil, nPointsStream.Errorf("bad number of points %d for glyph %d", numPoints, glyphID)
				}
				endPtsOfContours[i] = uint16(numPoints - 1)
			}
			if err := nPointsStream.Err(); err != nil {
				return nil, nil, err
			}

			flags := make([]byte, numPoints)
			xs := make([]int16, numPoints)
			ys := make([]int16, numPoints)
			var x, y int32
			for i := range flags {
				flag := flagStream.ReadUint8()
				if flag&0x80 == 0 {
					flags[i] = glyfOnCurvePoint
				}
				if i == 0 && bitmapBit(overlapBitmap, glyphID) {
					flags[i] |= glyfOverlapSimple
				}
				dx, dy := readTriplet(glyphStream, flag&0x7F)
				xs[i], ys[i] = int16(dx), int16(dy)

				x += dx
				y += dy
				if x < math.MinInt16 || math.MaxInt16 < x || y < math.MinInt16 || math.MaxInt16 < y {
					return nil, nil, glyphStream.Errorf("coordinate overflow in glyph %d", glyphID)
				} else if !explicitBbox {
					if i == 0 {
						xMin, xMax, yMin, yMax = int16(x), int16(x), int16(y), int16(y)
					} else {
						xMin, xMax = min(xMin, int16(x)), max(xMax, int16(x))
						yMin, yMax = min(yMin, int16(y)), max(yMax, int16(y))
					}
				}
			}
			instructionLength := read255Uint16(glyphStream)
			instructions := instructionStream.ReadBytes(uint32(instructionLength))
			if err := flagStream.Err(); err != nil {
				return nil, nil, err
			} else if err := glyphStream.Err(); err != nil {
				return nil, nil, err
			} else if err := instructionStream.Err(); err != nil {
				return nil, nil, err
			}

			// coordinates are written as two-byte deltas without repeated flags
			w.WriteInt16(numberOfContours)
			w.WriteInt16(xMin)
			w.WriteInt16(yMin)
			w.WriteInt16(xMax)
			w.WriteInt16(yMax)
			for _, endPt := range endPtsOfContours {
				w.WriteUint16(endPt)
			}
			w.WriteUint16(instructionLength)
			w.WriteBytes(instructions)
			w.WriteBytes(flags)
			for _, dx := range xs {
				w.WriteInt16(dx)
			}
			for _, dy := range ys {
				w.WriteInt16(dy)
			}
		} else {
			w.WriteInt16(numberOfContours)
			w.WriteInt16(xMin)
			w.WriteInt16(yMin)
			w.WriteInt16(xMax)
			w.WriteInt16(yMax)

			hasInstructions := false
			for {
				flags := compositeStream.ReadUint16()
				n := uint32(4) // glyphIndex and byte arguments
				if flags&0x0001 != 0 { // ARG_1_AND_2_ARE_WORDS
					n += 2
				}
				if flags&0x0008 != 0 { // WE_HAVE_A_SCALE
					n += 2
				} else if flags&0x0040 != 0 { // WE_HAVE_AN_X_AND_Y_SCALE
					n += 4
				} else if flags&0x0080 != 0 { // WE_HAVE_A_TWO_BY_TWO
					n += 8
				}
				component := compositeStream.ReadBytes(n)
				if err := compositeStream.Err(); err != nil {
					return nil, nil, err
				}
				w.WriteUint16(flags)
				w.WriteBytes(component)

				hasInstructions = hasInstructions || flags&0x0100 != 0 // WE_HAVE_INSTRUCTIONS
				if flags&0x0020 == 0 { // MORE_COMPONENTS
					break
				}
			}
			if hasInstructions {
				instructionLength := read255Uint16(glyphStream)
				instructions := instructionStream.ReadBytes(uint32(instructionLength))
				if err := glyphStream.Err(); err != nil {
					return nil, nil, err
				} else if err := instructionStream.Err(); err != nil {
					return nil, nil, err
				}
				w.WriteUint16(instructionLength)
				w.WriteBytes(instructions)
			}
		}

		// glyph offsets are 4-byte aligned
		for w.Len()%4 != 0 {
			w.WriteUint8(0)
		}
	}
	if err := writeLoca(); err != nil {
		return nil, nil, err
	}
	return w.Bytes(), loca.Bytes(), nil
}

// readTriplet decodes a point delta from the glyph stream for the given flag with its on-curve bit cleared.
func readTriplet(r *binaryReader, flag byte) (int32, int32) {
	// bit 0 of the flag is the sign of the x or only coordinate, bit 1 the sign of y
	withSign := func(bit byte, v int32) int32 {
		if flag&bit != 0 {
			return v
		}
		return -v
	}

	var dx, dy int32
	switch {
	case flag < 10:
		b0 := int32(r.ReadUint8())
		dy = withSign(0x01, int32(flag&0x0E)<<7+b0)
	case flag < 20:
		b0 := int32(r.ReadUint8())
		dx = withSign(0x01, int32((flag-10)&0x0E)<<7+b0)
	case flag < 84:
		b0 := int32(flag - 20)
		b1 := int32(r.ReadUint8())
		dx = withSign(0x01, 1+(b0&0x30)+b1>>4)
		dy = withSign(0x02, 1+(b0&0x0C)<<2+b1&0x0F)
	case flag < 120:
		b0 := int32(flag - 84)
		b1 := int32(r.ReadUint8())
		b2 := int32(r.ReadUint8())
		dx = withSign(0x01, 1+(b0/12)<<8+b1)
		dy = withSign(0x02, 1+((b0%12)>>2)<<8+b2)
	case flag < 124:
		b1 := int32(r.ReadUint8())
		b2 := int32(r.ReadUint8())
		b3 := int32(r.ReadUint8())
		dx = withSign(0x01, b1<<4+b2>>4)
		dy = withSign(0x02, (b2&0x0F)<<8+b3)
	default:
		b1 := int32(r.ReadUint8())
		b2 := int32(r.ReadUint8())
		b3 := int32(r.ReadUint8())
		b4 := int32(r.ReadUint8())
		dx = withSign(0x01, b1<<8+b2)
		dy = withSign(0x02, b3<<8+b4)
	}
	return dx, dy
}

// reconstructHmtx rebuilds the hmtx table from a transformed hmtx table, taking omitted left side bearings from the glyph bounding boxes.
func reconstructHmtx(b []byte, tables map[Tag][]byte) ([]byte, error) {
	for _, tag := range []Tag{TagHead, TagMaxp, TagHhea, TagGlyf, TagLoca} {
		if _, ok := tables[tag]; !ok {
			return nil, malformed(TagHmtx, 0, "%s table required to reconstruct hmtx", tag)
		}
	}
	table := func(tag Tag) ([]byte, Table) {
		return tables[tag], Table{Length: uint32(len(tables[tag])), Initialized: true}
	}
	head, err := ParseHead(table(TagHead))
	if err != nil {
		return nil, err
	}
	maxp, err := ParseMaxp(table(TagMaxp))
	if err != nil {
		return nil, err
	}
	hheaData, hheaTable := table(TagHhea)
	hhea, err := ParseHhea(hheaData, hheaTable, maxp.NumGlyphs)
	if err != nil {
		return nil, err
	}
	locaData, locaTable := table(TagLoca)
	offsets, err := ParseLoca(locaData, locaTable, maxp.NumGlyphs, head.IndexToLocFormat)
	if err != nil {
		return nil, err
	}

	r := newBinaryReader(TagHmtx, 0, b)
	flags := r.ReadUint8()
	if flags&0xFC != 0 {
		return nil, malformed(TagHmtx, 0, "reserved flags must be zero")
	} else if flags&0x03 == 0 {
		return nil, malformed(TagHmtx, 0, "no left side bearings to reconstruct")
	}
	reconstructProportional := flags&0x01 != 0
	reconstructMonospaced := flags&0x02 != 0

	numGlyphs, numberOfHMetrics := int(maxp.NumGlyphs), int(hhea.NumberOfHMetrics)
	metrics := make([]HMetric, numGlyphs)
	for i := 0; i < numberOfHMetrics; i++ {
		metrics[i].AdvanceWidth = r.ReadUint16()
	}

	glyf := newBinaryReader(TagGlyf, 0, tables[TagGlyf])
	for i := 0; i < numGlyphs; i++ {
		if i < numberOfHMetrics && !reconstructProportional || numberOfHMetrics <= i && !reconstructMonospaced {
			metrics[i].LeftSideBearing = r.ReadInt16()
		} else if offsets[i] < offsets[i+1] {
			glyf.Seek(offsets[i] + 2)
			metrics[i].LeftSideBearing = glyf.ReadInt16() // xMin
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	} else if err := glyf.Err(); err != nil {
		return nil, err
	} else if r.Len() != 0 {
		return nil, r.Errorf("%d trailing bytes", r.Len())
	}

	w := parse.NewBinaryWriter(make([]byte, 0, 2*numGlyphs+2*numberOfHMetrics))
	for i, metric := range metrics {
		if i < numberOfHMetrics {
			w.WriteUint16(metric.AdvanceWidth)
		}
		w.WriteInt16(metric.LeftSideBearing)
	}
	return w.Bytes(), nil
}

func bitmapBit(bitmap []byte, i int) bool {
	return i>>3 < len(bitmap) && bitmap[i>>3]&(0x80>>(i&7)) != 0
}

func readUintBase128(r *binaryReader) (uint32, error) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	var accum uint32
	for i := 0; i < 5; i++ {
		dataByte := r.ReadUint8()
		if err := r.Err(); err != nil {
			return 0, err
		} else if i == 0 && dataByte == 0x80 {
			return 0, r.Errorf("UIntBase128 must not start with leading zeros")
		} else if (accum & 0xFE000000) != 0 {
			return 0, r.Errorf("UIntBase128 overflow")
		}
		accum = (accum << 7) | uint32(dataByte&0x7F)
		if (dataByte & 0x80) == 0 {
			return accum, nil
		}
	}
	return 0, r.Errorf("UIntBase128 exceeds 5 bytes")
}

func read255Uint16(r *binaryReader) uint16 {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	switch code := r.ReadUint8(); code {
	case 253:
		return r.ReadUint16()
	case 254:
		return uint16(r.ReadUint8()) + 253*2
	case 255:
		return uint16(r.ReadUint8()) + 253
	default:
		return uint16(code)
	}
}
