package ttf

import (
	"github.com/tdewolff/parse/v2"
)

// fontBuilder assembles synthetic TrueType fonts for tests.
type fontBuilder struct {
	unitsPerEm       uint16
	indexToLocFormat int16
	glyphs           [][]byte // raw glyph records
	metrics          []HMetric
	numberOfHMetrics uint16
	cmap             []byte
	name             []byte
	omit             map[Tag]bool
	replace          map[Tag][]byte
}

func newFontBuilder() *fontBuilder {
	return &fontBuilder{
		unitsPerEm: 1000,
		omit:       map[Tag]bool{},
		replace:    map[Tag][]byte{},
	}
}

func (fb *fontBuilder) addGlyph(glyph []byte, advance uint16, lsb int16) uint16 {
	fb.glyphs = append(fb.glyphs, glyph)
	fb.metrics = append(fb.metrics, HMetric{advance, lsb})
	return uint16(len(fb.glyphs) - 1)
}

func (fb *fontBuilder) numGlyphs() uint16 {
	return uint16(len(fb.glyphs))
}

func (fb *fontBuilder) tables() []sfntTable {
	numberOfHMetrics := fb.numberOfHMetrics
	if numberOfHMetrics == 0 {
		numberOfHMetrics = fb.numGlyphs()
	}
	glyf, offsets := buildGlyf(fb.glyphs)
	tables := []sfntTable{
		{TagHead, buildHead(fb.unitsPerEm, fb.indexToLocFormat)},
		{TagMaxp, buildMaxp(fb.numGlyphs())},
		{TagHhea, buildHhea(numberOfHMetrics)},
		{TagHmtx, buildHmtx(fb.metrics, numberOfHMetrics)},
		{TagLoca, buildLoca(offsets, fb.indexToLocFormat)},
		{TagGlyf, glyf},
	}
	if fb.cmap != nil {
		tables = append(tables, sfntTable{TagCmap, fb.cmap})
	}
	if fb.name != nil {
		tables = append(tables, sfntTable{TagName, fb.name})
	}

	filtered := tables[:0]
	for _, table := range tables {
		if fb.omit[table.tag] {
			continue
		} else if data, ok := fb.replace[table.tag]; ok {
			table.data = data
		}
		filtered = append(filtered, table)
	}
	return filtered
}

// Bytes returns the font with correct table checksums and checkSumAdjustment.
func (fb *fontBuilder) Bytes() []byte {
	b, err := writeSFNT(0x00010000, fb.tables())
	if err != nil {
		panic(err)
	}
	return b
}

func buildHead(unitsPerEm uint16, indexToLocFormat int16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)          // majorVersion
	w.WriteUint16(0)          // minorVersion
	w.WriteUint32(0x00010000) // fontRevision
	w.WriteUint32(0)          // checkSumAdjustment
	w.WriteUint32(0x5F0F3CF5) // magicNumber
	w.WriteUint16(0x000B)     // flags
	w.WriteUint16(unitsPerEm)
	w.WriteUint32(0)          // created
	w.WriteUint32(0xDA000000) // created
	w.WriteUint32(0)          // modified
	w.WriteUint32(0xDA000000) // modified
	w.WriteInt16(0)           // xMin
	w.WriteInt16(-200)        // yMin
	w.WriteInt16(1000)        // xMax
	w.WriteInt16(800)         // yMax
	w.WriteUint16(0)          // macStyle
	w.WriteUint16(8)          // lowestRecPPEM
	w.WriteInt16(2)           // fontDirectionHint
	w.WriteInt16(indexToLocFormat)
	w.WriteInt16(0) // glyphDataFormat
	return w.Bytes()
}

func buildMaxp(numGlyphs uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000) // version
	w.WriteUint16(numGlyphs)
	for i := 0; i < 13; i++ {
		w.WriteUint16(0)
	}
	return w.Bytes()
}

func buildHhea(numberOfHMetrics uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)    // majorVersion
	w.WriteUint16(0)    // minorVersion
	w.WriteInt16(800)   // ascender
	w.WriteInt16(-200)  // descender
	w.WriteInt16(0)     // lineGap
	w.WriteUint16(1000) // advanceWidthMax
	w.WriteInt16(0)     // minLeftSideBearing
	w.WriteInt16(0)     // minRightSideBearing
	w.WriteInt16(1000)  // xMaxExtent
	w.WriteInt16(1)     // caretSlopeRise
	w.WriteInt16(0)     // caretSlopeRun
	w.WriteInt16(0)     // caretOffset
	for i := 0; i < 4; i++ {
		w.WriteInt16(0) // reserved
	}
	w.WriteInt16(0) // metricDataFormat
	w.WriteUint16(numberOfHMetrics)
	return w.Bytes()
}

func buildHmtx(metrics []HMetric, numberOfHMetrics uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	for i, metric := range metrics {
		if i < int(numberOfHMetrics) {
			w.WriteUint16(metric.AdvanceWidth)
		}
		w.WriteInt16(metric.LeftSideBearing)
	}
	return w.Bytes()
}

func buildLoca(offsets []uint32, indexToLocFormat int16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	for _, offset := range offsets {
		if indexToLocFormat == 0 {
			w.WriteUint16(uint16(offset / 2))
		} else {
			w.WriteUint32(offset)
		}
	}
	return w.Bytes()
}

// buildGlyf concatenates glyph records, padding each to an even length, and returns the loca offsets.
func buildGlyf(glyphs [][]byte) ([]byte, []uint32) {
	w := parse.NewBinaryWriter([]byte{})
	offsets := []uint32{0}
	for _, glyph := range glyphs {
		w.WriteBytes(glyph)
		if len(glyph)%2 != 0 {
			w.WriteUint8(0)
		}
		offsets = append(offsets, uint32(w.Len()))
	}
	return w.Bytes(), offsets
}

// buildSimpleGlyph encodes contours with short vectors, same-value flags and flag repeats where possible.
func buildSimpleGlyph(contours ...[]Point) []byte {
	var points []Point
	var endPts []uint16
	for _, contour := range contours {
		points = append(points, contour...)
		endPts = append(endPts, uint16(len(points)-1))
	}
	xMin, yMin, xMax, yMax := points[0].X, points[0].Y, points[0].X, points[0].Y
	for _, p := range points {
		xMin, xMax = min(xMin, p.X), max(xMax, p.X)
		yMin, yMax = min(yMin, p.Y), max(yMax, p.Y)
	}

	flags := make([]byte, len(points))
	xs := parse.NewBinaryWriter([]byte{})
	ys := parse.NewBinaryWriter([]byte{})
	var x, y int16
	for i, p := range points {
		if p.OnCurve {
			flags[i] |= glyfOnCurvePoint
		}
		flags[i] |= encodeCoordinate(xs, p.X-x, glyfXShortVector, glyfXIsSameOrPositiveXShortVector)
		flags[i] |= encodeCoordinate(ys, p.Y-y, glyfYShortVector, glyfYIsSameOrPositiveYShortVector)
		x, y = p.X, p.Y
	}

	w := parse.NewBinaryWriter([]byte{})
	w.WriteInt16(int16(len(contours)))
	w.WriteInt16(xMin)
	w.WriteInt16(yMin)
	w.WriteInt16(xMax)
	w.WriteInt16(yMax)
	for _, endPt := range endPts {
		w.WriteUint16(endPt)
	}
	w.WriteUint16(2) // instructionLength
	w.WriteUint8(0xB0)
	w.WriteUint8(0x00)
	for i := 0; i < len(flags); {
		n := 1
		for i+n < len(flags) && flags[i+n] == flags[i] && n < 256 {
			n++
		}
		if 1 < n {
			w.WriteUint8(flags[i] | glyfRepeatFlag)
			w.WriteUint8(uint8(n - 1))
		} else {
			w.WriteUint8(flags[i])
		}
		i += n
	}
	w.WriteBytes(xs.Bytes())
	w.WriteBytes(ys.Bytes())
	return w.Bytes()
}

func encodeCoordinate(w *parse.BinaryWriter, d int16, shortFlag, sameFlag byte) byte {
	if d == 0 {
		return sameFlag
	} else if -255 <= d && d <= 255 {
		if 0 < d {
			w.WriteUint8(uint8(d))
			return shortFlag | sameFlag
		}
		w.WriteUint8(uint8(-d))
		return shortFlag
	}
	w.WriteInt16(d)
	return 0
}

// buildCompositeGlyph returns a composite glyph record referencing glyphID.
func buildCompositeGlyph(glyphID uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteInt16(-1)
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(100)
	w.WriteInt16(100)
	w.WriteUint16(0x0002) // flags: ARGS_ARE_XY_VALUES
	w.WriteUint16(glyphID)
	w.WriteUint8(0) // argument1
	w.WriteUint8(0) // argument2
	return w.Bytes()
}

type cmapRecord struct {
	platformID, encodingID uint16
	subtable               []byte
}

func buildCmap(records ...cmapRecord) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(uint16(len(records)))
	offset := 4 + 8*uint32(len(records))
	for _, record := range records {
		w.WriteUint16(record.platformID)
		w.WriteUint16(record.encodingID)
		w.WriteUint32(offset)
		offset += uint32(len(record.subtable))
	}
	for _, record := range records {
		w.WriteBytes(record.subtable)
	}
	return w.Bytes()
}

func buildCmapFormat0(glyphIDs [256]uint8) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0)   // format
	w.WriteUint16(262) // length
	w.WriteUint16(0)   // language
	w.WriteBytes(glyphIDs[:])
	return w.Bytes()
}

// format4Segment maps [start,end] either by delta or, if glyphIDs is set, through the glyphIdArray.
type format4Segment struct {
	start, end uint16
	delta      int16
	glyphIDs   []uint16
}

func buildCmapFormat4(segments ...format4Segment) []byte {
	if len(segments) == 0 || segments[len(segments)-1].end != 0xFFFF {
		segments = append(segments, format4Segment{start: 0xFFFF, end: 0xFFFF, delta: 1})
	}
	segCount := uint16(len(segments))

	var glyphIdArray []uint16
	idRangeOffsets := make([]uint16, segCount)
	for i, segment := range segments {
		if segment.glyphIDs != nil {
			idRangeOffsets[i] = 2 * (segCount - uint16(i) + uint16(len(glyphIdArray)))
			glyphIdArray = append(glyphIdArray, segment.glyphIDs...)
		}
	}

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(4) // format
	w.WriteUint16(16 + 8*segCount + 2*uint16(len(glyphIdArray)))
	w.WriteUint16(0) // language
	w.WriteUint16(2 * segCount)
	w.WriteUint16(0) // searchRange
	w.WriteUint16(0) // entrySelector
	w.WriteUint16(0) // rangeShift
	for _, segment := range segments {
		w.WriteUint16(segment.end)
	}
	w.WriteUint16(0) // reservedPad
	for _, segment := range segments {
		w.WriteUint16(segment.start)
	}
	for _, segment := range segments {
		w.WriteInt16(segment.delta)
	}
	for _, idRangeOffset := range idRangeOffsets {
		w.WriteUint16(idRangeOffset)
	}
	for _, glyphID := range glyphIdArray {
		w.WriteUint16(glyphID)
	}
	return w.Bytes()
}

func buildCmapFormat6(firstCode uint16, glyphIDs ...uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(6) // format
	w.WriteUint16(10 + 2*uint16(len(glyphIDs)))
	w.WriteUint16(0) // language
	w.WriteUint16(firstCode)
	w.WriteUint16(uint16(len(glyphIDs)))
	for _, glyphID := range glyphIDs {
		w.WriteUint16(glyphID)
	}
	return w.Bytes()
}

type format12Group struct {
	start, end, glyphID uint32
}

func buildCmapFormat12(groups ...format12Group) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(12) // format
	w.WriteUint16(0)  // reserved
	w.WriteUint32(16 + 12*uint32(len(groups)))
	w.WriteUint32(0) // language
	w.WriteUint32(uint32(len(groups)))
	for _, group := range groups {
		w.WriteUint32(group.start)
		w.WriteUint32(group.end)
		w.WriteUint32(group.glyphID)
	}
	return w.Bytes()
}

// buildName writes Windows English (US) records encoded as UTF-16BE.
func buildName(names map[NameID]string) []byte {
	ids := []NameID{}
	for id := NameCopyrightNotice; id <= NamePostScript; id++ {
		if _, ok := names[id]; ok {
			ids = append(ids, id)
		}
	}

	storage := parse.NewBinaryWriter([]byte{})
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(uint16(len(ids)))
	w.WriteUint16(6 + 12*uint16(len(ids))) // storageOffset
	for _, id := range ids {
		offset := storage.Len()
		for _, r := range names[id] {
			storage.WriteUint16(uint16(r))
		}
		w.WriteUint16(3)      // platformID
		w.WriteUint16(1)      // encodingID
		w.WriteUint16(0x0409) // languageID
		w.WriteUint16(uint16(id))
		w.WriteUint16(uint16(storage.Len() - offset))
		w.WriteUint16(uint16(offset))
	}
	w.WriteBytes(storage.Bytes())
	return w.Bytes()
}

// triangle is a closed three point contour.
var triangle = []Point{
	{X: 0, Y: 0, OnCurve: true},
	{X: 100, Y: 0, OnCurve: true},
	{X: 50, Y: 100, OnCurve: true},
}

// newTestFont returns a builder for a font with .notdef, an empty space, a triangle 'A' and a quadratic 'B'.
func newTestFont() *fontBuilder {
	fb := newFontBuilder()

	// .notdef
	fb.addGlyph(buildSimpleGlyph([]Point{
		{X: 0, Y: 0, OnCurve: true},
		{X: 500, Y: 0, OnCurve: true},
		{X: 500, Y: 700, OnCurve: true},
		{X: 0, Y: 700, OnCurve: true},
	}), 500, 0)

	// space, A and B
	fb.addGlyph(nil, 250, 0)
	fb.addGlyph(buildSimpleGlyph(triangle), 600, 0)
	fb.addGlyph(buildSimpleGlyph([]Point{
		{X: 0, Y: 0, OnCurve: true},
		{X: 400, Y: 0, OnCurve: false},
		{X: 400, Y: 400, OnCurve: true},
		{X: 0, Y: 400, OnCurve: false},
	}), 600, 0)

	fb.cmap = buildCmap(cmapRecord{3, 1, buildCmapFormat4(
		format4Segment{start: 0x20, end: 0x20, delta: 1 - 0x20},
		format4Segment{start: 0x41, end: 0x42, delta: 2 - 0x41},
	)})
	fb.name = buildName(map[NameID]string{
		NameFontFamily: "Test Sans",
		NameFull:       "Test Sans Regular",
	})
	return fb
}
