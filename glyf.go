package ttf

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// simple glyph flags
const (
	glyfOnCurvePoint                  = 0x01
	glyfXShortVector                  = 0x02
	glyfYShortVector                  = 0x04
	glyfRepeatFlag                    = 0x08
	glyfXIsSameOrPositiveXShortVector = 0x10
	glyfYIsSameOrPositiveYShortVector = 0x20
	glyfOverlapSimple                 = 0x40
)

// glyfChunkSize is the number of glyphs a worker decodes per task.
const glyfChunkSize = 256

// Point is an outline point in font units.
type Point struct {
	X, Y    int16
	OnCurve bool // off-curve points are quadratic Bézier control points
}

// Glyph is a decoded simple glyph outline. Empty glyphs (such as space) have no contours and no points.
type Glyph struct {
	NumberOfContours       int16
	XMin, YMin, XMax, YMax int16
	Points                 []Point
	EndPtsOfContours       []uint16
}

// IsEmpty returns true if the glyph has no outline.
func (glyph *Glyph) IsEmpty() bool {
	return len(glyph.Points) == 0
}

// Contours returns the points of each contour. The returned slices share storage with glyph.Points.
func (glyph *Glyph) Contours() [][]Point {
	contours := make([][]Point, 0, len(glyph.EndPtsOfContours))
	start := 0
	for _, end := range glyph.EndPtsOfContours {
		contours = append(contours, glyph.Points[start:int(end)+1])
		start = int(end) + 1
	}
	return contours
}

func (glyph *Glyph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Contours: %v\n", glyph.NumberOfContours)
	fmt.Fprintf(&b, "Bounds: (%v,%v)-(%v,%v)\n", glyph.XMin, glyph.YMin, glyph.XMax, glyph.YMax)
	fmt.Fprintf(&b, "EndPoints: %v\n", glyph.EndPtsOfContours)
	if glyph.IsEmpty() {
		fmt.Fprintf(&b, "Empty glyph\n")
		return b.String()
	}
	for i, p := range glyph.Points {
		onCurve := "Off"
		if p.OnCurve {
			onCurve = "On"
		}
		fmt.Fprintf(&b, "  %4d %8v %8v %3v\n", i, p.X, p.Y, onCurve)
	}
	return b.String()
}

// GlyphPolicy decides what happens when a single glyph cannot be decoded.
type GlyphPolicy int

// see GlyphPolicy
const (
	// SubstituteEmptyGlyph replaces the glyph by an empty glyph and records the error.
	SubstituteEmptyGlyph GlyphPolicy = iota
	// AbortOnGlyphError fails the whole glyf table.
	AbortOnGlyphError
)

func (policy GlyphPolicy) String() string {
	switch policy {
	case SubstituteEmptyGlyph:
		return "substitute"
	case AbortOnGlyphError:
		return "abort"
	}
	return fmt.Sprintf("GlyphPolicy(%d)", int(policy))
}

// GlyfOptions configures ParseGlyf.
type GlyfOptions struct {
	Policy  GlyphPolicy
	Workers int // number of goroutines, zero uses GOMAXPROCS
}

// ParseGlyf decodes the outlines of all glyphs using the offsets from ParseLoca. With SubstituteEmptyGlyph, glyphs that fail to decode are returned empty and their errors are returned in ascending glyph order. With AbortOnGlyphError, the failure of the lowest failing glyph is returned as error.
func ParseGlyf(b []byte, table Table, offsets []uint32, numGlyphs uint16, opts GlyfOptions) ([]Glyph, []*GlyphError, error) {
	if len(offsets) != int(numGlyphs)+1 {
		return nil, nil, malformed(TagGlyf, table.Offset, "got %d loca offsets for %d glyphs", len(offsets), numGlyphs)
	} else if table.Length < offsets[numGlyphs] {
		return nil, nil, malformed(TagGlyf, table.Offset, "loca end offset %d exceeds table length %d", offsets[numGlyphs], table.Length)
	}
	for i := 0; i < int(numGlyphs); i++ {
		if offsets[i+1] < offsets[i] {
			return nil, nil, malformed(TagGlyf, table.Offset+offsets[i+1], "loca offset of glyph %d decreases", i+1)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	data := table.Bytes(b)
	glyphs := make([]Glyph, numGlyphs)
	errs := make([]error, numGlyphs)

	// firstErr is the lowest failing glyph so far; with AbortOnGlyphError tasks stop past it
	var firstErr atomic.Int64
	firstErr.Store(math.MaxInt64)

	g := errgroup.Group{}
	g.SetLimit(workers)
	for start := 0; start < int(numGlyphs); start += glyfChunkSize {
		start, end := start, start+glyfChunkSize
		if int(numGlyphs) < end {
			end = int(numGlyphs)
		}
		g.Go(func() error {
			// each task writes only to glyphs[start:end] and errs[start:end]
			for i := start; i < end; i++ {
				if opts.Policy == AbortOnGlyphError && firstErr.Load() < int64(i) {
					return nil
				}
				glyph, err := decodeGlyph(data[offsets[i]:offsets[i+1]], table.Offset+offsets[i])
				if err != nil {
					errs[i] = err
					storeMin(&firstErr, int64(i))
					continue
				}
				glyphs[i] = glyph
			}
			return nil
		})
	}
	_ = g.Wait() // errors are collected per glyph

	var glyphErrs []*GlyphError
	for i, err := range errs {
		if err == nil {
			continue
		}
		glyphErr := &GlyphError{GlyphID: uint16(i), Err: err}
		if opts.Policy == AbortOnGlyphError {
			return nil, nil, glyphErr
		}
		tracer().Errorf("glyf: substituting empty glyph: %v", glyphErr)
		glyphErrs = append(glyphErrs, glyphErr)
	}
	return glyphs, glyphErrs, nil
}

func storeMin(v *atomic.Int64, i int64) {
	for prev := v.Load(); i < prev; prev = v.Load() {
		if v.CompareAndSwap(prev, i) {
			return
		}
	}
}

// DecodeGlyph decodes a single glyph record, which is the glyf slice given by the loca range of a glyph.
func DecodeGlyph(data []byte) (Glyph, error) {
	return decodeGlyph(data, 0)
}

// decodeGlyph decodes a glyph record; base is its absolute file offset for error reporting.
func decodeGlyph(data []byte, base uint32) (Glyph, error) {
	glyph := Glyph{}
	if len(data) == 0 {
		return glyph, nil
	}

	r := newBinaryReader(TagGlyf, base, data)
	glyph.NumberOfContours = r.ReadInt16()
	glyph.XMin = r.ReadInt16()
	glyph.YMin = r.ReadInt16()
	glyph.XMax = r.ReadInt16()
	glyph.YMax = r.ReadInt16()
	if err := r.Err(); err != nil {
		return Glyph{}, err
	} else if glyph.NumberOfContours < 0 {
		return Glyph{}, unsupported(TagGlyf, base, "composite glyph")
	} else if glyph.NumberOfContours == 0 {
		return glyph, nil
	}

	numberOfContours := int(glyph.NumberOfContours)
	glyph.EndPtsOfContours = make([]uint16, numberOfContours)
	for i := 0; i < numberOfContours; i++ {
		glyph.EndPtsOfContours[i] = r.ReadUint16()
		if 0 < i && glyph.EndPtsOfContours[i] <= glyph.EndPtsOfContours[i-1] && r.Err() == nil {
			return Glyph{}, r.Errorf("endPtsOfContours not strictly increasing")
		}
	}
	numPoints := int(glyph.EndPtsOfContours[numberOfContours-1]) + 1

	instructionLength := r.ReadUint16()
	r.Skip(uint32(instructionLength))
	if err := r.Err(); err != nil {
		return Glyph{}, err
	}

	flags, err := expandFlags(r, numPoints)
	if err != nil {
		return Glyph{}, err
	}

	glyph.Points = make([]Point, numPoints)
	var x int16
	for i, flag := range flags {
		if flag&glyfXShortVector != 0 {
			dx := int16(r.ReadUint8())
			if flag&glyfXIsSameOrPositiveXShortVector == 0 {
				dx = -dx
			}
			x += dx
		} else if flag&glyfXIsSameOrPositiveXShortVector == 0 {
			x += r.ReadInt16()
		}
		glyph.Points[i].X = x
		glyph.Points[i].OnCurve = flag&glyfOnCurvePoint != 0
	}

	var y int16
	for i, flag := range flags {
		if flag&glyfYShortVector != 0 {
			dy := int16(r.ReadUint8())
			if flag&glyfYIsSameOrPositiveYShortVector == 0 {
				dy = -dy
			}
			y += dy
		} else if flag&glyfYIsSameOrPositiveYShortVector == 0 {
			y += r.ReadInt16()
		}
		glyph.Points[i].Y = y
	}
	if err := r.Err(); err != nil {
		return Glyph{}, err
	}
	return glyph, nil
}

// expandFlags reads run-length encoded point flags until numPoints flags have been produced.
func expandFlags(r *binaryReader, numPoints int) ([]byte, error) {
	flags := make([]byte, numPoints)
	for i := 0; i < numPoints; {
		flag := r.ReadUint8()
		flags[i] = flag
		i++
		if flag&glyfRepeatFlag != 0 {
			repeats := int(r.ReadUint8())
			if numPoints-i < repeats {
				return nil, r.Errorf("flag repeat count %d exceeds %d remaining points", repeats, numPoints-i)
			}
			for j := 0; j < repeats; j++ {
				flags[i+j] = flag
			}
			i += repeats
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
	}
	return flags, nil
}
