package ttf

import (
	"fmt"
	"io"
)

// Options configures decoding.
type Options struct {
	GlyphPolicy     GlyphPolicy // what to do with glyphs that fail to decode
	StrictChecksums bool        // fail on table checksum mismatches instead of recording them
	Workers         int         // goroutines decoding glyphs, zero uses GOMAXPROCS
	CollectionIndex int         // font index within a TrueType collection
}

// DefaultOptions substitutes empty glyphs for glyphs that fail to decode, records checksum mismatches without failing, and decodes glyphs on all CPUs.
func DefaultOptions() Options {
	return Options{
		GlyphPolicy: SubstituteEmptyGlyph,
	}
}

// FontData is a decoded TrueType font, ready to hand to a renderer.
type FontData struct {
	UnitsPerEm   uint16
	NumGlyphs    uint16
	Glyphs       []Glyph        // indexed by glyph ID
	CharacterMap []CharacterMap // sorted by Unicode, unique keys
	Metrics      []HMetric      // indexed by glyph ID

	Head       *Head
	Hhea       *Hhea // nil if the font has no hhea table
	FamilyName string
	FullName   string

	ChecksumErrors []*ChecksumError
	GlyphErrors    []*GlyphError // glyphs substituted by empty glyphs
}

// GlyphIndex returns the glyph ID for r, or 0 (.notdef) if the font does not map it.
func (font *FontData) GlyphIndex(r rune) uint16 {
	glyphID, _ := LookupGlyphIndex(font.CharacterMap, r)
	return glyphID
}

// Advance returns the advance width of the glyph in font units.
func (font *FontData) Advance(glyphID uint16) uint16 {
	if int(glyphID) < len(font.Metrics) {
		return font.Metrics[glyphID].AdvanceWidth
	}
	return 0
}

// Glyph returns the outline of the glyph, or nil if glyphID is out of range.
func (font *FontData) Glyph(glyphID uint16) *Glyph {
	if int(glyphID) < len(font.Glyphs) {
		return &font.Glyphs[glyphID]
	}
	return nil
}

// GlyphPath appends the outline of the glyph to p at (x,y), scaled so that one EM equals size.
func (font *FontData) GlyphPath(p Pather, glyphID uint16, x, y, size float64) error {
	glyph := font.Glyph(glyphID)
	if glyph == nil {
		return fmt.Errorf("glyph %d out of range", glyphID)
	}
	glyph.ToPath(p, x, y, size/float64(font.UnitsPerEm))
	return nil
}

// Decoder decodes the tables of a single font. Tables that depend on others take them as arguments, so they can only be decoded once their prerequisites have been.
type Decoder struct {
	b         []byte
	opts      Options
	Directory *Directory
}

// NewDecoder parses the table directory of b, which must be an uncompressed sfnt font or collection.
func NewDecoder(b []byte, opts Options) (*Decoder, error) {
	dir, err := ParseCollectionDirectory(b, opts.CollectionIndex)
	if err != nil {
		return nil, err
	} else if !dir.IsTrueType() {
		return nil, unsupported(tagDirectory, 0, "font has no TrueType outlines (version %q)", dir.Version)
	}
	return &Decoder{
		b:         b,
		opts:      opts,
		Directory: dir,
	}, nil
}

// Head decodes the font header.
func (d *Decoder) Head() (*Head, error) {
	table, err := d.Directory.Require(TagHead)
	if err != nil {
		return nil, err
	}
	return ParseHead(d.b, table)
}

// Maxp decodes the maximum profile.
func (d *Decoder) Maxp() (*Maxp, error) {
	table, err := d.Directory.Require(TagMaxp)
	if err != nil {
		return nil, err
	}
	return ParseMaxp(d.b, table)
}

// Checksums validates the checksums of all tables. Mismatches are returned, or fail as an error wrapping ErrChecksumMismatch with StrictChecksums.
func (d *Decoder) Checksums(head *Head) ([]*ChecksumError, error) {
	errs := validateChecksums(d.b, d.Directory, head)
	if d.opts.StrictChecksums && 0 < len(errs) {
		return nil, errs[0]
	}
	return errs, nil
}

// Hhea decodes the horizontal header. It returns nil without error when the font has none.
func (d *Decoder) Hhea(maxp *Maxp) (*Hhea, error) {
	table, ok := d.Directory.Get(TagHhea)
	if !ok {
		return nil, nil
	}
	return ParseHhea(d.b, table, maxp.NumGlyphs)
}

// Loca decodes the glyph offsets.
func (d *Decoder) Loca(head *Head, maxp *Maxp) ([]uint32, error) {
	table, err := d.Directory.Require(TagLoca)
	if err != nil {
		return nil, err
	}
	return ParseLoca(d.b, table, maxp.NumGlyphs, head.IndexToLocFormat)
}

// Glyf decodes all glyph outlines according to the glyph policy.
func (d *Decoder) Glyf(maxp *Maxp, loca []uint32) ([]Glyph, []*GlyphError, error) {
	table, err := d.Directory.Require(TagGlyf)
	if err != nil {
		return nil, nil, err
	}
	return ParseGlyf(d.b, table, loca, maxp.NumGlyphs, GlyfOptions{
		Policy:  d.opts.GlyphPolicy,
		Workers: d.opts.Workers,
	})
}

// CmapSize sizes the character map, see GetCmapSize.
func (d *Decoder) CmapSize(maxp *Maxp) (*CmapSize, error) {
	table, err := d.Directory.Require(TagCmap)
	if err != nil {
		return nil, err
	}
	return GetCmapSize(d.b, table, maxp.NumGlyphs)
}

// Cmap decodes the character map.
func (d *Decoder) Cmap(maxp *Maxp) ([]CharacterMap, error) {
	size, err := d.CmapSize(maxp)
	if err != nil {
		return nil, err
	}
	cmap := make([]CharacterMap, size.Len())
	if err := size.Fill(cmap); err != nil {
		return nil, err
	}
	return cmap, nil
}

// Hmtx decodes the horizontal metrics. If hhea is nil, the number of long metrics is inferred from the table length.
func (d *Decoder) Hmtx(maxp *Maxp, hhea *Hhea) ([]HMetric, error) {
	table, err := d.Directory.Require(TagHmtx)
	if err != nil {
		return nil, err
	}
	var numberOfHMetrics uint16
	if hhea != nil {
		numberOfHMetrics = hhea.NumberOfHMetrics
	}
	return ParseHmtx(d.b, table, maxp.NumGlyphs, numberOfHMetrics)
}

// Name decodes the naming table. It returns nil without error when the font has none.
func (d *Decoder) Name() (*Name, error) {
	table, ok := d.Directory.Get(TagName)
	if !ok {
		return nil, nil
	}
	return ParseName(d.b, table)
}

// Decode decodes all tables into a FontData.
func (d *Decoder) Decode() (*FontData, error) {
	head, err := d.Head()
	if err != nil {
		return nil, err
	}
	maxp, err := d.Maxp()
	if err != nil {
		return nil, err
	}
	checksumErrs, err := d.Checksums(head)
	if err != nil {
		return nil, err
	}

	loca, err := d.Loca(head, maxp)
	if err != nil {
		return nil, err
	}
	glyphs, glyphErrs, err := d.Glyf(maxp, loca)
	if err != nil {
		return nil, err
	}
	cmap, err := d.Cmap(maxp)
	if err != nil {
		return nil, err
	}
	hhea, err := d.Hhea(maxp)
	if err != nil {
		return nil, err
	}
	metrics, err := d.Hmtx(maxp, hhea)
	if err != nil {
		return nil, err
	}

	font := &FontData{
		UnitsPerEm:     head.UnitsPerEm,
		NumGlyphs:      maxp.NumGlyphs,
		Glyphs:         glyphs,
		CharacterMap:   cmap,
		Metrics:        metrics,
		Head:           head,
		Hhea:           hhea,
		ChecksumErrors: checksumErrs,
		GlyphErrors:    glyphErrs,
	}
	if name, err := d.Name(); err != nil {
		// names are informational only
		tracer().Errorf("name: %v", err)
	} else if name != nil {
		font.FamilyName = name.Get(NameFontFamily)
		font.FullName = name.Get(NameFull)
	}
	tracer().Infof("decoded %q: %d glyphs, %d mapped characters, %d substituted glyphs, %d checksum mismatches",
		font.FullName, font.NumGlyphs, len(font.CharacterMap), len(font.GlyphErrors), len(font.ChecksumErrors))
	return font, nil
}

// Parse decodes an uncompressed sfnt font or collection.
func Parse(b []byte, opts Options) (*FontData, error) {
	d, err := NewDecoder(b, opts)
	if err != nil {
		return nil, err
	}
	return d.Decode()
}

// Load reads a font from r, unwraps WOFF, WOFF2 and EOT containers, and decodes it.
func Load(r io.Reader, opts Options) (*FontData, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if b, err = ToSFNT(b); err != nil {
		return nil, err
	}
	return Parse(b, opts)
}
