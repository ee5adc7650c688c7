package ttf

import (
	"errors"
	"fmt"
)

// MaxMemory is the maximum memory that can be allocated when unwrapping a font container.
var MaxMemory uint32 = 30 * 1024 * 1024

var (
	// ErrMalformedFont is returned when a field lies outside its table or violates a structural invariant.
	ErrMalformedFont = errors.New("malformed font")

	// ErrUnsupportedFeature is returned for valid data this package does not decode, such as composite glyphs.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrChecksumMismatch is returned for a table whose checksum does not match its directory entry.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrIO is returned when the font data could not be read.
	ErrIO = errors.New("cannot read font")

	// ErrExceedsMemory is returned when a container would decompress to more than MaxMemory bytes.
	ErrExceedsMemory = errors.New("memory limit exceeded")

	// ErrCmapSizeMismatch is returned when a cmap fill does not match the size computed for it.
	ErrCmapSizeMismatch = errors.New("cmap size mismatch")
)

// FormatError locates a decoding failure within the font file.
type FormatError struct {
	Tag    Tag
	Offset uint32 // absolute byte offset in the file
	Msg    string
	Err    error // ErrMalformedFont or ErrUnsupportedFeature
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d", e.Tag, e.Msg, e.Offset)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func malformed(tag Tag, offset uint32, format string, args ...interface{}) error {
	return &FormatError{
		Tag:    tag,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
		Err:    ErrMalformedFont,
	}
}

func unsupported(tag Tag, offset uint32, format string, args ...interface{}) error {
	return &FormatError{
		Tag:    tag,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
		Err:    ErrUnsupportedFeature,
	}
}

// ChecksumError reports a table whose stored and computed checksums differ.
type ChecksumError struct {
	Tag      Tag
	Stored   uint32
	Computed uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: checksum 0x%08X does not match computed 0x%08X", e.Tag, e.Stored, e.Computed)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// GlyphError reports the failure to decode a single glyph.
type GlyphError struct {
	GlyphID uint16
	Err     error
}

func (e *GlyphError) Error() string {
	return fmt.Sprintf("glyph %d: %v", e.GlyphID, e.Err)
}

func (e *GlyphError) Unwrap() error {
	return e.Err
}
