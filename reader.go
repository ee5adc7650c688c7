package ttf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"
)

// binaryReader wraps parse.BinaryReader with the table tag and the absolute file offset of its buffer. Reads past the end return zero values and set a sticky error instead of panicking, so a sequence of reads can be checked once.
type binaryReader struct {
	r    *parse.BinaryReader
	tag  Tag
	base uint32 // absolute offset of the buffer within the file
	size uint32
	err  error
}

func newBinaryReader(tag Tag, base uint32, buf []byte) *binaryReader {
	return &binaryReader{
		r:    parse.NewBinaryReaderBytes(buf),
		tag:  tag,
		base: base,
		size: uint32(len(buf)),
	}
}

func newBinaryReaderLE(tag Tag, buf []byte) *binaryReader {
	r := newBinaryReader(tag, 0, buf)
	r.r.ByteOrder = binary.LittleEndian
	return r
}

// Err returns the first out-of-bounds error encountered, if any.
func (r *binaryReader) Err() error {
	return r.err
}

// EOF returns true if a read went past the end of the buffer.
func (r *binaryReader) EOF() bool {
	return r.err != nil
}

// Pos returns the position relative to the start of the buffer.
func (r *binaryReader) Pos() uint32 {
	return uint32(r.r.Pos())
}

// Offset returns the absolute file offset of the cursor.
func (r *binaryReader) Offset() uint32 {
	return r.base + r.Pos()
}

// Len returns the number of remaining bytes, or zero after a failed read.
func (r *binaryReader) Len() uint32 {
	if r.err != nil {
		return 0
	}
	return uint32(r.r.Len())
}

// Seek sets the position relative to the start of the buffer.
func (r *binaryReader) Seek(pos uint32) {
	if r.err != nil {
		return
	} else if _, err := r.r.Seek(int64(pos), io.SeekStart); err != nil {
		r.fail(pos, 0)
	}
}

// Errorf returns a FormatError at the current cursor position, wrapping ErrMalformedFont.
func (r *binaryReader) Errorf(format string, args ...interface{}) error {
	return &FormatError{
		Tag:    r.tag,
		Offset: r.Offset(),
		Msg:    fmt.Sprintf(format, args...),
		Err:    ErrMalformedFont,
	}
}

func (r *binaryReader) fail(pos, n uint32) {
	r.err = &FormatError{
		Tag:    r.tag,
		Offset: r.base + pos,
		Msg:    fmt.Sprintf("read of %d bytes exceeds table length %d", n, r.size),
		Err:    ErrMalformedFont,
	}
}

// has reports whether n more bytes can be read, and records the error otherwise.
func (r *binaryReader) has(n uint32) bool {
	if r.err != nil {
		return false
	} else if r.r.Len() < int64(n) {
		r.fail(r.Pos(), n)
		return false
	}
	return true
}

// ReadBytes returns a copy of the next n bytes.
func (r *binaryReader) ReadBytes(n uint32) []byte {
	if !r.has(n) {
		return nil
	}
	return append([]byte{}, r.r.ReadBytes(int64(n))...)
}

// Skip advances the cursor by n bytes.
func (r *binaryReader) Skip(n uint32) {
	if r.has(n) {
		_ = r.r.ReadBytes(int64(n))
	}
}

func (r *binaryReader) ReadString(n uint32) string {
	if !r.has(n) {
		return ""
	}
	return r.r.ReadString(int64(n))
}

func (r *binaryReader) ReadUint8() uint8 {
	if !r.has(1) {
		return 0
	}
	return r.r.ReadUint8()
}

func (r *binaryReader) ReadInt8() int8 {
	if !r.has(1) {
		return 0
	}
	return r.r.ReadInt8()
}

func (r *binaryReader) ReadUint16() uint16 {
	if !r.has(2) {
		return 0
	}
	return r.r.ReadUint16()
}

func (r *binaryReader) ReadInt16() int16 {
	if !r.has(2) {
		return 0
	}
	return r.r.ReadInt16()
}

func (r *binaryReader) ReadUint32() uint32 {
	if !r.has(4) {
		return 0
	}
	return r.r.ReadUint32()
}

func (r *binaryReader) ReadInt32() int32 {
	if !r.has(4) {
		return 0
	}
	return r.r.ReadInt32()
}

func (r *binaryReader) ReadUint64() uint64 {
	if !r.has(8) {
		return 0
	}
	return r.r.ReadUint64()
}
