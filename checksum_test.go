package ttf

import (
	"errors"
	"testing"

	"github.com/tdewolff/test"
)

func TestCalcChecksum(t *testing.T) {
	test.T(t, CalcChecksum([]byte{0, 0, 0, 1, 0, 0, 0, 2}), uint32(3))
	test.T(t, CalcChecksum([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 2}), uint32(1))
	test.T(t, CalcChecksum([]byte{0, 0, 0, 1, 0x01}), uint32(0x01000001), "partial word is zero-padded")
	test.T(t, CalcChecksum(nil), uint32(0))
}

func TestValidateChecksum(t *testing.T) {
	b := newTestFont().Bytes()
	dir, err := ParseTableDirectory(b)
	test.Error(t, err)
	head, err := ParseHead(b, dir.Tables[TagHead])
	test.Error(t, err)
	test.That(t, head.CheckSumAdjustment != 0)

	for _, tag := range dir.Tags() {
		var adjustment uint32
		if tag == TagHead {
			adjustment = head.CheckSumAdjustment
		}
		test.That(t, ValidateChecksum(b, dir.Tables[tag], adjustment), tag)
	}
	test.That(t, ValidateFileChecksum(b))
	test.That(t, !ValidateChecksum(b, dir.Tables[TagHead], 0), "head checksum must exclude checkSumAdjustment")
	test.T(t, len(validateChecksums(b, dir, head)), 0)
}

func TestChecksumMismatch(t *testing.T) {
	b := newTestFont().Bytes()
	dir, err := ParseTableDirectory(b)
	test.Error(t, err)

	// change the last character of the full name
	name := dir.Tables[TagName]
	b[name.Offset+name.Length-1] ^= 0x01

	font, err := Parse(b, DefaultOptions())
	test.Error(t, err)
	test.T(t, len(font.ChecksumErrors), 1)
	test.T(t, font.ChecksumErrors[0].Tag, TagName)
	test.T(t, font.ChecksumErrors[0].Stored, name.Checksum)
	test.That(t, errors.Is(font.ChecksumErrors[0], ErrChecksumMismatch))
	test.That(t, !ValidateFileChecksum(b))

	opts := DefaultOptions()
	opts.StrictChecksums = true
	_, err = Parse(b, opts)
	test.That(t, errors.Is(err, ErrChecksumMismatch))
}

func TestChecksumAdjustmentIgnored(t *testing.T) {
	b := newTestFont().Bytes()
	dir, err := ParseTableDirectory(b)
	test.Error(t, err)

	// a different checkSumAdjustment breaks the file checksum but not the head checksum
	b[dir.Tables[TagHead].Offset+8] ^= 0xFF
	opts := DefaultOptions()
	opts.StrictChecksums = true
	font, err := Parse(b, opts)
	test.Error(t, err)
	test.T(t, len(font.ChecksumErrors), 0)
	test.That(t, !ValidateFileChecksum(b))
}
