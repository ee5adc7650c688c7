package ttf

import "encoding/binary"

// fileChecksumMagic is the value the whole-file checksum must equal once head.checkSumAdjustment is included.
const fileChecksumMagic = 0xB1B0AFBA

// CalcChecksum sums b as big-endian 32-bit words. A trailing partial word is padded with zeros.
func CalcChecksum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 3
	for i := 0; i < n; i += 4 {
		sum += binary.BigEndian.Uint32(b[i : i+4])
	}
	if n < len(b) {
		var tail [4]byte
		copy(tail[:], b[n:])
		sum += binary.BigEndian.Uint32(tail[:])
	}
	return sum
}

// TableChecksum computes the checksum of table. For the head table, adjustment is its checkSumAdjustment field, which is excluded from the sum; otherwise it is zero.
func TableChecksum(b []byte, table Table, adjustment uint32) uint32 {
	return CalcChecksum(table.Bytes(b)) - adjustment
}

// ValidateChecksum returns true if the checksum of table matches its directory entry. See TableChecksum for adjustment.
func ValidateChecksum(b []byte, table Table, adjustment uint32) bool {
	return TableChecksum(b, table, adjustment) == table.Checksum
}

// ValidateFileChecksum returns true if the checksum over the whole file equals the sfnt magic value, which is what head.checkSumAdjustment is chosen for.
func ValidateFileChecksum(b []byte) bool {
	return CalcChecksum(b) == fileChecksumMagic
}

// validateChecksums checks every table in the directory and returns the mismatching ones.
func validateChecksums(b []byte, dir *Directory, head *Head) []*ChecksumError {
	var errs []*ChecksumError
	for _, tag := range dir.Tags() {
		table := dir.Tables[tag]
		var adjustment uint32
		if tag == TagHead && head != nil {
			adjustment = head.CheckSumAdjustment
		}
		if computed := TableChecksum(b, table, adjustment); computed != table.Checksum {
			err := &ChecksumError{Tag: tag, Stored: table.Checksum, Computed: computed}
			tracer().Errorf("%v", err)
			errs = append(errs, err)
		}
	}
	return errs
}
