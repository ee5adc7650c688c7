package ttf

const tagEOT Tag = "EOT "

const (
	eotVersion1  = 0x00010000
	eotVersion21 = 0x00020001
	eotVersion22 = 0x00020002

	eotCompressed = 0x00000004
	eotXOR        = 0x10000000
)

// eotHeader holds the fields of an EOT header that determine how the embedded font data is stored.
type eotHeader struct {
	size         uint32
	fontDataSize uint32
	version      uint32
	flags        uint32
}

func readEOTHeader(r *binaryReader) (eotHeader, error) {
	h := eotHeader{}
	h.size = r.ReadUint32()
	h.fontDataSize = r.ReadUint32()
	h.version = r.ReadUint32()
	h.flags = r.ReadUint32()
	r.Skip(10 + 1 + 1 + 4 + 2) // FontPANOSE, Charset, Italic, Weight and fsType
	magicNumber := r.ReadUint16()
	r.Skip(24 + 4 + 16) // UnicodeRange, CodePageRange, CheckSumAdjustment and Reserved
	if err := r.Err(); err != nil {
		return h, err
	} else if h.version != eotVersion1 && h.version != eotVersion21 && h.version != eotVersion22 {
		return h, unsupported(tagEOT, 8, "version 0x%08X", h.version)
	} else if magicNumber != 0x504C {
		return h, malformed(tagEOT, 34, "bad magic number 0x%04X", magicNumber)
	}

	// FamilyName, StyleName, VersionName, FullName and for later versions RootString are each preceded by padding and their size
	numNames := 4
	if h.version != eotVersion1 {
		numNames++
	}
	for i := 0; i < numNames; i++ {
		if padding := r.ReadUint16(); padding != 0 && r.Err() == nil {
			return h, r.Errorf("padding must be zero")
		}
		r.Skip(uint32(r.ReadUint16()))
	}

	if h.version == eotVersion22 {
		r.Skip(4 + 4) // RootStringCheckSum and EUDCCodePage
		if padding := r.ReadUint16(); padding != 0 && r.Err() == nil {
			return h, r.Errorf("padding must be zero")
		}
		r.Skip(uint32(r.ReadUint16())) // Signature
		r.Skip(4)                      // EUDCFlags
		r.Skip(r.ReadUint32())         // EUDCFontData
	}
	return h, r.Err()
}

// ParseEOT parses the EOT font format and returns its contained sfnt data. Fonts compressed with MicroType Express return ErrUnsupportedFeature. See https://www.w3.org/Submission/EOT/
func ParseEOT(b []byte) ([]byte, error) {
	r := newBinaryReaderLE(tagEOT, b)
	h, err := readEOTHeader(r)
	if err != nil {
		return nil, err
	} else if h.size != uint32(len(b)) {
		return nil, malformed(tagEOT, 0, "EOTSize %d does not match file size %d", h.size, len(b))
	} else if MaxMemory < h.fontDataSize {
		return nil, ErrExceedsMemory
	} else if r.Len() != h.fontDataSize {
		return nil, r.Errorf("FontDataSize %d does not match %d remaining bytes", h.fontDataSize, r.Len())
	} else if h.flags&eotCompressed != 0 {
		return nil, unsupported(tagEOT, r.Offset(), "MicroType Express compression")
	}

	fontData := r.ReadBytes(h.fontDataSize)
	if h.flags&eotXOR != 0 {
		for i := range fontData {
			fontData[i] ^= 0x50
		}
	}
	tracer().Debugf("eot: version 0x%08X with %d bytes of font data", h.version, h.fontDataSize)
	return fontData, nil
}
