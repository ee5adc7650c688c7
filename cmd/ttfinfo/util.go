package main

import (
	"fmt"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/tdewolff/ttf"
)

func readFont(filename string) ([]byte, string, error) {
	var err error
	var r *os.File
	if filename == "" || filename == "-" {
		r = os.Stdin
	} else if r, err = os.Open(filename); err != nil {
		return nil, "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		r.Close()
		return nil, "", err
	} else if err := r.Close(); err != nil {
		return nil, "", err
	}

	mediatype, err := ttf.MediaType(b)
	if err != nil {
		return nil, "", err
	} else if b, err = ttf.ToSFNT(b); err != nil {
		return nil, "", err
	}
	return b, mediatype, nil
}

func options(index, workers int, abort, strict bool) ttf.Options {
	opts := ttf.DefaultOptions()
	opts.CollectionIndex = index
	opts.Workers = workers
	opts.StrictChecksums = strict
	if abort {
		opts.GlyphPolicy = ttf.AbortOnGlyphError
	}
	return opts
}

func printableRune(r rune) string {
	if unicode.IsGraphic(r) {
		return fmt.Sprintf("%c", r)
	} else if r < 128 {
		return fmt.Sprintf("0x%02X", r)
	}
	return fmt.Sprintf("%U", r)
}

// parseChar returns the code point of a literal character or of a U+XXXX notation.
func parseChar(s string) (rune, error) {
	var r rune
	if _, err := fmt.Sscanf(s, "U+%X", &r); err == nil {
		return r, nil
	} else if utf8.RuneCountInString(s) == 1 {
		r, _ = utf8.DecodeRuneInString(s)
		return r, nil
	}
	return 0, fmt.Errorf("bad character %q", s)
}
