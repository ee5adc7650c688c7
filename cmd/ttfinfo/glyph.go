package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/tdewolff/ttf"
)

// Glyph prints the decoded outline of a single glyph.
type Glyph struct {
	Index   int    `short:"i" desc:"Font index for font collections"`
	GlyphID int    `short:"g" name:"glyph" desc:"Glyph ID" default:"-1"`
	Char    string `short:"c" desc:"Unicode character, literal or as U+XXXX"`
	Workers int    `short:"w" desc:"Number of goroutines decoding glyphs, zero uses all CPUs"`
	Abort   bool   `desc:"Fail when any glyph cannot be decoded instead of substituting an empty glyph"`
	Input   string `index:"0" desc:"Input file"`
}

func (cmd *Glyph) Run() error {
	b, _, err := readFont(cmd.Input)
	if err != nil {
		return err
	}
	font, err := ttf.Parse(b, options(cmd.Index, cmd.Workers, cmd.Abort, false))
	if err != nil {
		return err
	}

	glyphID := cmd.GlyphID
	if cmd.Char != "" {
		r, err := parseChar(cmd.Char)
		if err != nil {
			return err
		}
		glyphID = int(font.GlyphIndex(r))
		pterm.Info.Println(fmt.Sprintf("%s maps to glyph %d", printableRune(r), glyphID))
	}
	if glyphID < 0 || int(font.NumGlyphs) <= glyphID {
		return fmt.Errorf("glyph ID %d out of range [0,%d)", glyphID, font.NumGlyphs)
	}

	for _, glyphErr := range font.GlyphErrors {
		if int(glyphErr.GlyphID) == glyphID {
			pterm.Error.Println(glyphErr)
		}
	}
	glyph := font.Glyph(uint16(glyphID))
	pterm.Printf("advance: %d\n", font.Advance(uint16(glyphID)))
	pterm.Println(glyph.String())
	return nil
}
