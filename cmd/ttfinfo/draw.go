package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/prompt"
	"github.com/tdewolff/ttf"
)

// Draw writes the outline of a glyph as an SVG image.
type Draw struct {
	Index   int     `short:"i" desc:"Font index for font collections"`
	GlyphID int     `short:"g" name:"glyph" desc:"Glyph ID" default:"-1"`
	Char    string  `short:"c" desc:"Unicode character, literal or as U+XXXX"`
	Size    float64 `short:"s" desc:"Font size in pixels per EM" default:"512"`
	Force   bool    `short:"f" desc:"Force overwriting existing files."`
	Output  string  `short:"o" desc:"Output filename"`
	Input   string  `index:"0" desc:"Input file"`
}

func (cmd *Draw) Run() error {
	if cmd.Output == "" {
		return fmt.Errorf("output file name not set")
	} else if cmd.Size <= 0.0 {
		return fmt.Errorf("font size must be positive")
	}

	b, _, err := readFont(cmd.Input)
	if err != nil {
		return err
	}
	font, err := ttf.Parse(b, options(cmd.Index, 0, false, false))
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
	}
	if glyphID < 0 || int(font.NumGlyphs) <= glyphID {
		return fmt.Errorf("glyph ID %d out of range [0,%d)", glyphID, font.NumGlyphs)
	}

	p := &canvas.Path{}
	if err := font.GlyphPath(p, uint16(glyphID), 0.0, 0.0, cmd.Size); err != nil {
		return err
	}
	f := cmd.Size / float64(font.UnitsPerEm)
	width := f * float64(font.Advance(uint16(glyphID)))
	ascent, descent := f*float64(font.Head.YMax), f*float64(font.Head.YMin)

	if _, err := os.Stat(cmd.Output); err == nil {
		if !cmd.Force && !prompt.YesNo(fmt.Sprintf("%s already exists, overwrite?", cmd.Output), false) {
			return nil
		}
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 %g %g %g"><path transform="scale(1,-1)" d="%s"/></svg>`,
		-ascent, width, ascent-descent, p.ToSVG())
	if err := os.WriteFile(cmd.Output, []byte(svg), 0644); err != nil {
		return err
	}
	pterm.Info.Println(fmt.Sprintf("drew glyph %d to %s", glyphID, cmd.Output))
	return nil
}
