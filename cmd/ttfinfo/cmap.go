package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/tdewolff/ttf"
)

// Cmap lists the character map of the best Unicode subtable.
type Cmap struct {
	Index int    `short:"i" desc:"Font index for font collections"`
	Input string `index:"0" desc:"Input file"`
}

func (cmd *Cmap) Run() error {
	b, _, err := readFont(cmd.Input)
	if err != nil {
		return err
	}
	d, err := ttf.NewDecoder(b, options(cmd.Index, 0, false, false))
	if err != nil {
		return err
	}
	maxp, err := d.Maxp()
	if err != nil {
		return err
	}
	size, err := d.CmapSize(maxp)
	if err != nil {
		return err
	}
	cmap := make([]ttf.CharacterMap, size.Len())
	if err := size.Fill(cmap); err != nil {
		return err
	}

	pterm.Info.Println(fmt.Sprintf("%d characters from subtable %v", len(cmap), size.Encoding))
	data := [][]string{{"Unicode", "Char", "Glyph"}}
	for _, entry := range cmap {
		data = append(data, []string{fmt.Sprintf("%U", entry.Unicode), printableRune(entry.Unicode), fmt.Sprint(entry.GlyphIndex)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil
}
