package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/tdewolff/ttf"
)

// Info prints the table directory with checksum verdicts and the font header.
type Info struct {
	Index int    `short:"i" desc:"Font index for font collections"`
	Input string `index:"0" desc:"Input file"`
}

func (cmd *Info) Run() error {
	b, mediatype, err := readFont(cmd.Input)
	if err != nil {
		return err
	}
	d, err := ttf.NewDecoder(b, options(cmd.Index, 0, false, false))
	if err != nil {
		return err
	}
	head, err := d.Head()
	if err != nil {
		return err
	}
	maxp, err := d.Maxp()
	if err != nil {
		return err
	}

	pterm.Info.Println(fmt.Sprintf("%s (%s, %d bytes)", cmd.Input, mediatype, len(b)))
	data := [][]string{{"Tag", "Offset", "Length", "Checksum", "Verdict"}}
	for _, tag := range d.Directory.Tags() {
		table := d.Directory.Tables[tag]
		var adjustment uint32
		if tag == ttf.TagHead {
			adjustment = head.CheckSumAdjustment
		}
		verdict := "ok"
		if computed := ttf.TableChecksum(b, table, adjustment); computed != table.Checksum {
			verdict = fmt.Sprintf("mismatch, computed 0x%08X", computed)
		}
		data = append(data, []string{string(tag), fmt.Sprint(table.Offset), fmt.Sprint(table.Length), fmt.Sprintf("0x%08X", table.Checksum), verdict})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	pterm.Printf("unitsPerEm: %d\n", head.UnitsPerEm)
	pterm.Printf("numGlyphs: %d\n", maxp.NumGlyphs)
	pterm.Printf("indexToLocFormat: %d\n", head.IndexToLocFormat)
	pterm.Printf("bounds: (%d,%d)-(%d,%d)\n", head.XMin, head.YMin, head.XMax, head.YMax)
	pterm.Printf("created: %v\n", head.Created)
	pterm.Printf("modified: %v\n", head.Modified)
	if name, err := d.Name(); err != nil {
		pterm.Error.Println(err)
	} else if name != nil {
		pterm.Printf("family: %s\n", name.Get(ttf.NameFontFamily))
		pterm.Printf("full name: %s\n", name.Get(ttf.NameFull))
	}
	if !ttf.ValidateFileChecksum(b) && d.Directory.Has(ttf.TagHead) {
		pterm.Error.Println("file checksum does not match checkSumAdjustment")
	}
	return nil
}
