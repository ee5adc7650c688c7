package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/tdewolff/prompt"
	"github.com/tdewolff/ttf"
)

// Extract writes the sfnt font contained in a WOFF, WOFF2 or EOT file.
type Extract struct {
	Force  bool   `short:"f" desc:"Force overwriting existing files."`
	Check  bool   `short:"c" desc:"Decode the font before writing it."`
	Output string `short:"o" desc:"Output filename"`
	Input  string `index:"0" desc:"Input file"`
}

func (cmd *Extract) Run() error {
	if cmd.Output == "" {
		return fmt.Errorf("output file name not set")
	}

	b, mediatype, err := readFont(cmd.Input)
	if err != nil {
		return err
	}
	if cmd.Check {
		if _, err := ttf.Parse(b, ttf.DefaultOptions()); err != nil {
			return err
		}
	}

	if _, err := os.Stat(cmd.Output); err == nil {
		if !cmd.Force && !prompt.YesNo(fmt.Sprintf("%s already exists, overwrite?", cmd.Output), false) {
			return nil
		}
	}
	if err := os.WriteFile(cmd.Output, b, 0644); err != nil {
		return err
	}
	pterm.Info.Println(fmt.Sprintf("extracted %s (%s) to %s, %d bytes", cmd.Input, mediatype, cmd.Output, len(b)))
	return nil
}
