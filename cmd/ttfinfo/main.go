package main

import (
	"github.com/pterm/pterm"
	"github.com/tdewolff/argp"
)

func main() {
	initDisplay()

	cmd := argp.New("Inspect TrueType fonts (TTF/TTC/WOFF/WOFF2/EOT)")
	cmd.AddCmd(&Info{}, "info", "Show table directory, checksums and font header")
	cmd.AddCmd(&Glyph{}, "glyph", "Show the outline points of a glyph")
	cmd.AddCmd(&Cmap{}, "cmap", "List the character to glyph mapping")
	cmd.AddCmd(&Draw{}, "draw", "Draw a glyph to an SVG file")
	cmd.AddCmd(&Extract{}, "extract", "Write the unwrapped sfnt font")
	cmd.Parse()
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " INFO ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
