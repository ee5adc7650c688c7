//go:build gofuzz
// +build gofuzz

package fuzz

import (
	"bytes"

	"github.com/tdewolff/ttf"
)

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	opts := ttf.DefaultOptions()
	opts.GlyphPolicy = ttf.AbortOnGlyphError
	if _, err := ttf.Load(bytes.NewReader(data), opts); err != nil {
		return 0
	}
	return 1
}
