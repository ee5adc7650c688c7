//go:build gofuzz
// +build gofuzz

package fuzz

import "github.com/tdewolff/ttf"

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	b, err := ttf.ParseEOT(data)
	if err != nil {
		return 0
	} else if _, err := ttf.Parse(b, ttf.DefaultOptions()); err != nil {
		return 0
	}
	return 1
}
