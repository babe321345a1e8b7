package bank

import (
	"image/color"

	"github.com/nevisdale/sn50/internal/profile"
)

// Palette maps color indexes to RGBA. Index 0 is the background.
type Palette struct {
	colors [profile.NumColors]color.RGBA
}

func rgb(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// newPalette starts from the default palette and overrides the leading
// entries with the colors declared by the cartridge.
func newPalette(declared []byte) Palette {
	var p Palette
	for i, v := range profile.DefaultPalette {
		p.colors[i] = rgb(v)
	}
	for i := 0; i+2 < len(declared) && i/3 < profile.NumColors; i += 3 {
		p.colors[i/3] = color.RGBA{R: declared[i], G: declared[i+1], B: declared[i+2], A: 0xff}
	}
	return p
}

func (p *Palette) Color(i int) (color.RGBA, error) {
	if err := checkRange(RegionColor, i, profile.NumColors); err != nil {
		return color.RGBA{}, err
	}
	return p.colors[i], nil
}

// Colors returns the whole palette.
func (p *Palette) Colors() [profile.NumColors]color.RGBA {
	return p.colors
}

// Glyphs is the glyph table. Glyphs the cartridge does not define are blank.
type Glyphs struct {
	table [profile.NumGlyphs][profile.GlyphBytes]uint8
}

func newGlyphs(data []byte) Glyphs {
	var g Glyphs
	for i := 0; i < len(data) && i < profile.MaxGlyphBytes; i++ {
		g.table[i/profile.GlyphBytes][i%profile.GlyphBytes] = data[i]
	}
	return g
}

// Row returns one pixel row of a glyph, most significant bit on the left.
func (g *Glyphs) Row(glyph uint8, y int) uint8 {
	return g.table[glyph][y&(profile.GlyphBytes-1)]
}

func (g *Glyphs) Glyph(i int) ([profile.GlyphBytes]uint8, error) {
	if err := checkRange(RegionGlyph, i, profile.NumGlyphs); err != nil {
		return [profile.GlyphBytes]uint8{}, err
	}
	return g.table[i], nil
}
