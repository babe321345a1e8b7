// Package video turns the committed video cells of a bank into pixels.
package video

import (
	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/profile"
)

// Composite renders the front buffer of b into a new frame.
func Composite(b *bank.Bank) *FrameBuffer {
	fb := NewFrameBuffer()
	CompositeInto(b, fb)
	return fb
}

// CompositeInto renders the front buffer of b into fb. It only reads the
// bank, so rendering the same state twice gives the same pixels.
func CompositeInto(b *bank.Bank, fb *FrameBuffer) {
	colors := b.Palette.Colors()
	cells := b.Video.Front()
	pix := fb.img.Pix
	stride := fb.img.Stride

	for i, cell := range cells {
		cx := (i % profile.Columns) * profile.CellWidth
		cy := (i / profile.Columns) * profile.CellHeight
		fill := colors[cell.Color%profile.NumColors]
		ink := colors[cell.Ink%profile.NumColors]

		for y := 0; y < profile.CellHeight; y++ {
			row := b.Glyphs.Row(cell.Glyph, y)
			offset := (cy+y)*stride + cx*4
			for x := 0; x < profile.CellWidth; x++ {
				c := fill
				if row&(0x80>>x) != 0 {
					c = ink
				}
				p := pix[offset+x*4 : offset+x*4+4 : offset+x*4+4]
				p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
			}
		}
	}
}
