package ui

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const lineHeight = 15

// textBox renders lines in white with the 7x13 basic font over a filled box.
func textBox(lines []string, width int, bg color.Color) *image.RGBA {
	face := basicfont.Face7x13
	img := image.NewRGBA(image.Rect(0, 0, width, len(lines)*lineHeight+8))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}
	for i, line := range lines {
		d.Dot = fixed.P(8, 4+face.Ascent+i*lineHeight)
		d.DrawString(line)
	}
	return img
}
