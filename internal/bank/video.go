package bank

import "github.com/nevisdale/sn50/internal/profile"

// Cell is one 8x8 character cell. Pixels whose glyph bit is set are drawn
// with Ink, the others with Color.
type Cell struct {
	Color uint8
	Ink   uint8
	Glyph uint8
}

// Video holds the cell grid twice. The engine writes the back buffer, the
// compositor reads the front buffer, and Commit copies one to the other.
type Video struct {
	back  [profile.NumCells]Cell
	front [profile.NumCells]Cell
}

func (v *Video) index(x, y int) (int, error) {
	if err := checkRange(RegionVideo, x, profile.Columns); err != nil {
		return 0, err
	}
	if err := checkRange(RegionVideo, y, profile.Rows); err != nil {
		return 0, err
	}
	return y*profile.Columns + x, nil
}

func (v *Video) SetColor(x, y, color int) error {
	i, err := v.index(x, y)
	if err != nil {
		return err
	}
	if err := checkRange(RegionColor, color, profile.NumColors); err != nil {
		return err
	}
	v.back[i].Color = uint8(color)
	return nil
}

func (v *Video) SetInk(x, y, color int) error {
	i, err := v.index(x, y)
	if err != nil {
		return err
	}
	if err := checkRange(RegionColor, color, profile.NumColors); err != nil {
		return err
	}
	v.back[i].Ink = uint8(color)
	return nil
}

func (v *Video) SetGlyph(x, y, glyph int) error {
	i, err := v.index(x, y)
	if err != nil {
		return err
	}
	if err := checkRange(RegionGlyph, glyph, profile.NumGlyphs); err != nil {
		return err
	}
	v.back[i].Glyph = uint8(glyph)
	return nil
}

// Color returns the fill color of a back buffer cell, so a program reads
// back what it wrote during the same tick.
func (v *Video) Color(x, y int) (uint8, error) {
	i, err := v.index(x, y)
	if err != nil {
		return 0, err
	}
	return v.back[i].Color, nil
}

// Clear fills the whole back buffer with color and removes every glyph.
func (v *Video) Clear(color int) error {
	if err := checkRange(RegionColor, color, profile.NumColors); err != nil {
		return err
	}
	for i := range v.back {
		v.back[i] = Cell{Color: uint8(color), Ink: uint8(color)}
	}
	return nil
}

// Commit publishes the back buffer.
func (v *Video) Commit() {
	v.front = v.back
}

// Cell returns a cell of the front buffer.
func (v *Video) Cell(x, y int) (Cell, error) {
	i, err := v.index(x, y)
	if err != nil {
		return Cell{}, err
	}
	return v.front[i], nil
}

// Front returns the front buffer in row-major order. The slice aliases the
// bank and must not be modified.
func (v *Video) Front() []Cell {
	return v.front[:]
}

func (v *Video) load(cells []byte) {
	v.back = [profile.NumCells]Cell{}
	for i := 0; i+2 < len(cells) && i/3 < profile.NumCells; i += 3 {
		v.back[i/3] = Cell{Color: cells[i], Ink: cells[i+1], Glyph: cells[i+2]}
	}
	v.front = v.back
}
