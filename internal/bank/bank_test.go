package bank

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/profile"
)

func testCartridge() *cartridge.Cartridge {
	cells := make([]byte, profile.MapBytes)
	cells[0], cells[1], cells[2] = 3, 4, 5
	return &cartridge.Cartridge{
		Program: []byte{0x01, 0x02, 0x03},
		Glyphs:  []byte{0xff, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0xff},
		Palette: []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80, 0x90, 0xa0, 0xb0, 0xc0},
		Map:     cells,
		Sounds: []cartridge.Sound{
			{Data: []int8{1, 2, 3}},
			{Loop: true, Data: []int8{4}},
		},
		Music: &cartridge.Music{StepTicks: 1, Rows: make([][profile.NumChannels]cartridge.Note, 2)},
	}
}

func assertRange(t *testing.T, err error, region Region) {
	t.Helper()
	var re *RangeError
	if assert.ErrorAs(t, err, &re) {
		assert.Equal(t, region, re.Region)
	}
}

func TestMemory(t *testing.T) {
	b := New(testCartridge())

	v, err := b.Memory.Read8(0x0001)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x02), v)

	w, err := b.Memory.Read16(0x0000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), w)

	require.NoError(t, b.Memory.Write16(0x7ffe, 0xbeef))
	lo, _ := b.Memory.Read8(0x7ffe)
	hi, _ := b.Memory.Read8(0x7fff)
	assert.Equal(t, uint8(0xef), lo)
	assert.Equal(t, uint8(0xbe), hi)

	t.Run("out of range", func(t *testing.T) {
		_, err := b.Memory.Read8(profile.MemorySize)
		assertRange(t, err, RegionMemory)

		assertRange(t, b.Memory.Write8(0xffff, 1), RegionMemory)

		_, err = b.Memory.Read16(0x7fff)
		assertRange(t, err, RegionMemory)

		assertRange(t, b.Memory.Write16(0x7fff, 1), RegionMemory)
		last, _ := b.Memory.Read8(0x7fff)
		assert.Equal(t, uint8(0xbe), last, "failed write must not touch memory")
	})
}

func TestVideo(t *testing.T) {
	b := New(testCartridge())

	cell, err := b.Video.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Cell{Color: 3, Ink: 4, Glyph: 5}, cell, "map is loaded into the front buffer")

	require.NoError(t, b.Video.SetColor(79, 44, 7))
	require.NoError(t, b.Video.SetInk(79, 44, 8))
	require.NoError(t, b.Video.SetGlyph(79, 44, 255))

	c, err := b.Video.Color(79, 44)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), c, "back buffer reads see the write")

	cell, _ = b.Video.Cell(79, 44)
	assert.Equal(t, Cell{}, cell, "front buffer is unchanged before commit")

	b.Video.Commit()
	cell, _ = b.Video.Cell(79, 44)
	assert.Equal(t, Cell{Color: 7, Ink: 8, Glyph: 255}, cell)
	assert.Equal(t, cell, b.Video.Front()[profile.NumCells-1])

	require.NoError(t, b.Video.Clear(2))
	b.Video.Commit()
	for _, c := range b.Video.Front() {
		assert.Equal(t, Cell{Color: 2, Ink: 2}, c)
	}

	t.Run("out of range", func(t *testing.T) {
		assertRange(t, b.Video.SetColor(80, 0, 1), RegionVideo)
		assertRange(t, b.Video.SetColor(0, 45, 1), RegionVideo)
		assertRange(t, b.Video.SetColor(-1, 0, 1), RegionVideo)
		assertRange(t, b.Video.SetColor(0, 0, 16), RegionColor)
		assertRange(t, b.Video.SetInk(0, 0, 0x100), RegionColor)
		assertRange(t, b.Video.SetGlyph(0, 0, 256), RegionGlyph)
		assertRange(t, b.Video.Clear(16), RegionColor)

		_, err := b.Video.Cell(80, 45)
		assertRange(t, err, RegionVideo)
	})
}

func TestInput(t *testing.T) {
	var in Input
	s := InputState{Axes: [profile.NumAxes]int8{-128, 127}}.Press(ButtonA).Press(ButtonStart)
	in.Latch(s)

	assert.Equal(t, uint16(1<<4|1<<8), in.Buttons())
	assert.True(t, in.State().Pressed(ButtonA))
	assert.False(t, in.State().Pressed(ButtonB))

	v, err := in.Axis(AxisHorizontal)
	require.NoError(t, err)
	assert.Equal(t, int8(-128), v)

	_, err = in.Axis(2)
	assertRange(t, err, RegionAxis)
}

func TestAudio(t *testing.T) {
	b := New(testCartridge())

	ch, err := b.Audio.Channel(0)
	require.NoError(t, err)
	assert.Equal(t, Channel{Volume: profile.MaxVolume, Step: StepUnit}, ch)

	require.NoError(t, b.Audio.Play(1, 1))
	ch, _ = b.Audio.Channel(1)
	assert.True(t, ch.Playing)
	assert.True(t, ch.Loop, "loop comes from the sound")
	assert.Equal(t, uint8(1), ch.Sound)

	require.NoError(t, b.Audio.SetLoop(1, false))
	require.NoError(t, b.Audio.SetVolume(1, 255))
	require.NoError(t, b.Audio.SetStep(1, 0x0080))
	require.NoError(t, b.Audio.Seek(1, 0x0200))
	ch, _ = b.Audio.Channel(1)
	assert.Equal(t, Channel{Sound: 1, Volume: 255, Step: 0x80, Playing: true, Position: 0x200}, ch)

	require.NoError(t, b.Audio.Stop(1))
	ch, _ = b.Audio.Channel(1)
	assert.False(t, ch.Playing)

	require.NoError(t, b.Audio.PlayMusic())
	assert.Equal(t, MusicState{Playing: true}, b.Audio.Music())
	b.Audio.StopMusic()
	assert.False(t, b.Audio.Music().Playing)

	t.Run("out of range", func(t *testing.T) {
		assertRange(t, b.Audio.Play(4, 0), RegionChannel)
		assertRange(t, b.Audio.Play(0, 2), RegionSound)
		assertRange(t, b.Audio.SetVolume(0, 256), RegionVolume)
		assertRange(t, b.Audio.Stop(-1), RegionChannel)

		silent := New(&cartridge.Cartridge{Program: []byte{0}})
		assertRange(t, silent.Audio.PlayMusic(), RegionMusic)
		assertRange(t, silent.Audio.Play(0, 0), RegionSound)
	})
}

func TestPaletteAndGlyphs(t *testing.T) {
	b := New(testCartridge())

	c, err := b.Palette.Color(0)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, c)

	c, _ = b.Palette.Color(7)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xf1, B: 0xe8, A: 0xff}, c, "undeclared entries use the default palette")

	_, err = b.Palette.Color(16)
	assertRange(t, err, RegionColor)

	assert.Equal(t, uint8(0x81), b.Glyphs.Row(0, 3))
	g, err := b.Glyphs.Glyph(1)
	require.NoError(t, err)
	assert.Equal(t, [profile.GlyphBytes]uint8{}, g)
}

func TestReset(t *testing.T) {
	b := New(testCartridge())
	initial := b.Snapshot()

	require.NoError(t, b.Memory.Write8(0x10, 0xaa))
	require.NoError(t, b.Video.SetColor(1, 1, 9))
	b.Video.Commit()
	b.Input.Latch(InputState{Buttons: 0xffff})
	require.NoError(t, b.Audio.Play(0, 0))
	require.NoError(t, b.Audio.PlayMusic())
	assert.NotEqual(t, initial, b.Snapshot())

	b.Reset()
	assert.Equal(t, initial, b.Snapshot())
}

func TestSnapshot_Deterministic(t *testing.T) {
	run := func() []byte {
		b := New(testCartridge())
		b.Memory.Write16(0x100, 0x1234)
		b.Video.SetGlyph(5, 5, 1)
		b.Audio.Play(2, 1)
		b.Audio.Seek(2, 99)
		return b.Snapshot()
	}
	first := run()
	assert.Equal(t, first, run())
	assert.Len(t, first, profile.MemorySize+2*profile.MapBytes+2+profile.NumAxes+profile.NumChannels*12+6)
}
