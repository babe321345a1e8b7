// Package bank holds the runtime state of one loaded cartridge: program
// memory, the video cell buffers, the input latch, the audio registers and
// the read-only assets.
//
// Every accessor checks its bounds and returns a *RangeError instead of
// clamping. The bank is not safe for concurrent use; one tick owns it at a
// time.
package bank

import (
	"bytes"
	"encoding/binary"

	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/profile"
)

type Bank struct {
	Memory  Memory
	Video   Video
	Input   Input
	Audio   Audio
	Palette Palette
	Glyphs  Glyphs

	cart *cartridge.Cartridge
}

// New builds the power-on state of cart.
func New(cart *cartridge.Cartridge) *Bank {
	b := &Bank{
		cart:    cart,
		Palette: newPalette(cart.Palette),
		Glyphs:  newGlyphs(cart.Glyphs),
	}
	b.Audio.sounds = cart.Sounds
	b.Audio.song = cart.Music
	b.Reset()
	return b
}

// Reset restores every mutable region to its power-on state.
func (b *Bank) Reset() {
	b.Memory.load(b.cart.Program)
	b.Video.load(b.cart.Map)
	b.Input.Latch(InputState{})
	b.Audio.reset()
}

func (b *Bank) Cartridge() *cartridge.Cartridge {
	return b.cart
}

func (b *Bank) Sounds() []cartridge.Sound {
	return b.cart.Sounds
}

func (b *Bank) Music() *cartridge.Music {
	return b.cart.Music
}

type channelRecord struct {
	Sound    uint8
	Volume   uint8
	Step     uint16
	Loop     uint8
	Playing  uint8
	_        uint16
	Position uint32
}

type musicRecord struct {
	Playing uint8
	_       uint8
	Row     uint16
	Tick    uint16
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// Snapshot serialises every mutable region in a fixed layout. Two banks with
// the same state give the same bytes.
func (b *Bank) Snapshot() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, profile.MemorySize+2*profile.MapBytes+64))
	buf.Write(b.Memory.data[:])
	for _, cells := range []*[profile.NumCells]Cell{&b.Video.back, &b.Video.front} {
		for _, c := range cells {
			buf.Write([]byte{c.Color, c.Ink, c.Glyph})
		}
	}

	in := b.Input.State()
	binary.Write(buf, binary.LittleEndian, in.Buttons)
	for _, v := range in.Axes {
		buf.WriteByte(uint8(v))
	}

	for _, c := range b.Audio.channels {
		binary.Write(buf, binary.LittleEndian, channelRecord{
			Sound:    c.Sound,
			Volume:   c.Volume,
			Step:     c.Step,
			Loop:     boolByte(c.Loop),
			Playing:  boolByte(c.Playing),
			Position: c.Position,
		})
	}
	m := b.Audio.music
	binary.Write(buf, binary.LittleEndian, musicRecord{
		Playing: boolByte(m.Playing),
		Row:     uint16(m.Row),
		Tick:    uint16(m.Tick),
	})
	return buf.Bytes()
}
