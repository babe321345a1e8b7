// Package profile holds the fixed limits of the SN-50 console. Everything
// that loads, executes or renders a cartridge agrees on these numbers.
package profile

import "time"

const (
	// TicksPerSecond is the fixed rate of the execution loop.
	TicksPerSecond = 60
	// TickDuration is the real time one tick stands for.
	TickDuration = time.Second / TicksPerSecond
	// CyclesPerTick is the cycle budget granted to the engine each tick.
	CyclesPerTick = 8192
)

// Program memory and register file.
const (
	MemorySize     = 0x8000 // 32 KiB, $0000-$7FFF
	NumRegisters   = 16
	DataStackDepth = 256
	CallStackDepth = 64
)

// Display.
const (
	ScreenWidth  = 640
	ScreenHeight = 360
	CellWidth    = 8
	CellHeight   = 8
	Columns      = ScreenWidth / CellWidth   // 80
	Rows         = ScreenHeight / CellHeight // 45
	NumCells     = Columns * Rows

	NumColors  = 16
	NumGlyphs  = 256
	GlyphBytes = CellHeight // one byte per glyph row, MSB is the leftmost pixel
)

// Sound.
const (
	NumChannels    = 4
	MaxSounds      = 64
	MaxSoundBytes  = 0x10000
	MaxMusicRows   = 256
	SampleRate     = 44100
	SamplesPerTick = SampleRate / TicksPerSecond // 735
	MaxVolume      = 0xff
)

// Input.
const (
	NumButtons = 16
	NumAxes    = 2
)

// Cartridge limits.
const (
	MaxCartridgeSize  = 256 * 1024
	MaxProgramSize    = MemorySize
	MaxGlyphBytes     = NumGlyphs * GlyphBytes
	MapBytes          = NumCells * 3
	MaxNameSize       = 64
	MaxDescSize       = 512
	MaxAuthorSize     = 64
	MaxPaletteColors  = NumColors
	paletteColorBytes = 3
	MaxPaletteBytes   = MaxPaletteColors * paletteColorBytes
)

// DefaultPalette is used for every palette entry a cartridge does not declare.
var DefaultPalette = [NumColors]uint32{
	0x000000, 0x1d2b53, 0x7e2553, 0x008751,
	0xab5236, 0x5f574f, 0xc2c3c7, 0xfff1e8,
	0xff004d, 0xffa300, 0xffec27, 0x00e436,
	0x29adff, 0x83769c, 0xff77a8, 0xffccaa,
}
