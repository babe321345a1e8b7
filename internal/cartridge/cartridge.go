// Package cartridge reads and writes SN-50 cartridge files.
//
// A cartridge file is a small header followed by a section table and the
// section payloads:
//
//	0   [4]byte  magic "SN50"
//	4   uint8    format version
//	5   uint8    flags (must be zero)
//	6   uint16   number of sections
//	8   entries  {uint8 type, [3]byte reserved, uint32 offset, uint32 length}
//	...          payloads
//
// All multi-byte values are little-endian. A cartridge is either loaded
// completely or not at all.
package cartridge

import (
	"fmt"

	"github.com/nevisdale/sn50/internal/profile"
)

const (
	// FormatVersion is the only cartridge format this player understands.
	FormatVersion = 1

	magic        = "SN50"
	headerSize   = 8
	entrySize    = 12
	maxSections  = 7
	soundLoopBit = 0x1
)

// SectionType tags a section in the section table.
type SectionType uint8

const (
	SectionProgram SectionType = iota + 1
	SectionGlyphs
	SectionSounds
	SectionMusic
	SectionMetadata
	SectionPalette
	SectionMap
)

var sectionTypes = []SectionType{
	SectionProgram,
	SectionGlyphs,
	SectionSounds,
	SectionMusic,
	SectionMetadata,
	SectionPalette,
	SectionMap,
}

func (t SectionType) String() string {
	switch t {
	case SectionProgram:
		return "program"
	case SectionGlyphs:
		return "glyphs"
	case SectionSounds:
		return "sounds"
	case SectionMusic:
		return "music"
	case SectionMetadata:
		return "metadata"
	case SectionPalette:
		return "palette"
	case SectionMap:
		return "map"
	}
	return fmt.Sprintf("section(%d)", uint8(t))
}

func (t SectionType) valid() bool {
	return t >= SectionProgram && t <= SectionMap
}

// Metadata describes the game stored in the cartridge.
type Metadata struct {
	Version     uint8
	Name        string
	Description string
	Author      string
}

// Sound is a signed 8-bit waveform. Loop sets the default playback policy
// of a channel the sound is started on.
type Sound struct {
	Loop bool
	Data []int8
}

// Note is one channel entry of a music row.
//
// Note 0 leaves the channel alone, NoteStop stops it and any other value n
// starts sound n-1.
type Note struct {
	Note   uint8
	Volume uint8
}

// NoteStop stops the channel.
const NoteStop = 0xff

// Music is a looping sequence of rows, one row every StepTicks ticks.
type Music struct {
	StepTicks uint8
	Rows      [][profile.NumChannels]Note
}

// Cartridge is a validated cartridge image.
type Cartridge struct {
	// Version is the format version the cartridge was loaded from.
	Version uint8

	Metadata Metadata
	Program  []byte
	Glyphs   []byte
	Palette  []byte
	Map      []byte
	Sounds   []Sound
	Music    *Music

	// raw section payloads as found in the file. nil for cartridges that were
	// built in memory.
	sections map[SectionType][]byte
}

// Section returns the encoded payload of a section. Loaded cartridges return
// the bytes exactly as they were in the file. A nil result means the
// section is absent.
func (c *Cartridge) Section(t SectionType) []byte {
	if c.sections != nil {
		return c.sections[t]
	}
	b, err := c.encodeSection(t)
	if err != nil {
		return nil
	}
	return b
}

// Title is the name used for windows and log lines.
func (c *Cartridge) Title() string {
	if c.Metadata.Name == "" {
		return "untitled"
	}
	if c.Metadata.Author == "" {
		return c.Metadata.Name
	}
	return fmt.Sprintf("%s by %s", c.Metadata.Name, c.Metadata.Author)
}
