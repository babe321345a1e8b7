package cartridge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/nevisdale/sn50/internal/profile"
)

type sectionEntry struct {
	Type   uint8
	_      [3]uint8 // reserved
	Offset uint32
	Length uint32
}

// LoadFile reads a cartridge file from disk.
func LoadFile(path string) (*Cartridge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the file: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read loads a cartridge from r. At most one byte more than the cartridge
// size limit is read.
func Read(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(io.LimitReader(r, profile.MaxCartridgeSize+1))
	if err != nil {
		return nil, fmt.Errorf("couldn't read the cartridge: %w", err)
	}
	return Load(data)
}

// Load validates data and returns the cartridge image it describes. The
// returned cartridge does not share memory with data. Every failure is a
// *FormatError.
func Load(data []byte) (*Cartridge, error) {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, formatErrorf(BadMagic, 0, "not an SN-50 cartridge")
	}
	if len(data) > profile.MaxCartridgeSize {
		return nil, formatErrorf(SizeLimitExceeded, 0, "file is larger than %d bytes", profile.MaxCartridgeSize)
	}
	if len(data) < headerSize {
		return nil, formatErrorf(TruncatedSection, 0, "header needs %d bytes, file has %d", headerSize, len(data))
	}

	var header struct {
		Magic    [4]uint8
		Version  uint8
		Flags    uint8
		Sections uint16
	}
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, formatErrorf(TruncatedSection, 0, "couldn't read the header: %s", err)
	}

	if header.Version != FormatVersion {
		return nil, formatErrorf(UnsupportedVersion, 0, "version %d, expected %d", header.Version, FormatVersion)
	}
	if header.Flags != 0 {
		return nil, formatErrorf(UnsupportedVersion, 0, "unknown header flags %02X", header.Flags)
	}

	tableEnd := uint64(headerSize) + uint64(header.Sections)*entrySize
	if tableEnd > uint64(len(data)) {
		return nil, formatErrorf(TruncatedSection, 0, "section table of %d entries ends at %d, file has %d bytes",
			header.Sections, tableEnd, len(data))
	}
	if header.Sections > maxSections {
		return nil, formatErrorf(InvalidSection, 0, "%d sections, at most %d", header.Sections, maxSections)
	}

	sections := make(map[SectionType][]byte, header.Sections)
	for i := 0; i < int(header.Sections); i++ {
		var entry sectionEntry
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return nil, formatErrorf(TruncatedSection, 0, "couldn't read section entry %d: %s", i, err)
		}

		t := SectionType(entry.Type)
		if !t.valid() {
			return nil, formatErrorf(InvalidSection, t, "unknown section type in entry %d", i)
		}
		if _, ok := sections[t]; ok {
			return nil, formatErrorf(InvalidSection, t, "duplicate section in entry %d", i)
		}

		start := uint64(entry.Offset)
		end := start + uint64(entry.Length)
		if entry.Length > 0 && start < tableEnd {
			return nil, formatErrorf(InvalidSection, t, "offset %d overlaps the section table", entry.Offset)
		}
		if end > uint64(len(data)) {
			return nil, formatErrorf(TruncatedSection, t, "offset %d length %d exceeds file size %d",
				entry.Offset, entry.Length, len(data))
		}

		payload := make([]byte, entry.Length)
		copy(payload, data[start:end])
		sections[t] = payload
	}

	return fromSections(header.Version, sections)
}

func fromSections(version uint8, sections map[SectionType][]byte) (*Cartridge, error) {
	cart := &Cartridge{
		Version:  version,
		sections: sections,
	}

	var err error
	if cart.Program, err = decodeProgram(sections[SectionProgram]); err != nil {
		return nil, err
	}
	if cart.Glyphs, err = decodeGlyphs(sections[SectionGlyphs]); err != nil {
		return nil, err
	}
	if cart.Palette, err = decodePalette(sections[SectionPalette]); err != nil {
		return nil, err
	}
	if cart.Map, err = decodeMap(sections[SectionMap]); err != nil {
		return nil, err
	}
	if cart.Sounds, err = decodeSounds(sections[SectionSounds]); err != nil {
		return nil, err
	}
	if cart.Music, err = decodeMusic(sections[SectionMusic], len(cart.Sounds)); err != nil {
		return nil, err
	}
	if cart.Metadata, err = decodeMetadata(sections[SectionMetadata]); err != nil {
		return nil, err
	}

	return cart, nil
}

func decodeProgram(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, formatErrorf(InvalidSection, SectionProgram, "missing or empty")
	}
	if len(b) > profile.MaxProgramSize {
		return nil, formatErrorf(SizeLimitExceeded, SectionProgram, "%d bytes, at most %d", len(b), profile.MaxProgramSize)
	}
	return b, nil
}

func decodeGlyphs(b []byte) ([]byte, error) {
	if len(b) > profile.MaxGlyphBytes {
		return nil, formatErrorf(SizeLimitExceeded, SectionGlyphs, "%d bytes, at most %d", len(b), profile.MaxGlyphBytes)
	}
	if len(b)%profile.GlyphBytes != 0 {
		return nil, formatErrorf(InvalidSection, SectionGlyphs, "%d bytes is not a whole number of %d byte glyphs",
			len(b), profile.GlyphBytes)
	}
	return nilIfEmpty(b), nil
}

// palette sizes follow the 4, 8 or 16 color palettes of the original format
func decodePalette(b []byte) ([]byte, error) {
	switch len(b) {
	case 0, 4 * 3, 8 * 3, 16 * 3:
		return nilIfEmpty(b), nil
	}
	if len(b) > profile.MaxPaletteBytes {
		return nil, formatErrorf(SizeLimitExceeded, SectionPalette, "%d bytes, at most %d", len(b), profile.MaxPaletteBytes)
	}
	return nil, formatErrorf(InvalidSection, SectionPalette, "%d bytes, expected 12, 24 or 48", len(b))
}

func decodeMap(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) > profile.MapBytes {
		return nil, formatErrorf(SizeLimitExceeded, SectionMap, "%d bytes, at most %d", len(b), profile.MapBytes)
	}
	if len(b) != profile.MapBytes {
		return nil, formatErrorf(InvalidSection, SectionMap, "%d bytes, expected %d", len(b), profile.MapBytes)
	}
	for i := 0; i < len(b); i += 3 {
		if b[i] >= profile.NumColors || b[i+1] >= profile.NumColors {
			return nil, formatErrorf(InvalidSection, SectionMap, "cell %d uses a color outside the palette", i/3)
		}
	}
	return b, nil
}

func decodeSounds(b []byte) ([]Sound, error) {
	if len(b) == 0 {
		return nil, nil
	}

	sr := sectionReader{data: b, section: SectionSounds}
	count, err := sr.u8()
	if err != nil {
		return nil, err
	}
	if count > profile.MaxSounds {
		return nil, formatErrorf(SizeLimitExceeded, SectionSounds, "%d sounds, at most %d", count, profile.MaxSounds)
	}

	sounds := make([]Sound, 0, count)
	total := 0
	for i := 0; i < int(count); i++ {
		flags, err := sr.u8()
		if err != nil {
			return nil, err
		}
		length, err := sr.u16()
		if err != nil {
			return nil, err
		}
		if length == 0 {
			return nil, formatErrorf(InvalidSection, SectionSounds, "sound %d is empty", i)
		}
		total += int(length)
		if total > profile.MaxSoundBytes {
			return nil, formatErrorf(SizeLimitExceeded, SectionSounds, "sample data exceeds %d bytes", profile.MaxSoundBytes)
		}
		raw, err := sr.bytes(int(length))
		if err != nil {
			return nil, err
		}

		data := make([]int8, length)
		for j, v := range raw {
			data[j] = int8(v)
		}
		sounds = append(sounds, Sound{Loop: flags&soundLoopBit != 0, Data: data})
	}

	if err := sr.end(); err != nil {
		return nil, err
	}
	return sounds, nil
}

func decodeMusic(b []byte, numSounds int) (*Music, error) {
	if len(b) == 0 {
		return nil, nil
	}

	sr := sectionReader{data: b, section: SectionMusic}
	step, err := sr.u8()
	if err != nil {
		return nil, err
	}
	rows, err := sr.u16()
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, formatErrorf(InvalidSection, SectionMusic, "step of zero ticks")
	}
	if rows == 0 {
		return nil, formatErrorf(InvalidSection, SectionMusic, "no rows")
	}
	if rows > profile.MaxMusicRows {
		return nil, formatErrorf(SizeLimitExceeded, SectionMusic, "%d rows, at most %d", rows, profile.MaxMusicRows)
	}

	music := &Music{
		StepTicks: step,
		Rows:      make([][profile.NumChannels]Note, rows),
	}
	for row := range music.Rows {
		for ch := 0; ch < profile.NumChannels; ch++ {
			raw, err := sr.bytes(2)
			if err != nil {
				return nil, err
			}
			note := Note{Note: raw[0], Volume: raw[1]}
			if note.Note != 0 && note.Note != NoteStop && int(note.Note) > numSounds {
				return nil, formatErrorf(InvalidSection, SectionMusic, "row %d channel %d starts missing sound %d",
					row, ch, note.Note-1)
			}
			music.Rows[row][ch] = note
		}
	}

	if err := sr.end(); err != nil {
		return nil, err
	}
	return music, nil
}

func decodeMetadata(b []byte) (Metadata, error) {
	var meta Metadata
	if len(b) == 0 {
		return meta, nil
	}

	sr := sectionReader{data: b, section: SectionMetadata}
	var err error
	if meta.Version, err = sr.u8(); err != nil {
		return meta, err
	}

	nameSize, err := sr.u8()
	if err != nil {
		return meta, err
	}
	if meta.Name, err = sr.text("name", int(nameSize), profile.MaxNameSize); err != nil {
		return meta, err
	}

	descSize, err := sr.u16()
	if err != nil {
		return meta, err
	}
	if meta.Description, err = sr.text("description", int(descSize), profile.MaxDescSize); err != nil {
		return meta, err
	}

	authorSize, err := sr.u8()
	if err != nil {
		return meta, err
	}
	if meta.Author, err = sr.text("author", int(authorSize), profile.MaxAuthorSize); err != nil {
		return meta, err
	}

	return meta, sr.end()
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

// sectionReader walks the inside of one section. Running past the end of
// the payload is a TruncatedSection error for that section.
type sectionReader struct {
	data    []byte
	pos     int
	section SectionType
}

func (sr *sectionReader) bytes(n int) ([]byte, error) {
	if sr.pos+n > len(sr.data) {
		return nil, formatErrorf(TruncatedSection, sr.section, "needs %d bytes at %d, has %d", n, sr.pos, len(sr.data))
	}
	b := sr.data[sr.pos : sr.pos+n]
	sr.pos += n
	return b, nil
}

func (sr *sectionReader) u8() (uint8, error) {
	b, err := sr.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (sr *sectionReader) u16() (uint16, error) {
	b, err := sr.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (sr *sectionReader) text(field string, n, max int) (string, error) {
	if n > max {
		return "", formatErrorf(SizeLimitExceeded, sr.section, "%s is %d bytes, at most %d", field, n, max)
	}
	b, err := sr.bytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", formatErrorf(InvalidSection, sr.section, "%s is not valid UTF-8", field)
	}
	return string(b), nil
}

func (sr *sectionReader) end() error {
	if sr.pos != len(sr.data) {
		return formatErrorf(InvalidSection, sr.section, "%d trailing bytes", len(sr.data)-sr.pos)
	}
	return nil
}
