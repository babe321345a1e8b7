package cartridge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nevisdale/sn50/internal/profile"
)

// Save writes the cartridge to w in the current format.
func (c *Cartridge) Save(w io.Writer) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("couldn't write the cartridge: %w", err)
	}
	return nil
}

// Encode returns the file image of c. Sections are written in type order
// and empty sections are left out. The image is validated with Load before
// it is returned, so Encode fails exactly where loading would.
func Encode(c *Cartridge) ([]byte, error) {
	type payload struct {
		t    SectionType
		data []byte
	}

	var payloads []payload
	for _, t := range sectionTypes {
		data, err := c.encodeSection(t)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		payloads = append(payloads, payload{t: t, data: data})
	}

	header := struct {
		Magic    [4]uint8
		Version  uint8
		Flags    uint8
		Sections uint16
	}{
		Version:  FormatVersion,
		Sections: uint16(len(payloads)),
	}
	copy(header.Magic[:], magic)

	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("couldn't write the header: %w", err)
	}

	offset := uint32(headerSize + len(payloads)*entrySize)
	for _, p := range payloads {
		entry := sectionEntry{
			Type:   uint8(p.t),
			Offset: offset,
			Length: uint32(len(p.data)),
		}
		if err := binary.Write(buf, binary.LittleEndian, entry); err != nil {
			return nil, fmt.Errorf("couldn't write the %s entry: %w", p.t, err)
		}
		offset += uint32(len(p.data))
	}
	for _, p := range payloads {
		buf.Write(p.data)
	}

	data := buf.Bytes()
	if _, err := Load(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Cartridge) encodeSection(t SectionType) ([]byte, error) {
	switch t {
	case SectionProgram:
		return c.Program, nil
	case SectionGlyphs:
		return c.Glyphs, nil
	case SectionPalette:
		return c.Palette, nil
	case SectionMap:
		return c.Map, nil
	case SectionSounds:
		return encodeSounds(c.Sounds)
	case SectionMusic:
		return encodeMusic(c.Music)
	case SectionMetadata:
		return encodeMetadata(c.Metadata)
	}
	return nil, formatErrorf(InvalidSection, t, "unknown section type")
}

func encodeSounds(sounds []Sound) ([]byte, error) {
	if len(sounds) == 0 {
		return nil, nil
	}
	if len(sounds) > profile.MaxSounds {
		return nil, formatErrorf(SizeLimitExceeded, SectionSounds, "%d sounds, at most %d", len(sounds), profile.MaxSounds)
	}

	buf := &bytes.Buffer{}
	buf.WriteByte(uint8(len(sounds)))
	for i, s := range sounds {
		if len(s.Data) > profile.MaxSoundBytes {
			return nil, formatErrorf(SizeLimitExceeded, SectionSounds, "sound %d is %d bytes, at most %d",
				i, len(s.Data), profile.MaxSoundBytes)
		}
		if len(s.Data) > 0xffff {
			return nil, formatErrorf(SizeLimitExceeded, SectionSounds, "sound %d does not fit a 16-bit length", i)
		}

		var flags uint8
		if s.Loop {
			flags |= soundLoopBit
		}
		buf.WriteByte(flags)
		binary.Write(buf, binary.LittleEndian, uint16(len(s.Data)))
		for _, v := range s.Data {
			buf.WriteByte(uint8(v))
		}
	}
	return buf.Bytes(), nil
}

func encodeMusic(m *Music) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	if len(m.Rows) > profile.MaxMusicRows {
		return nil, formatErrorf(SizeLimitExceeded, SectionMusic, "%d rows, at most %d", len(m.Rows), profile.MaxMusicRows)
	}

	buf := &bytes.Buffer{}
	buf.WriteByte(m.StepTicks)
	binary.Write(buf, binary.LittleEndian, uint16(len(m.Rows)))
	for _, row := range m.Rows {
		for _, n := range row {
			buf.WriteByte(n.Note)
			buf.WriteByte(n.Volume)
		}
	}
	return buf.Bytes(), nil
}

func encodeMetadata(meta Metadata) ([]byte, error) {
	if meta == (Metadata{}) {
		return nil, nil
	}

	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"name", meta.Name, profile.MaxNameSize},
		{"description", meta.Description, profile.MaxDescSize},
		{"author", meta.Author, profile.MaxAuthorSize},
	}
	for _, f := range fields {
		if len(f.value) > f.max {
			return nil, formatErrorf(SizeLimitExceeded, SectionMetadata, "%s is %d bytes, at most %d",
				f.name, len(f.value), f.max)
		}
	}

	buf := &bytes.Buffer{}
	buf.WriteByte(meta.Version)
	buf.WriteByte(uint8(len(meta.Name)))
	buf.WriteString(meta.Name)
	binary.Write(buf, binary.LittleEndian, uint16(len(meta.Description)))
	buf.WriteString(meta.Description)
	buf.WriteByte(uint8(len(meta.Author)))
	buf.WriteString(meta.Author)
	return buf.Bytes(), nil
}
