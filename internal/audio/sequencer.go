// Package audio mixes the channels of a bank into PCM samples and hands
// them to output sinks.
package audio

import (
	"math"

	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/profile"
)

// Sequencer advances the music cursor and channel positions of a bank. It
// keeps no state of its own between calls.
type Sequencer struct {
	mix [profile.SamplesPerTick]int32
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Advance runs elapsedTicks ticks of audio and returns their samples, mono
// 16-bit at profile.SampleRate.
func (s *Sequencer) Advance(b *bank.Bank, elapsedTicks int) []int16 {
	if elapsedTicks <= 0 {
		return nil
	}
	out := make([]int16, 0, elapsedTicks*profile.SamplesPerTick)
	for i := 0; i < elapsedTicks; i++ {
		s.stepMusic(b)
		out = s.mixTick(b, out)
	}
	return out
}

// stepMusic applies the current row on the first tick of a step and moves
// the cursor, wrapping at the end of the song.
func (s *Sequencer) stepMusic(b *bank.Bank) {
	song := b.Music()
	m := b.Audio.Music()
	if !m.Playing || song == nil || len(song.Rows) == 0 {
		return
	}

	if m.Tick == 0 {
		for ch, note := range song.Rows[m.Row%len(song.Rows)] {
			switch note.Note {
			case 0:
			case cartridge.NoteStop:
				_ = b.Audio.Stop(ch)
			default:
				// loader guarantees the sound exists
				_ = b.Audio.Play(ch, int(note.Note)-1)
				_ = b.Audio.SetVolume(ch, int(note.Volume))
			}
		}
	}

	m.Tick++
	if m.Tick >= int(song.StepTicks) {
		m.Tick = 0
		m.Row = (m.Row + 1) % len(song.Rows)
	}
	b.Audio.SeekMusic(m)
}

func (s *Sequencer) mixTick(b *bank.Bank, out []int16) []int16 {
	s.mix = [profile.SamplesPerTick]int32{}
	sounds := b.Sounds()

	for ch := 0; ch < profile.NumChannels; ch++ {
		c, _ := b.Audio.Channel(ch)
		if !c.Playing || int(c.Sound) >= len(sounds) {
			continue
		}
		data := sounds[c.Sound].Data
		end := uint32(len(data)) << 8
		playing := true

		for i := range s.mix {
			if c.Position >= end {
				if !c.Loop || end == 0 {
					playing = false
					break
				}
				c.Position %= end
			}
			s.mix[i] += int32(data[c.Position>>8]) * int32(c.Volume)
			c.Position += uint32(c.Step)
			if c.Loop && c.Position >= end {
				c.Position %= end
			}
		}
		if !c.Loop && c.Position >= end {
			playing = false
		}

		if playing {
			_ = b.Audio.Seek(ch, c.Position)
		} else {
			_ = b.Audio.Stop(ch)
		}
	}

	for _, v := range s.mix {
		out = append(out, clamp(v))
	}
	return out
}

func clamp(v int32) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
