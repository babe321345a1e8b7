package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/profile"
)

func newBank(sounds []cartridge.Sound, music *cartridge.Music) *bank.Bank {
	return bank.New(&cartridge.Cartridge{Program: []byte{0x00}, Sounds: sounds, Music: music})
}

func TestAdvance_Silence(t *testing.T) {
	b := newBank(nil, nil)
	s := NewSequencer()

	assert.Nil(t, s.Advance(b, 0))

	samples := s.Advance(b, 3)
	require.Len(t, samples, 3*profile.SamplesPerTick)
	for _, v := range samples {
		require.Zero(t, v)
	}
}

func TestAdvance_OneShot(t *testing.T) {
	b := newBank([]cartridge.Sound{{Data: []int8{1, 2, 3}}}, nil)
	require.NoError(t, b.Audio.Play(0, 0))
	require.NoError(t, b.Audio.SetVolume(0, 10))

	samples := NewSequencer().Advance(b, 1)
	assert.Equal(t, []int16{10, 20, 30, 0, 0}, samples[:5])

	ch, _ := b.Audio.Channel(0)
	assert.False(t, ch.Playing, "one-shot channel stops at the end of the waveform")
}

func TestAdvance_Loop(t *testing.T) {
	b := newBank([]cartridge.Sound{{Loop: true, Data: []int8{1, -1}}}, nil)
	require.NoError(t, b.Audio.Play(2, 0))
	require.NoError(t, b.Audio.SetVolume(2, 1))

	s := NewSequencer()
	samples := s.Advance(b, 2)
	for i, v := range samples {
		want := int16(1)
		if i%2 == 1 {
			want = -1
		}
		require.Equal(t, want, v, "sample %d", i)
	}

	ch, _ := b.Audio.Channel(2)
	assert.True(t, ch.Playing)
	assert.Equal(t, uint32(0), ch.Position, "1470 samples of a 2 sample loop end on the first sample")
}

func TestAdvance_Step(t *testing.T) {
	b := newBank([]cartridge.Sound{{Data: []int8{4, 8}}}, nil)
	require.NoError(t, b.Audio.Play(0, 0))
	require.NoError(t, b.Audio.SetVolume(0, 1))
	require.NoError(t, b.Audio.SetStep(0, bank.StepUnit/2))

	samples := NewSequencer().Advance(b, 1)
	assert.Equal(t, []int16{4, 4, 8, 8, 0}, samples[:5])
}

func TestAdvance_Clamp(t *testing.T) {
	loud := cartridge.Sound{Loop: true, Data: []int8{127}}
	quiet := cartridge.Sound{Loop: true, Data: []int8{-128}}
	b := newBank([]cartridge.Sound{loud, quiet}, nil)
	for ch := 0; ch < profile.NumChannels; ch++ {
		require.NoError(t, b.Audio.Play(ch, 0))
	}

	s := NewSequencer()
	assert.Equal(t, int16(math.MaxInt16), s.Advance(b, 1)[0])

	for ch := 0; ch < profile.NumChannels; ch++ {
		require.NoError(t, b.Audio.Play(ch, 1))
	}
	assert.Equal(t, int16(math.MinInt16), s.Advance(b, 1)[0])
}

func TestAdvance_Music(t *testing.T) {
	music := &cartridge.Music{
		StepTicks: 2,
		Rows: [][profile.NumChannels]cartridge.Note{
			{{Note: 1, Volume: 3}, {}, {}, {}},
			{{Note: cartridge.NoteStop}, {Note: 2, Volume: 5}, {}, {}},
		},
	}
	b := newBank([]cartridge.Sound{
		{Loop: true, Data: []int8{1}},
		{Loop: true, Data: []int8{2}},
	}, music)
	s := NewSequencer()

	s.Advance(b, 1)
	ch, _ := b.Audio.Channel(0)
	assert.False(t, ch.Playing, "music does nothing before it is started")

	require.NoError(t, b.Audio.PlayMusic())

	samples := s.Advance(b, 1)
	assert.Equal(t, int16(3), samples[0])
	assert.Equal(t, bank.MusicState{Playing: true, Row: 0, Tick: 1}, b.Audio.Music())

	samples = s.Advance(b, 1)
	assert.Equal(t, int16(3), samples[0])
	assert.Equal(t, bank.MusicState{Playing: true, Row: 1, Tick: 0}, b.Audio.Music())

	samples = s.Advance(b, 1)
	assert.Equal(t, int16(10), samples[0], "row 1 stops channel 0 and starts channel 1")
	ch, _ = b.Audio.Channel(0)
	assert.False(t, ch.Playing)

	s.Advance(b, 1)
	assert.Equal(t, bank.MusicState{Playing: true, Row: 0, Tick: 0}, b.Audio.Music(), "the song wraps")

	b.Audio.StopMusic()
	s.Advance(b, 4)
	assert.Equal(t, 0, b.Audio.Music().Row)
}

func TestAdvance_Deterministic(t *testing.T) {
	run := func() ([]int16, []byte) {
		b := newBank([]cartridge.Sound{{Loop: true, Data: []int8{5, -7, 3}}}, nil)
		b.Audio.Play(1, 0)
		b.Audio.SetStep(1, 0x0155)
		samples := NewSequencer().Advance(b, 10)
		return samples, b.Snapshot()
	}
	s1, b1 := run()
	s2, b2 := run()
	assert.Equal(t, s1, s2)
	assert.Equal(t, b1, b2)
}
