package bank

import (
	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/profile"
)

// StepUnit is the 8.8 fixed point pitch step that plays one waveform sample
// per output sample.
const StepUnit = 0x0100

// Channel is the register set of one audio channel. The engine writes the
// control fields; Position is advanced by the sequencer only.
type Channel struct {
	Sound   uint8
	Volume  uint8
	Step    uint16
	Loop    bool
	Playing bool
	// Position in the waveform, 8.8 fixed point.
	Position uint32
}

// MusicState is the music cursor. It belongs to the sequencer.
type MusicState struct {
	Playing bool
	Row     int
	Tick    int
}

// Audio holds the channel registers and the music cursor.
type Audio struct {
	channels [profile.NumChannels]Channel
	music    MusicState

	sounds []cartridge.Sound
	song   *cartridge.Music
}

func (a *Audio) reset() {
	for i := range a.channels {
		a.channels[i] = Channel{Volume: profile.MaxVolume, Step: StepUnit}
	}
	a.music = MusicState{}
}

func (a *Audio) channel(ch int) (*Channel, error) {
	if err := checkRange(RegionChannel, ch, profile.NumChannels); err != nil {
		return nil, err
	}
	return &a.channels[ch], nil
}

func (a *Audio) Channel(ch int) (Channel, error) {
	c, err := a.channel(ch)
	if err != nil {
		return Channel{}, err
	}
	return *c, nil
}

// Play starts sound on channel ch from its first sample. The loop flag is
// reset to the default stored with the sound.
func (a *Audio) Play(ch, sound int) error {
	c, err := a.channel(ch)
	if err != nil {
		return err
	}
	if err := checkRange(RegionSound, sound, len(a.sounds)); err != nil {
		return err
	}
	c.Sound = uint8(sound)
	c.Loop = a.sounds[sound].Loop
	c.Playing = true
	c.Position = 0
	return nil
}

func (a *Audio) Stop(ch int) error {
	c, err := a.channel(ch)
	if err != nil {
		return err
	}
	c.Playing = false
	c.Position = 0
	return nil
}

func (a *Audio) SetVolume(ch, volume int) error {
	c, err := a.channel(ch)
	if err != nil {
		return err
	}
	if err := checkRange(RegionVolume, volume, profile.MaxVolume+1); err != nil {
		return err
	}
	c.Volume = uint8(volume)
	return nil
}

func (a *Audio) SetStep(ch int, step uint16) error {
	c, err := a.channel(ch)
	if err != nil {
		return err
	}
	c.Step = step
	return nil
}

func (a *Audio) SetLoop(ch int, loop bool) error {
	c, err := a.channel(ch)
	if err != nil {
		return err
	}
	c.Loop = loop
	return nil
}

// PlayMusic restarts the cartridge music from its first row.
func (a *Audio) PlayMusic() error {
	if a.song == nil {
		return &RangeError{Region: RegionMusic}
	}
	a.music = MusicState{Playing: true}
	return nil
}

// StopMusic stops the music cursor. Channels keep playing what they play.
func (a *Audio) StopMusic() {
	a.music.Playing = false
}

func (a *Audio) Music() MusicState {
	return a.music
}

// SeekMusic moves the music cursor.
func (a *Audio) SeekMusic(m MusicState) {
	a.music = m
}

// Seek moves the playback position of a channel.
func (a *Audio) Seek(ch int, pos uint32) error {
	c, err := a.channel(ch)
	if err != nil {
		return err
	}
	c.Position = pos
	return nil
}
