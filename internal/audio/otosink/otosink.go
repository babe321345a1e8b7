// Package otosink plays console audio on the default sound device. It is
// kept apart from the sequencer because the device backend needs cgo and
// the system audio headers.
package otosink

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/nevisdale/sn50/internal/audio"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/profile"
)

// ringTicks is how much audio the device ring holds.
const ringTicks = 8

// Sink plays samples on the default audio device.
type Sink struct {
	ctx    *oto.Context
	player *oto.Player
	ring   *audio.Ring
}

var _ audio.Sink = (*Sink)(nil)

// New opens the audio device. The process can only hold one.
func New() (*Sink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   profile.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   2 * profile.TickDuration,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the audio device: %w", err)
	}
	<-ready

	s := &Sink{
		ctx:  ctx,
		ring: audio.NewRing(ringTicks * profile.SamplesPerTick),
	}
	s.player = ctx.NewPlayer(s.ring)
	s.player.Play()
	logger.Logf("audio", "device open: %d Hz mono, %s buffer", profile.SampleRate, op.BufferSize.Round(time.Millisecond))
	return s, nil
}

// Queue copies samples into the device ring. It never blocks.
func (s *Sink) Queue(samples []int16) {
	s.ring.Write(samples)
}

func (s *Sink) Close() error {
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	if dropped := s.ring.Dropped(); dropped > 0 {
		logger.Logf("audio", "dropped %d samples on overflow", dropped)
	}
	logger.Log("audio", "device closed")
	if err != nil {
		return fmt.Errorf("couldn't close the audio player: %w", err)
	}
	return nil
}
