package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/profile"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

// WavSink records samples to a 16-bit mono WAV file. The file is only
// complete after Close.
type WavSink struct {
	filename string
	file     *os.File
	enc      *wav.Encoder
	buf      *audio.IntBuffer
	samples  int
	err      error
}

func NewWavSink(filename string) (*WavSink, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("couldn't create the wav file: %w", err)
	}

	logger.Logf("wav", "recording audio to %s", filename)
	return &WavSink{
		filename: filename,
		file:     f,
		enc:      wav.NewEncoder(f, profile.SampleRate, wavBitDepth, 1, wavPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: profile.SampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Queue encodes samples. The first write error is kept and returned by
// Close.
func (w *WavSink) Queue(samples []int16) {
	if w.err != nil || w.enc == nil {
		return
	}

	w.buf.Data = w.buf.Data[:0]
	for _, v := range samples {
		w.buf.Data = append(w.buf.Data, int(v))
	}
	if err := w.enc.Write(w.buf); err != nil {
		w.err = fmt.Errorf("couldn't write samples: %w", err)
		return
	}
	w.samples += len(samples)
}

func (w *WavSink) Close() (rerr error) {
	if w.enc == nil {
		return w.err
	}
	defer func() {
		if err := w.file.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("couldn't close the wav file: %w", err)
		}
	}()

	err := w.enc.Close()
	w.enc = nil
	if w.err != nil {
		return w.err
	}
	if err != nil {
		return fmt.Errorf("couldn't finish the wav file: %w", err)
	}

	logger.Logf("wav", "wrote %d samples to %s", w.samples, w.filename)
	return nil
}
