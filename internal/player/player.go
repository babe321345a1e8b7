// Package player assembles a runnable console from a Config: it loads the
// cartridge, opens the audio and input files and builds the scheduler.
package player

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nevisdale/sn50/internal/asm"
	"github.com/nevisdale/sn50/internal/audio"
	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/console"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/recorder"
	"github.com/nevisdale/sn50/internal/scheduler"
)

// LoadCartridge reads a cartridge file. Paths ending in .s are assembled
// into a program-only cartridge.
func LoadCartridge(path string) (*cartridge.Cartridge, error) {
	if strings.EqualFold(filepath.Ext(path), ".s") {
		return asm.LoadFile(path)
	}
	return cartridge.LoadFile(path)
}

// LoadError is returned when the cartridge file can't be read, assembled or
// validated.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("couldn't load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Option changes how New wires the player.
type Option func(p *Player)

// WithAudioDevice sets the opener of the audio device. Without it the player
// never opens one, so headless builds don't need the device backend.
func WithAudioDevice(open func() (audio.Sink, error)) Option {
	return func(p *Player) {
		p.openDevice = open
	}
}

type Player struct {
	cfg        Config
	input      scheduler.InputSource
	video      scheduler.VideoSink
	openDevice func() (audio.Sink, error)

	console *console.Console
	sched   *scheduler.Scheduler

	audio      audio.Sink
	replay     *recorder.Reader
	rec        *recorder.Writer
	recFile    *os.File
	pollSource scheduler.InputSource
}

// New loads the configured cartridge. input supplies live input and may be
// nil; it is ignored while replaying. video receives every presented frame
// and may be nil.
func New(cfg Config, input scheduler.InputSource, video scheduler.VideoSink, opts ...Option) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Player{cfg: cfg, input: input, video: video}
	for _, opt := range opts {
		opt(p)
	}
	for _, open := range []func() error{p.openAudio, p.openInput, p.load} {
		if err := open(); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

func (p *Player) openAudio() error {
	var sinks []audio.Sink
	if !p.cfg.Mute && !p.cfg.Headless && p.openDevice != nil {
		device, err := p.openDevice()
		if err != nil {
			// no audio device is not fatal, the game still runs
			logger.Logf("player", "audio output disabled: %v", err)
		} else {
			sinks = append(sinks, device)
		}
	}
	if p.cfg.RecordAudio != "" {
		wav, err := audio.NewWavSink(p.cfg.RecordAudio)
		if err != nil {
			return err
		}
		sinks = append(sinks, wav)
	}

	if len(sinks) == 0 {
		p.audio = audio.Discard
		return nil
	}
	p.audio = audio.Tee(sinks...)
	return nil
}

func (p *Player) openInput() error {
	p.pollSource = p.input

	if p.cfg.ReplayInput != "" {
		f, err := os.Open(p.cfg.ReplayInput)
		if err != nil {
			return fmt.Errorf("couldn't open the input recording: %w", err)
		}
		defer f.Close()

		r, err := recorder.NewReader(f)
		if err != nil {
			return fmt.Errorf("couldn't load %s: %w", p.cfg.ReplayInput, err)
		}
		p.replay = r
		p.pollSource = r
		logger.Logf("player", "replaying %d ticks of input from %s", r.Len(), p.cfg.ReplayInput)
	}

	if p.cfg.RecordInput != "" {
		f, err := os.Create(p.cfg.RecordInput)
		if err != nil {
			return fmt.Errorf("couldn't create the input recording: %w", err)
		}
		w, err := recorder.NewWriter(f, p.input)
		if err != nil {
			f.Close()
			return err
		}
		p.recFile = f
		p.rec = w
		p.pollSource = w
		logger.Logf("player", "recording input to %s", p.cfg.RecordInput)
	}
	return nil
}

func (p *Player) load() error {
	cart, err := LoadCartridge(p.cfg.CartridgePath)
	if err != nil {
		return &LoadError{Path: p.cfg.CartridgePath, Err: err}
	}

	c, err := console.New(cart, console.DefaultOptions())
	if err != nil {
		return err
	}

	sched, err := scheduler.New(c, p.cfg.schedulerConfig(), p.pollSource, p.video, p.audio)
	if err != nil {
		return err
	}

	p.console = c
	p.sched = sched
	return nil
}

// Reload reads the cartridge from disk again and starts it from scratch. A
// replay starts over with it. The running console is kept when the new file
// doesn't load.
func (p *Player) Reload() error {
	prevConsole, prevSched := p.console, p.sched
	if err := p.load(); err != nil {
		p.console, p.sched = prevConsole, prevSched
		logger.Logf("player", "reload failed: %v", err)
		return err
	}
	if p.replay != nil {
		p.replay.Rewind()
	}
	logger.Logf("player", "reloaded %s", p.console.Cartridge().Title())
	return nil
}

func (p *Player) Config() Config {
	return p.cfg
}

func (p *Player) Console() *console.Console {
	return p.console
}

func (p *Player) Advance(elapsed time.Duration) (scheduler.Report, error) {
	return p.sched.Advance(elapsed)
}

func (p *Player) Step() (scheduler.Report, error) {
	return p.sched.Step()
}

// Replaying reports whether input comes from a recording that still has
// ticks left.
func (p *Player) Replaying() bool {
	return p.replay != nil && !p.replay.Done()
}

// Close flushes and closes everything New opened. It is safe to call more
// than once.
func (p *Player) Close() error {
	var errs []error
	if p.rec != nil {
		errs = append(errs, p.rec.Flush())
		p.rec = nil
	}
	if p.recFile != nil {
		errs = append(errs, p.recFile.Close())
		p.recFile = nil
	}
	if p.audio != nil {
		errs = append(errs, p.audio.Close())
		p.audio = nil
	}
	return errors.Join(errs...)
}
