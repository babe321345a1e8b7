// Package scheduler runs a machine at a fixed tick rate against a wall clock.
//
// Elapsed time is accumulated and consumed in whole tick durations. The
// remainder carries over to the next call, so the number of executed ticks
// is floor(total elapsed / tick) minus whatever was dropped as backlog.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/profile"
	"github.com/nevisdale/sn50/internal/video"
)

type Machine interface {
	Tick(bank.InputState) ([]int16, error)
	Frame() *video.FrameBuffer
	Ticks() uint64
}

type InputSource interface {
	Poll() bank.InputState
}

// VideoSink receives a copy of the composited frame once per batch. The
// sink owns the copy and may keep it or hand it to another goroutine.
type VideoSink interface {
	Present(*video.FrameBuffer)
}

// AudioSink receives the samples of a batch in a slice it owns.
type AudioSink interface {
	Queue([]int16)
}

type Config struct {
	TickDuration time.Duration
	// MaxBacklog is the most ticks a single Advance executes.
	MaxBacklog int
	// OnFrameSkipped is called when due ticks are dropped. May be nil.
	OnFrameSkipped func(FrameSkipped)
}

func DefaultConfig() Config {
	return Config{
		TickDuration: profile.TickDuration,
		MaxBacklog:   4,
	}
}

// FrameSkipped reports ticks that were due but never executed.
type FrameSkipped struct {
	Dropped int
	AtTick  uint64
}

func (f FrameSkipped) String() string {
	return fmt.Sprintf("dropped %d ticks at tick %d", f.Dropped, f.AtTick)
}

// Report describes one Advance or Step.
type Report struct {
	Ticks     int
	Dropped   int
	Presented bool
}

type Scheduler struct {
	machine Machine
	cfg     Config
	input   InputSource
	video   VideoSink
	audio   AudioSink

	acc time.Duration
	err error
}

// New creates a scheduler. A nil input source latches no input and nil
// sinks discard their output.
func New(m Machine, cfg Config, input InputSource, v VideoSink, a AudioSink) (*Scheduler, error) {
	if m == nil {
		return nil, errors.New("couldn't create the scheduler: no machine")
	}
	if cfg.TickDuration <= 0 {
		return nil, fmt.Errorf("couldn't create the scheduler: tick duration %s", cfg.TickDuration)
	}
	if cfg.MaxBacklog < 1 {
		return nil, fmt.Errorf("couldn't create the scheduler: max backlog %d", cfg.MaxBacklog)
	}

	return &Scheduler{
		machine: m,
		cfg:     cfg,
		input:   input,
		video:   v,
		audio:   a,
	}, nil
}

// Err returns the error that stopped the scheduler, if any.
func (s *Scheduler) Err() error {
	return s.err
}

// Advance runs every tick that became due during elapsed.
func (s *Scheduler) Advance(elapsed time.Duration) (Report, error) {
	if s.err != nil {
		return Report{}, s.err
	}
	if elapsed > 0 {
		s.acc += elapsed
	}

	due := int(s.acc / s.cfg.TickDuration)
	s.acc -= time.Duration(due) * s.cfg.TickDuration

	dropped := 0
	if due > s.cfg.MaxBacklog {
		dropped = due - s.cfg.MaxBacklog
		due = s.cfg.MaxBacklog
		s.frameSkipped(FrameSkipped{Dropped: dropped, AtTick: s.machine.Ticks()})
	}

	report, err := s.batch(due)
	report.Dropped = dropped
	return report, err
}

// Step runs exactly one tick. Accumulated time is left alone.
func (s *Scheduler) Step() (Report, error) {
	if s.err != nil {
		return Report{}, s.err
	}
	return s.batch(1)
}

// Run calls Advance every interval with the real time that passed, until ctx
// is done or the machine faults. Cancellation is seen between batches, never
// inside a tick. A cancelled Run returns nil.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.cfg.TickDuration
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if _, err := s.Advance(now.Sub(last)); err != nil {
				return err
			}
			last = now
		}
	}
}

func (s *Scheduler) batch(n int) (Report, error) {
	report := Report{}
	batch := make([]int16, 0, n*profile.SamplesPerTick)

	for i := 0; i < n; i++ {
		var in bank.InputState
		if s.input != nil {
			in = s.input.Poll()
		}
		samples, err := s.machine.Tick(in)
		if err != nil {
			s.err = err
			break
		}
		batch = append(batch, samples...)
		report.Ticks++
	}

	if report.Ticks > 0 || s.err != nil {
		if s.video != nil {
			s.video.Present(s.machine.Frame().Clone())
		}
		report.Presented = true
	}
	if len(batch) > 0 && s.audio != nil {
		s.audio.Queue(batch)
	}
	return report, s.err
}

func (s *Scheduler) frameSkipped(notice FrameSkipped) {
	logger.Logf("scheduler", "%s", notice)
	if s.cfg.OnFrameSkipped != nil {
		s.cfg.OnFrameSkipped(notice)
	}
}
