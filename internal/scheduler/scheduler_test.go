package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/profile"
	"github.com/nevisdale/sn50/internal/video"
)

const tick = 10 * time.Millisecond

var errTrap = errors.New("memory fault at $0010")

// machineFake counts ticks and faults on tick faultAt (1-based) when set.
type machineFake struct {
	ticks   uint64
	faultAt uint64
	inputs  []bank.InputState
	frames  int
	fb      *video.FrameBuffer
}

func newMachineFake() *machineFake {
	return &machineFake{fb: video.NewFrameBuffer()}
}

func (m *machineFake) Tick(in bank.InputState) ([]int16, error) {
	if m.faultAt != 0 && m.ticks+1 >= m.faultAt {
		return nil, errTrap
	}
	m.ticks++
	m.inputs = append(m.inputs, in)
	m.fb.Pix()[0] = byte(m.ticks)
	samples := make([]int16, profile.SamplesPerTick)
	for i := range samples {
		samples[i] = int16(m.ticks)
	}
	return samples, nil
}

func (m *machineFake) Frame() *video.FrameBuffer {
	m.frames++
	return m.fb
}

func (m *machineFake) Ticks() uint64 {
	return m.ticks
}

type inputMock struct {
	mock.Mock
}

func (m *inputMock) Poll() bank.InputState {
	args := m.Called()
	return args.Get(0).(bank.InputState)
}

type videoMock struct {
	mock.Mock
}

func (m *videoMock) Present(fb *video.FrameBuffer) {
	m.Called(fb)
}

type audioMock struct {
	mock.Mock
}

func (m *audioMock) Queue(samples []int16) {
	m.Called(samples)
}

func testConfig(maxBacklog int) Config {
	return Config{TickDuration: tick, MaxBacklog: maxBacklog}
}

func TestNew(t *testing.T) {
	type testArgs struct {
		machine Machine
		cfg     Config
		wantErr bool
	}

	testDo := func(t *testing.T, in testArgs) {
		s, err := New(in.machine, in.cfg, nil, nil, nil)
		if in.wantErr {
			assert.Error(t, err)
			assert.Nil(t, s)
			return
		}
		assert.NoError(t, err)
		assert.NotNil(t, s)
	}

	t.Run("default config", func(t *testing.T) {
		testDo(t, testArgs{machine: newMachineFake(), cfg: DefaultConfig()})
	})
	t.Run("no machine", func(t *testing.T) {
		testDo(t, testArgs{cfg: DefaultConfig(), wantErr: true})
	})
	t.Run("zero tick duration", func(t *testing.T) {
		testDo(t, testArgs{machine: newMachineFake(), cfg: Config{MaxBacklog: 4}, wantErr: true})
	})
	t.Run("zero backlog", func(t *testing.T) {
		testDo(t, testArgs{machine: newMachineFake(), cfg: Config{TickDuration: tick}, wantErr: true})
	})
}

func TestAdvance_CarriesRemainder(t *testing.T) {
	m := newMachineFake()
	s, err := New(m, testConfig(4), nil, nil, nil)
	require.NoError(t, err)

	steps := []struct {
		elapsed time.Duration
		ticks   int
	}{
		{3 * time.Millisecond, 0},
		{3 * time.Millisecond, 0},
		{3 * time.Millisecond, 0},
		{3 * time.Millisecond, 1},
		{18 * time.Millisecond, 2},
		{0, 0},
		{-5 * time.Millisecond, 0},
		{tick, 1},
	}
	for i, step := range steps {
		report, err := s.Advance(step.elapsed)
		require.NoError(t, err)
		assert.Equal(t, step.ticks, report.Ticks, "step %d", i)
		assert.Equal(t, step.ticks > 0, report.Presented, "step %d", i)
	}
	assert.Equal(t, uint64(4), m.Ticks())
}

func TestAdvance_FixedTimestep(t *testing.T) {
	testDo := func(t *testing.T, maxBacklog int, seed int64) {
		m := newMachineFake()
		s, err := New(m, testConfig(maxBacklog), nil, nil, nil)
		require.NoError(t, err)

		rnd := rand.New(rand.NewSource(seed))
		var total time.Duration
		executed, dropped := 0, 0
		for i := 0; i < 500; i++ {
			elapsed := time.Duration(rnd.Int63n(int64(8 * tick)))
			total += elapsed
			report, err := s.Advance(elapsed)
			require.NoError(t, err)
			assert.LessOrEqual(t, report.Ticks, maxBacklog)
			executed += report.Ticks
			dropped += report.Dropped
		}

		assert.Equal(t, int(total/tick)-dropped, executed)
		assert.Equal(t, uint64(executed), m.Ticks())
	}

	t.Run("small backlog", func(t *testing.T) {
		testDo(t, 1, 1)
	})
	t.Run("default backlog", func(t *testing.T) {
		testDo(t, 4, 7)
	})
	t.Run("backlog never reached", func(t *testing.T) {
		testDo(t, 100, 42)
	})
}

func TestAdvance_FrameSkipped(t *testing.T) {
	logger.Clear()

	var notices []FrameSkipped
	cfg := testConfig(4)
	cfg.OnFrameSkipped = func(f FrameSkipped) {
		notices = append(notices, f)
	}

	m := newMachineFake()
	s, err := New(m, cfg, nil, nil, nil)
	require.NoError(t, err)

	report, err := s.Advance(tick)
	require.NoError(t, err)
	assert.Equal(t, Report{Ticks: 1, Presented: true}, report)

	report, err = s.Advance(10*tick + tick/2)
	require.NoError(t, err)
	assert.Equal(t, Report{Ticks: 4, Dropped: 6, Presented: true}, report)
	assert.Equal(t, []FrameSkipped{{Dropped: 6, AtTick: 1}}, notices)
	assert.Equal(t, uint64(5), m.Ticks())

	entries := logger.Entries()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, "scheduler", last.Tag)
	assert.Equal(t, "dropped 6 ticks at tick 1", last.Detail)

	// the half tick survived the drop
	report, err = s.Advance(tick / 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ticks)
}

func TestAdvance_Batch(t *testing.T) {
	m := newMachineFake()
	input := &inputMock{}
	vsink := &videoMock{}
	asink := &audioMock{}

	pressed := bank.InputState{}.Press(bank.ButtonA)
	input.On("Poll").Return(pressed).Times(3)
	vsink.On("Present", mock.Anything).Once()
	asink.On("Queue", mock.MatchedBy(func(samples []int16) bool {
		if len(samples) != 3*profile.SamplesPerTick {
			return false
		}
		return samples[0] == 1 && samples[profile.SamplesPerTick] == 2 && samples[len(samples)-1] == 3
	})).Once()

	s, err := New(m, testConfig(4), input, vsink, asink)
	require.NoError(t, err)

	report, err := s.Advance(3 * tick)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Ticks)
	assert.Equal(t, 1, m.frames, "one composite per batch")
	assert.Equal(t, []bank.InputState{pressed, pressed, pressed}, m.inputs)

	report, err = s.Advance(tick / 2)
	require.NoError(t, err)
	assert.False(t, report.Presented)
	assert.Equal(t, 1, m.frames)

	input.AssertExpectations(t)
	vsink.AssertExpectations(t)
	asink.AssertExpectations(t)
}

type keepingSink struct {
	frames  []*video.FrameBuffer
	batches [][]int16
}

func (k *keepingSink) Present(fb *video.FrameBuffer) {
	k.frames = append(k.frames, fb)
}

func (k *keepingSink) Queue(samples []int16) {
	k.batches = append(k.batches, samples)
}

func TestAdvance_SinksOwnTheirBatch(t *testing.T) {
	m := newMachineFake()
	sink := &keepingSink{}
	s, err := New(m, testConfig(4), nil, sink, sink)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.Advance(2 * tick)
		require.NoError(t, err)
	}

	require.Len(t, sink.frames, 3)
	require.Len(t, sink.batches, 3)
	for i, fb := range sink.frames {
		assert.NotSame(t, m.fb, fb, "frame %d", i)
		assert.Equal(t, byte(2*(i+1)), fb.Pix()[0], "frame %d", i)
	}
	for i, batch := range sink.batches {
		require.Len(t, batch, 2*profile.SamplesPerTick)
		assert.Equal(t, int16(2*i+1), batch[0], "batch %d", i)
		assert.Equal(t, int16(2*i+2), batch[len(batch)-1], "batch %d", i)
	}
}

func TestAdvance_Fault(t *testing.T) {
	m := newMachineFake()
	m.faultAt = 3
	vsink := &videoMock{}
	asink := &audioMock{}
	vsink.On("Present", mock.Anything).Once()
	asink.On("Queue", mock.MatchedBy(func(samples []int16) bool {
		return len(samples) == 2*profile.SamplesPerTick
	})).Once()

	s, err := New(m, testConfig(8), nil, vsink, asink)
	require.NoError(t, err)

	report, err := s.Advance(5 * tick)
	assert.ErrorIs(t, err, errTrap)
	assert.Equal(t, 2, report.Ticks)
	assert.True(t, report.Presented, "the settled frame is presented")

	report, err = s.Advance(5 * tick)
	assert.ErrorIs(t, err, errTrap)
	assert.Equal(t, Report{}, report)

	_, err = s.Step()
	assert.ErrorIs(t, err, errTrap)
	assert.ErrorIs(t, s.Err(), errTrap)
	assert.Equal(t, uint64(2), m.Ticks())

	vsink.AssertExpectations(t)
	asink.AssertExpectations(t)
}

func TestStep(t *testing.T) {
	m := newMachineFake()
	vsink := &videoMock{}
	vsink.On("Present", mock.Anything).Twice()

	s, err := New(m, testConfig(4), nil, vsink, nil)
	require.NoError(t, err)

	_, err = s.Advance(tick / 2)
	require.NoError(t, err)

	report, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, Report{Ticks: 1, Presented: true}, report)

	// Step leaves the accumulated half tick alone
	report, err = s.Advance(tick / 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ticks)
	assert.Equal(t, uint64(2), m.Ticks())

	vsink.AssertExpectations(t)
}

func TestRun(t *testing.T) {
	t.Run("stops on cancel", func(t *testing.T) {
		m := newMachineFake()
		s, err := New(m, Config{TickDuration: time.Millisecond, MaxBacklog: 1000}, nil, nil, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.NoError(t, s.Run(ctx, time.Millisecond))
		assert.Greater(t, m.Ticks(), uint64(0))
	})

	t.Run("stops on fault", func(t *testing.T) {
		m := newMachineFake()
		m.faultAt = 4
		s, err := New(m, Config{TickDuration: time.Millisecond, MaxBacklog: 1000}, nil, nil, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		assert.ErrorIs(t, s.Run(ctx, time.Millisecond), errTrap)
		assert.Equal(t, uint64(3), m.Ticks())
	})
}
