package recorder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nevisdale/sn50/internal/bank"
)

type sourceMock struct {
	mock.Mock
}

func (m *sourceMock) Poll() bank.InputState {
	args := m.Called()
	return args.Get(0).(bank.InputState)
}

func TestWriterReader(t *testing.T) {
	states := []bank.InputState{
		{},
		bank.InputState{}.Press(bank.ButtonUp).Press(bank.ButtonStart),
		{Buttons: 0xffff, Axes: [2]int8{-128, 127}},
		{Axes: [2]int8{5, -5}},
	}

	src := &sourceMock{}
	for _, in := range states {
		src.On("Poll").Return(in).Once()
	}

	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, src)
	require.NoError(t, err)
	for _, want := range states {
		assert.Equal(t, want, w.Poll(), "the wrapped state is passed through")
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, uint64(len(states)), w.Ticks())
	assert.Len(t, buf.Bytes(), headerSize+len(states)*recordSize)
	assert.Equal(t, []byte("SN5I\x01"), buf.Bytes()[:headerSize])
	third := buf.Bytes()[headerSize+2*recordSize : headerSize+3*recordSize]
	assert.Equal(t, []byte{0xff, 0xff, 0x80, 0x7f}, third)
	src.AssertExpectations(t)

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, len(states), r.Len())
	for _, want := range states {
		assert.False(t, r.Done())
		assert.Equal(t, want, r.Poll())
	}
	assert.True(t, r.Done())
	assert.Equal(t, bank.InputState{}, r.Poll(), "zero input after the end")

	r.Rewind()
	assert.Equal(t, states[0], r.Poll())
}

func TestWriter_NilSource(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, nil)
	require.NoError(t, err)
	assert.Equal(t, bank.InputState{}, w.Poll())
	w.Record(bank.InputState{Buttons: 2})
	require.NoError(t, w.Flush())

	r, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	r.Poll()
	assert.Equal(t, bank.InputState{Buttons: 2}, r.Poll())
}

func TestParse_Errors(t *testing.T) {
	testDo := func(t *testing.T, data []byte) {
		_, err := Parse(data)
		assert.ErrorIs(t, err, ErrBadRecording)
	}

	t.Run("empty", func(t *testing.T) {
		testDo(t, nil)
	})
	t.Run("bad magic", func(t *testing.T) {
		testDo(t, []byte("SN50\x01"))
	})
	t.Run("unknown version", func(t *testing.T) {
		testDo(t, []byte("SN5I\x02"))
	})
	t.Run("partial record", func(t *testing.T) {
		testDo(t, []byte("SN5I\x01\x00\x00\x00"))
	})
}
