package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevisdale/sn50/internal/asm"
	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/profile"
	"github.com/nevisdale/sn50/internal/vm"
)

func newConsole(t *testing.T, src string, sounds ...cartridge.Sound) *Console {
	t.Helper()
	program, err := asm.Assemble(src)
	require.NoError(t, err)

	c, err := New(&cartridge.Cartridge{Program: program, Sounds: sounds}, DefaultOptions())
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := New(nil, DefaultOptions())
	assert.Error(t, err)

	_, err = New(&cartridge.Cartridge{Program: []byte{0}}, Options{})
	assert.Error(t, err)
}

func TestTick(t *testing.T) {
	c := newConsole(t, `
	loop:
		INPUT r1
		LDI   r2, 15
		AND   r1, r2
		VSET  r0, r0, r1
		SPLAY r0, r0
		WAIT
		JMP   loop
	`, cartridge.Sound{Loop: true, Data: []int8{2}})

	samples, err := c.Tick(bank.InputState{}.Press(bank.ButtonRight))
	require.NoError(t, err)
	assert.Len(t, samples, profile.SamplesPerTick)
	assert.Equal(t, int16(2*profile.MaxVolume), samples[0])
	assert.Equal(t, uint64(1), c.Ticks())
	assert.Equal(t, vm.Running, c.State())

	img := c.Frame().Image()
	want := c.Bank().Palette.Colors()[bank.ButtonRight.Mask()]
	assert.Equal(t, want, img.RGBAAt(3, 3))
}

func TestTick_Fault(t *testing.T) {
	c := newConsole(t, `
		LDI  r1, 4
		VSET r0, r0, r1
		LDI  r1, 99
		VSET r0, r0, r1
	`)

	samples, err := c.Tick(bank.InputState{})
	assert.Nil(t, samples)
	var trap *vm.Trap
	require.ErrorAs(t, err, &trap)
	assert.Equal(t, vm.MemoryFault, trap.Kind)
	assert.Equal(t, uint16(0x000b), trap.PC)
	assert.Equal(t, "$000B: VSET r0, r0, r1 {RRR}", c.DisassembleAt(trap.PC))

	assert.Equal(t, vm.Faulted, c.State())
	assert.Same(t, trap, c.Trap())
	assert.Equal(t, uint64(0), c.Ticks())

	_, err = c.Tick(bank.InputState{})
	assert.Same(t, trap, err)
	assert.ErrorIs(t, c.Reset(), vm.ErrFaulted)

	img := c.Frame().Image()
	assert.Equal(t, c.Bank().Palette.Colors()[4], img.RGBAAt(0, 0), "the settled frame is still available")
}

func TestReset(t *testing.T) {
	c := newConsole(t, "RND r1\nLDI r2, 15\nAND r1, r2\nVSET r0, r0, r1\nHALT")
	initial := c.Snapshot()

	_, err := c.Tick(bank.InputState{Buttons: 3})
	require.NoError(t, err)
	after := c.Snapshot()
	assert.NotEqual(t, initial, after)

	require.NoError(t, c.Reset())
	assert.Equal(t, uint64(0), c.Ticks())
	assert.Equal(t, initial, c.Snapshot())

	_, err = c.Tick(bank.InputState{Buttons: 3})
	require.NoError(t, err)
	assert.Equal(t, after, c.Snapshot())
}

func TestDeterminism(t *testing.T) {
	src := `
	loop:
		RND   r1
		LDI   r2, 80
		MOD   r1, r2
		INPUT r3
		LDI   r2, 15
		AND   r3, r2
		VSET  r1, r0, r3
		LDI   r2, 3
		AND   r3, r2
		SPLAY r3, r0
		WAIT
		JMP   loop
	`
	inputs := make([]bank.InputState, 120)
	for i := range inputs {
		inputs[i] = bank.InputState{Buttons: uint16(i * 31), Axes: [profile.NumAxes]int8{int8(i), int8(-i)}}
	}

	run := func() ([][]byte, [][]int16) {
		c := newConsole(t, src, cartridge.Sound{Loop: true, Data: []int8{3, 1, -4}})
		var snapshots [][]byte
		var audio [][]int16
		for _, in := range inputs {
			samples, err := c.Tick(in)
			require.NoError(t, err)
			snapshots = append(snapshots, c.Snapshot())
			audio = append(audio, samples)
		}
		return snapshots, audio
	}

	s1, a1 := run()
	s2, a2 := run()
	for i := range s1 {
		require.Equal(t, s1[i], s2[i], "snapshot after tick %d", i)
		require.Equal(t, a1[i], a2[i], "audio of tick %d", i)
	}
}

func TestDebugHelpers(t *testing.T) {
	c := newConsole(t, "NOP\nHALT")
	assert.Equal(t, "$0000: NOP {IMP}", c.Disassemble()[0])
	assert.Contains(t, c.DebugInfo(), "idle")
	assert.Equal(t, "untitled", c.Cartridge().Title())
}
