// Package console wires one loaded cartridge to its bank, engine,
// compositor and sequencer, and runs it a tick at a time.
package console

import (
	"bytes"
	"fmt"

	"github.com/nevisdale/sn50/internal/audio"
	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/video"
	"github.com/nevisdale/sn50/internal/vm"
)

type Options struct {
	VM vm.Options
}

func DefaultOptions() Options {
	return Options{VM: vm.DefaultOptions()}
}

type Console struct {
	cart *cartridge.Cartridge
	bank *bank.Bank
	cpu  *vm.Engine
	seq  *audio.Sequencer
	fb   *video.FrameBuffer

	ticCounter uint64
}

func New(cart *cartridge.Cartridge, opts Options) (*Console, error) {
	if cart == nil {
		return nil, fmt.Errorf("couldn't create the console: no cartridge")
	}

	c := &Console{
		cart: cart,
		bank: bank.New(cart),
		seq:  audio.NewSequencer(),
		fb:   video.NewFrameBuffer(),
	}
	cpu, err := vm.New(c.bank, opts.VM)
	if err != nil {
		return nil, fmt.Errorf("couldn't create the console: %w", err)
	}
	c.cpu = cpu

	logger.Logf("console", "loaded %s: program %d bytes, %d glyphs, %d sounds",
		cart.Title(), len(cart.Program), len(cart.Glyphs)/8, len(cart.Sounds))
	return c, nil
}

// Tick latches input, runs the engine for one tick and mixes the tick's
// audio. A trap is returned by this and every later tick.
func (c *Console) Tick(input bank.InputState) ([]int16, error) {
	if c.cpu.State() == vm.Faulted {
		return nil, c.cpu.Trap()
	}

	c.bank.Input.Latch(input)
	if err := c.cpu.Tick(); err != nil {
		return nil, err
	}
	samples := c.seq.Advance(c.bank, 1)
	c.ticCounter++
	return samples, nil
}

// Frame composites the committed video state. The buffer is reused by the
// next call.
func (c *Console) Frame() *video.FrameBuffer {
	video.CompositeInto(c.bank, c.fb)
	return c.fb
}

func (c *Console) Reset() error {
	if err := c.cpu.Reset(); err != nil {
		return err
	}
	c.ticCounter = 0
	logger.Logf("console", "reset %s", c.cart.Title())
	return nil
}

func (c *Console) Cartridge() *cartridge.Cartridge {
	return c.cart
}

func (c *Console) Bank() *bank.Bank {
	return c.bank
}

func (c *Console) State() vm.State {
	return c.cpu.State()
}

func (c *Console) Trap() *vm.Trap {
	return c.cpu.Trap()
}

func (c *Console) Ticks() uint64 {
	return c.ticCounter
}

// Context returns a copy of the execution context.
func (c *Console) Context() vm.Context {
	return c.cpu.Context()
}

func (c *Console) DebugInfo() string {
	return c.cpu.DebugInfo()
}

func (c *Console) Disassemble() map[uint16]string {
	return c.cpu.Disassemble()
}

// DisassembleAt renders the instruction at addr.
func (c *Console) DisassembleAt(addr uint16) string {
	text, _ := c.cpu.DisassembleAt(addr)
	return text
}

// Snapshot returns the bank snapshot followed by the engine context.
func (c *Console) Snapshot() []byte {
	buf := bytes.NewBuffer(c.bank.Snapshot())
	buf.Write(c.cpu.Snapshot())
	return buf.Bytes()
}
