// Package vm is the SN-50 execution engine. It runs the program of a loaded
// cartridge against a bank.Bank, one tick at a time, within a fixed cycle
// budget per tick.
package vm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/profile"
)

const (
	flagZ = uint8(1 << iota) // Zero
	flagC                    // Carry / borrow
	flagN                    // Negative, bit 15 of the result
)

const defaultSeed = 0xace1

// State of the engine. Faulted is terminal.
type State uint8

const (
	Idle State = iota
	Running
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	}
	return "???"
}

// Options are the timing knobs of the engine.
type Options struct {
	CyclesPerTick uint32
	// Seed of the RND generator. Zero selects the default seed.
	Seed uint16
}

func DefaultOptions() Options {
	return Options{CyclesPerTick: profile.CyclesPerTick, Seed: defaultSeed}
}

// Context is the execution context of a program. Every field has a fixed
// size so the context serialises with encoding/binary.
type Context struct {
	PC        uint16
	Registers [profile.NumRegisters]uint16
	Flags     uint8
	DataStack [profile.DataStackDepth]uint16
	DataDepth uint16
	CallStack [profile.CallStackDepth]uint16
	CallDepth uint16
	// Budget is the number of cycles left in the current tick.
	Budget uint32
	Cycles uint64
	Rand   uint16
	Ticks  uint64
}

type instruction struct {
	name   string
	mode   addrMode
	fn     func() error
	cycles uint8
}

type Engine struct {
	bank   *bank.Bank
	opts   Options
	instrs [0x100]instruction

	ctx   Context
	state State
	trap  *Trap

	// current instruction
	pc     uint16
	opcode uint8
	op     operands
	yield  bool
}

// New returns an idle engine for the program loaded in b.
func New(b *bank.Bank, opts Options) (*Engine, error) {
	if b == nil {
		return nil, errors.New("couldn't create the engine: no bank")
	}
	// a smaller budget could never start the most expensive instruction
	if opts.CyclesPerTick < maxOpcodeCycles {
		return nil, fmt.Errorf("couldn't create the engine: cycle budget %d is below %d", opts.CyclesPerTick, maxOpcodeCycles)
	}
	if opts.Seed == 0 {
		opts.Seed = defaultSeed
	}

	e := &Engine{
		bank: b,
		opts: opts,
	}
	e.initInstructions()
	e.resetContext()
	return e, nil
}

func (e *Engine) resetContext() {
	e.ctx = Context{Rand: e.opts.Seed}
	e.trap = nil
	e.yield = false
	e.setState(Idle)
}

func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	logger.Logf("vm", "%s -> %s at $%04X", e.state, s, e.ctx.PC)
	e.state = s
}

// Reset restarts the program and restores the bank to its power-on state.
func (e *Engine) Reset() error {
	if e.state == Faulted {
		return ErrFaulted
	}
	e.bank.Reset()
	e.resetContext()
	return nil
}

func (e *Engine) State() State {
	return e.state
}

// Trap returns the trap that faulted the engine, or nil.
func (e *Engine) Trap() *Trap {
	return e.trap
}

func (e *Engine) Context() Context {
	return e.ctx
}

// Tick runs one tick: instructions are executed until the cycle budget would
// be exceeded, WAIT ends the tick or HALT stops the program. The video
// buffer is committed at the end of every tick, a faulting one included.
func (e *Engine) Tick() error {
	switch e.state {
	case Faulted:
		return e.trap
	case Idle:
		e.setState(Running)
	}

	var err error
	if e.state == Running {
		e.ctx.Budget = e.opts.CyclesPerTick
		err = e.run()
	}
	e.bank.Video.Commit()
	e.ctx.Ticks++

	if err != nil {
		var trap *Trap
		if !errors.As(err, &trap) {
			trap = &Trap{Kind: MemoryFault, PC: e.pc, Opcode: e.opcode, Err: err}
		}
		e.trap = trap
		e.setState(Faulted)
		logger.Logf("vm", "trap: %s", trap)
		return trap
	}
	return nil
}

func (e *Engine) run() error {
	for {
		e.pc = e.ctx.PC
		opcode, err := e.bank.Memory.Read8(e.pc)
		if err != nil {
			e.opcode = 0
			trap := e.memoryFault(err)
			trap.Mnemonic = ""
			trap.Detail = "program counter left memory"
			return trap
		}
		e.opcode = opcode

		instr := e.instrs[opcode]
		if instr.fn == nil {
			return e.trapf(InvalidOpcode, nil, "unknown opcode")
		}
		if uint32(instr.cycles) > e.ctx.Budget {
			return nil
		}
		e.ctx.Budget -= uint32(instr.cycles)
		e.ctx.Cycles += uint64(instr.cycles)

		e.ctx.PC++
		if err := e.fetch(instr.mode); err != nil {
			return err
		}
		if err := instr.fn(); err != nil {
			return err
		}

		if e.state != Running {
			return nil
		}
		if e.yield {
			e.yield = false
			return nil
		}
	}
}

func (e *Engine) trapf(kind TrapKind, err error, detail string, args ...any) *Trap {
	return &Trap{
		Kind:     kind,
		PC:       e.pc,
		Opcode:   e.opcode,
		Mnemonic: e.instrs[e.opcode].name,
		Detail:   fmt.Sprintf(detail, args...),
		Err:      err,
	}
}

// memoryFault converts a bank error into a trap.
func (e *Engine) memoryFault(err error) *Trap {
	var re *bank.RangeError
	if errors.As(err, &re) {
		return e.trapf(MemoryFault, re, "")
	}
	return e.trapf(MemoryFault, err, "")
}

func (e *Engine) getFlag(flag uint8) bool {
	return e.ctx.Flags&flag > 0
}

func (e *Engine) setFlag(flag uint8, v bool) {
	if v {
		e.ctx.Flags |= flag
		return
	}
	e.ctx.Flags &= ^flag
}

func (e *Engine) setFlagsZN(value uint16) {
	e.setFlag(flagZ, value == 0)
	e.setFlag(flagN, value&0x8000 > 0)
}

func (e *Engine) reg(r uint8) uint16 {
	return e.ctx.Registers[r]
}

func (e *Engine) setReg(r uint8, v uint16) {
	e.ctx.Registers[r] = v
}

func (e *Engine) push(v uint16) error {
	if int(e.ctx.DataDepth) >= profile.DataStackDepth {
		return e.trapf(StackOverflow, nil, "data stack holds %d values", profile.DataStackDepth)
	}
	e.ctx.DataStack[e.ctx.DataDepth] = v
	e.ctx.DataDepth++
	return nil
}

func (e *Engine) pop() (uint16, error) {
	if e.ctx.DataDepth == 0 {
		return 0, e.trapf(StackUnderflow, nil, "data stack is empty")
	}
	e.ctx.DataDepth--
	return e.ctx.DataStack[e.ctx.DataDepth], nil
}

func (e *Engine) pushCall(addr uint16) error {
	if int(e.ctx.CallDepth) >= profile.CallStackDepth {
		return e.trapf(StackOverflow, nil, "call stack holds %d returns", profile.CallStackDepth)
	}
	e.ctx.CallStack[e.ctx.CallDepth] = addr
	e.ctx.CallDepth++
	return nil
}

func (e *Engine) popCall() (uint16, error) {
	if e.ctx.CallDepth == 0 {
		return 0, e.trapf(StackUnderflow, nil, "call stack is empty")
	}
	e.ctx.CallDepth--
	return e.ctx.CallStack[e.ctx.CallDepth], nil
}

// Snapshot serialises the execution context and engine state.
func (e *Engine) Snapshot() []byte {
	buf := &bytes.Buffer{}
	buf.WriteByte(uint8(e.state))
	binary.Write(buf, binary.LittleEndian, e.ctx)
	return buf.Bytes()
}

// DebugInfo is a one-screen summary of the context, used by overlays.
func (e *Engine) DebugInfo() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%s  PC: $%04X  cycles: %d  ticks: %d\n", e.state, e.ctx.PC, e.ctx.Cycles, e.ctx.Ticks)
	for i, v := range e.ctx.Registers {
		fmt.Fprintf(buf, "r%-2d $%04X", i, v)
		if i%4 == 3 {
			buf.WriteByte('\n')
		} else {
			buf.WriteString("  ")
		}
	}

	flags := []byte("zcn")
	for i, f := range []uint8{flagZ, flagC, flagN} {
		if e.getFlag(f) {
			flags[i] -= 'a' - 'A'
		}
	}
	fmt.Fprintf(buf, "flags: %s  stack: %d  calls: %d\n", flags, e.ctx.DataDepth, e.ctx.CallDepth)
	return buf.String()
}
