package vm

import (
	"fmt"

	"github.com/nevisdale/sn50/internal/profile"
)

type addrMode uint8

const (
	// Implied: IMP
	//
	// Format: op
	addrModeIMP addrMode = iota + 1

	// Register: R
	//
	// Format: op, r. The register byte must be below 16.
	addrModeR

	// Register pair: RR
	//
	// Format: op, d<<4 | s. The destination sits in the high nibble.
	addrModeRR

	// Register triple: RRR
	//
	// Format: op, a<<4 | b, c. Usually x, y and a value register.
	addrModeRRR

	// Register and immediate: RI
	//
	// Format: op, r, lo, hi
	addrModeRI

	// Absolute: ABS
	//
	// Format: op, lo, hi, where the word is an address in program memory.
	addrModeABS
)

func (mode addrMode) String() string {
	switch mode {
	case addrModeIMP:
		return "IMP"
	case addrModeR:
		return "R"
	case addrModeRR:
		return "RR"
	case addrModeRRR:
		return "RRR"
	case addrModeRI:
		return "RI"
	case addrModeABS:
		return "ABS"
	}
	return "???"
}

// size is the encoded length of an instruction, opcode included.
func (mode addrMode) size() int {
	switch mode {
	case addrModeIMP:
		return 1
	case addrModeR, addrModeRR:
		return 2
	case addrModeRRR, addrModeABS:
		return 3
	case addrModeRI:
		return 4
	}
	return 1
}

func addrModeFromString(s string) (addrMode, error) {
	for mode := addrModeIMP; mode <= addrModeABS; mode++ {
		if mode.String() == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown address mode %q", s)
}

// operands of the current instruction
type operands struct {
	a, b, c uint8
	imm     uint16
}

// fetch decodes the operands of the current instruction and moves PC past
// them.
func (e *Engine) fetch(mode addrMode) error {
	e.op = operands{}

	switch mode {
	case addrModeIMP:
		return nil

	case addrModeR:
		r, err := e.fetchReg()
		if err != nil {
			return err
		}
		e.op.a = r
		return nil

	case addrModeRR:
		v, err := e.fetch8()
		if err != nil {
			return err
		}
		e.op.a, e.op.b = v>>4, v&0x0f
		return nil

	case addrModeRRR:
		v, err := e.fetch8()
		if err != nil {
			return err
		}
		e.op.a, e.op.b = v>>4, v&0x0f
		if e.op.c, err = e.fetchReg(); err != nil {
			return err
		}
		return nil

	case addrModeRI:
		r, err := e.fetchReg()
		if err != nil {
			return err
		}
		e.op.a = r
		if e.op.imm, err = e.fetch16(); err != nil {
			return err
		}
		return nil

	case addrModeABS:
		v, err := e.fetch16()
		if err != nil {
			return err
		}
		e.op.imm = v
		return nil
	}

	return e.trapf(InvalidOpcode, nil, "unsupported address mode %d", mode)
}

func (e *Engine) fetch8() (uint8, error) {
	v, err := e.bank.Memory.Read8(e.ctx.PC)
	if err != nil {
		return 0, e.memoryFault(err)
	}
	e.ctx.PC++
	return v, nil
}

func (e *Engine) fetch16() (uint16, error) {
	v, err := e.bank.Memory.Read16(e.ctx.PC)
	if err != nil {
		return 0, e.memoryFault(err)
	}
	e.ctx.PC += 2
	return v, nil
}

func (e *Engine) fetchReg() (uint8, error) {
	r, err := e.fetch8()
	if err != nil {
		return 0, err
	}
	if r >= profile.NumRegisters {
		return 0, e.trapf(InvalidOpcode, nil, "register r%d does not exist", r)
	}
	return r, nil
}
