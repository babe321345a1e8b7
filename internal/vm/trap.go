package vm

import (
	"errors"
	"fmt"
)

// TrapKind classifies a run-time fault.
type TrapKind uint8

const (
	MemoryFault TrapKind = iota + 1
	InvalidOpcode
	StackOverflow
	StackUnderflow
	DivideByZero
)

func (k TrapKind) String() string {
	switch k {
	case MemoryFault:
		return "memory fault"
	case InvalidOpcode:
		return "invalid opcode"
	case StackOverflow:
		return "stack overflow"
	case StackUnderflow:
		return "stack underflow"
	case DivideByZero:
		return "divide by zero"
	}
	return "trap"
}

// Trap stops the engine for good. PC and Opcode locate the instruction that
// raised it.
type Trap struct {
	Kind     TrapKind
	PC       uint16
	Opcode   uint8
	Mnemonic string
	Detail   string
	Err      error
}

func (t *Trap) Error() string {
	name := t.Mnemonic
	if name == "" {
		name = fmt.Sprintf("$%02X", t.Opcode)
	}
	msg := fmt.Sprintf("%s at $%04X (%s)", t.Kind, t.PC, name)
	if t.Detail != "" {
		msg += ": " + t.Detail
	}
	if t.Err != nil {
		msg += ": " + t.Err.Error()
	}
	return msg
}

func (t *Trap) Unwrap() error {
	return t.Err
}

// ErrFaulted is returned by Reset once the engine has trapped. A faulted
// cartridge has to be loaded again.
var ErrFaulted = errors.New("engine is faulted")
