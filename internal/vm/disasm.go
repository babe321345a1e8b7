package vm

import (
	"fmt"

	"github.com/nevisdale/sn50/internal/profile"
)

// Disassemble returns a map of addresses and their corresponding instructions
// for the whole program memory.
func (e *Engine) Disassemble() map[uint16]string {
	disasm := make(map[uint16]string, profile.MemorySize/2)

	addr := 0
	for addr < profile.MemorySize {
		text, size := e.DisassembleAt(uint16(addr))
		disasm[uint16(addr)] = text
		addr += size
	}
	return disasm
}

// DisassembleAt renders the instruction at addr and returns its size.
// Unknown opcodes and instructions cut off by the end of memory take one
// byte.
func (e *Engine) DisassembleAt(addr uint16) (string, int) {
	mem := &e.bank.Memory
	opcode, err := mem.Read8(addr)
	if err != nil {
		return fmt.Sprintf("$%04X: ???", addr), 1
	}

	instr := e.instrs[opcode]
	if instr.fn == nil || int(addr)+instr.mode.size() > profile.MemorySize {
		return fmt.Sprintf("$%04X: ??? $%02X", addr, opcode), 1
	}

	b1, _ := mem.Read8(addr + 1)
	b2, _ := mem.Read8(addr + 2)
	w1, _ := mem.Read16(addr + 1)
	w2, _ := mem.Read16(addr + 2)

	var text string
	switch instr.mode {
	case addrModeIMP:
		text = fmt.Sprintf("$%04X: %s {%s}", addr, instr.name, instr.mode)
	case addrModeR:
		text = fmt.Sprintf("$%04X: %s r%d {%s}", addr, instr.name, b1, instr.mode)
	case addrModeRR:
		text = fmt.Sprintf("$%04X: %s r%d, r%d {%s}", addr, instr.name, b1>>4, b1&0x0f, instr.mode)
	case addrModeRRR:
		text = fmt.Sprintf("$%04X: %s r%d, r%d, r%d {%s}", addr, instr.name, b1>>4, b1&0x0f, b2, instr.mode)
	case addrModeRI:
		text = fmt.Sprintf("$%04X: %s r%d, #$%04X {%s}", addr, instr.name, b1, w2, instr.mode)
	case addrModeABS:
		text = fmt.Sprintf("$%04X: %s $%04X {%s}", addr, instr.name, w1, instr.mode)
	}
	return text, instr.mode.size()
}
