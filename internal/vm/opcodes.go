package vm

type opcodeFunc func(e *Engine) error

var opcodeFuncs = map[string]opcodeFunc{
	"HALT":   (*Engine).halt,
	"NOP":    (*Engine).nop,
	"WAIT":   (*Engine).wait,
	"LDI":    (*Engine).ldi,
	"MOV":    (*Engine).mov,
	"LDB":    (*Engine).ldb,
	"STB":    (*Engine).stb,
	"LDW":    (*Engine).ldw,
	"STW":    (*Engine).stw,
	"ADD":    (*Engine).add,
	"SUB":    (*Engine).sub,
	"MUL":    (*Engine).mul,
	"DIV":    (*Engine).div,
	"MOD":    (*Engine).mod,
	"AND":    (*Engine).and,
	"OR":     (*Engine).or,
	"XOR":    (*Engine).xor,
	"SHL":    (*Engine).shl,
	"SHR":    (*Engine).shr,
	"NOT":    (*Engine).not,
	"ADDI":   (*Engine).addi,
	"CMP":    (*Engine).cmp,
	"CMPI":   (*Engine).cmpi,
	"INC":    (*Engine).inc,
	"DEC":    (*Engine).dec,
	"JMP":    (*Engine).jmp,
	"JZ":     (*Engine).jz,
	"JNZ":    (*Engine).jnz,
	"JC":     (*Engine).jc,
	"JNC":    (*Engine).jnc,
	"CALL":   (*Engine).call,
	"RET":    (*Engine).ret,
	"JMPR":   (*Engine).jmpr,
	"PUSH":   (*Engine).pushReg,
	"POP":    (*Engine).popReg,
	"VSET":   (*Engine).vset,
	"VINK":   (*Engine).vink,
	"VGLY":   (*Engine).vgly,
	"VGET":   (*Engine).vget,
	"VCLR":   (*Engine).vclr,
	"INPUT":  (*Engine).input,
	"AXIS":   (*Engine).axis,
	"SPLAY":  (*Engine).splay,
	"SSTOP":  (*Engine).sstop,
	"SVOL":   (*Engine).svol,
	"SPITCH": (*Engine).spitch,
	"SLOOP":  (*Engine).sloop,
	"MPLAY":  (*Engine).mplay,
	"RND":    (*Engine).rnd,
	"TICKS":  (*Engine).ticks,
}

func (e *Engine) halt() error {
	e.setState(Halted)
	return nil
}

func (e *Engine) nop() error {
	return nil
}

// wait ends the tick after this instruction.
func (e *Engine) wait() error {
	e.yield = true
	return nil
}

func (e *Engine) ldi() error {
	e.setReg(e.op.a, e.op.imm)
	return nil
}

func (e *Engine) mov() error {
	e.setReg(e.op.a, e.reg(e.op.b))
	return nil
}

func (e *Engine) ldb() error {
	v, err := e.bank.Memory.Read8(e.reg(e.op.b))
	if err != nil {
		return e.memoryFault(err)
	}
	e.setReg(e.op.a, uint16(v))
	return nil
}

func (e *Engine) stb() error {
	if err := e.bank.Memory.Write8(e.reg(e.op.a), uint8(e.reg(e.op.b))); err != nil {
		return e.memoryFault(err)
	}
	return nil
}

func (e *Engine) ldw() error {
	v, err := e.bank.Memory.Read16(e.reg(e.op.b))
	if err != nil {
		return e.memoryFault(err)
	}
	e.setReg(e.op.a, v)
	return nil
}

func (e *Engine) stw() error {
	if err := e.bank.Memory.Write16(e.reg(e.op.a), e.reg(e.op.b)); err != nil {
		return e.memoryFault(err)
	}
	return nil
}

// alu stores r into rd and sets Z and N from it.
func (e *Engine) alu(r uint16, carry bool) {
	e.setReg(e.op.a, r)
	e.setFlagsZN(r)
	e.setFlag(flagC, carry)
}

func (e *Engine) add() error {
	r := uint32(e.reg(e.op.a)) + uint32(e.reg(e.op.b))
	e.alu(uint16(r), r > 0xffff)
	return nil
}

func (e *Engine) addi() error {
	r := uint32(e.reg(e.op.a)) + uint32(e.op.imm)
	e.alu(uint16(r), r > 0xffff)
	return nil
}

func (e *Engine) sub() error {
	a, b := e.reg(e.op.a), e.reg(e.op.b)
	e.alu(a-b, a < b)
	return nil
}

func (e *Engine) mul() error {
	r := uint32(e.reg(e.op.a)) * uint32(e.reg(e.op.b))
	e.alu(uint16(r), r > 0xffff)
	return nil
}

func (e *Engine) div() error {
	b := e.reg(e.op.b)
	if b == 0 {
		return e.trapf(DivideByZero, nil, "r%d is zero", e.op.b)
	}
	e.alu(e.reg(e.op.a)/b, false)
	return nil
}

func (e *Engine) mod() error {
	b := e.reg(e.op.b)
	if b == 0 {
		return e.trapf(DivideByZero, nil, "r%d is zero", e.op.b)
	}
	e.alu(e.reg(e.op.a)%b, false)
	return nil
}

func (e *Engine) and() error {
	e.alu(e.reg(e.op.a)&e.reg(e.op.b), false)
	return nil
}

func (e *Engine) or() error {
	e.alu(e.reg(e.op.a)|e.reg(e.op.b), false)
	return nil
}

func (e *Engine) xor() error {
	e.alu(e.reg(e.op.a)^e.reg(e.op.b), false)
	return nil
}

// shl shifts by the low four bits of rs. C is the last bit shifted out.
func (e *Engine) shl() error {
	a, n := e.reg(e.op.a), e.reg(e.op.b)&0x0f
	carry := n > 0 && (a>>(16-n))&1 == 1
	e.alu(a<<n, carry)
	return nil
}

func (e *Engine) shr() error {
	a, n := e.reg(e.op.a), e.reg(e.op.b)&0x0f
	carry := n > 0 && (a>>(n-1))&1 == 1
	e.alu(a>>n, carry)
	return nil
}

func (e *Engine) not() error {
	e.alu(^e.reg(e.op.a), false)
	return nil
}

func (e *Engine) compare(a, b uint16) {
	e.setFlagsZN(a - b)
	e.setFlag(flagC, a < b)
}

func (e *Engine) cmp() error {
	e.compare(e.reg(e.op.a), e.reg(e.op.b))
	return nil
}

func (e *Engine) cmpi() error {
	e.compare(e.reg(e.op.a), e.op.imm)
	return nil
}

// inc and dec leave C alone.
func (e *Engine) inc() error {
	r := e.reg(e.op.a) + 1
	e.setReg(e.op.a, r)
	e.setFlagsZN(r)
	return nil
}

func (e *Engine) dec() error {
	r := e.reg(e.op.a) - 1
	e.setReg(e.op.a, r)
	e.setFlagsZN(r)
	return nil
}

func (e *Engine) jmpIf(condition bool) error {
	if condition {
		e.ctx.PC = e.op.imm
	}
	return nil
}

func (e *Engine) jmp() error { return e.jmpIf(true) }
func (e *Engine) jz() error  { return e.jmpIf(e.getFlag(flagZ)) }
func (e *Engine) jnz() error { return e.jmpIf(!e.getFlag(flagZ)) }
func (e *Engine) jc() error  { return e.jmpIf(e.getFlag(flagC)) }
func (e *Engine) jnc() error { return e.jmpIf(!e.getFlag(flagC)) }

func (e *Engine) call() error {
	if err := e.pushCall(e.ctx.PC); err != nil {
		return err
	}
	e.ctx.PC = e.op.imm
	return nil
}

func (e *Engine) ret() error {
	addr, err := e.popCall()
	if err != nil {
		return err
	}
	e.ctx.PC = addr
	return nil
}

func (e *Engine) jmpr() error {
	e.ctx.PC = e.reg(e.op.a)
	return nil
}

func (e *Engine) pushReg() error {
	return e.push(e.reg(e.op.a))
}

func (e *Engine) popReg() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	e.setReg(e.op.a, v)
	return nil
}

// bankErr turns a failed bank access into a memory fault.
func (e *Engine) bankErr(err error) error {
	if err != nil {
		return e.memoryFault(err)
	}
	return nil
}

func (e *Engine) vset() error {
	return e.bankErr(e.bank.Video.SetColor(int(e.reg(e.op.a)), int(e.reg(e.op.b)), int(e.reg(e.op.c))))
}

func (e *Engine) vink() error {
	return e.bankErr(e.bank.Video.SetInk(int(e.reg(e.op.a)), int(e.reg(e.op.b)), int(e.reg(e.op.c))))
}

func (e *Engine) vgly() error {
	return e.bankErr(e.bank.Video.SetGlyph(int(e.reg(e.op.a)), int(e.reg(e.op.b)), int(e.reg(e.op.c))))
}

func (e *Engine) vget() error {
	c, err := e.bank.Video.Color(int(e.reg(e.op.a)), int(e.reg(e.op.b)))
	if err != nil {
		return e.memoryFault(err)
	}
	e.setReg(e.op.c, uint16(c))
	return nil
}

func (e *Engine) vclr() error {
	return e.bankErr(e.bank.Video.Clear(int(e.reg(e.op.a))))
}

func (e *Engine) input() error {
	e.setReg(e.op.a, e.bank.Input.Buttons())
	return nil
}

// axis loads the axis selected by rs, sign extended.
func (e *Engine) axis() error {
	v, err := e.bank.Input.Axis(int(e.reg(e.op.b)))
	if err != nil {
		return e.memoryFault(err)
	}
	e.setReg(e.op.a, uint16(int16(v)))
	return nil
}

func (e *Engine) splay() error {
	return e.bankErr(e.bank.Audio.Play(int(e.reg(e.op.a)), int(e.reg(e.op.b))))
}

func (e *Engine) sstop() error {
	return e.bankErr(e.bank.Audio.Stop(int(e.reg(e.op.a))))
}

func (e *Engine) svol() error {
	return e.bankErr(e.bank.Audio.SetVolume(int(e.reg(e.op.a)), int(e.reg(e.op.b))))
}

func (e *Engine) spitch() error {
	return e.bankErr(e.bank.Audio.SetStep(int(e.reg(e.op.a)), e.reg(e.op.b)))
}

func (e *Engine) sloop() error {
	return e.bankErr(e.bank.Audio.SetLoop(int(e.reg(e.op.a)), e.reg(e.op.b) != 0))
}

// mplay starts the music from its first row, or stops it when rf is zero.
func (e *Engine) mplay() error {
	if e.reg(e.op.a) == 0 {
		e.bank.Audio.StopMusic()
		return nil
	}
	return e.bankErr(e.bank.Audio.PlayMusic())
}

// rnd steps a 16-bit xorshift generator.
func (e *Engine) rnd() error {
	x := e.ctx.Rand
	x ^= x << 7
	x ^= x >> 9
	x ^= x << 8
	e.ctx.Rand = x
	e.setReg(e.op.a, x)
	return nil
}

func (e *Engine) ticks() error {
	e.setReg(e.op.a, uint16(e.ctx.Ticks))
	return nil
}
