// Package asm assembles SN-50 programs from text.
//
// One statement per line. Labels end with a colon, comments start with a
// semicolon. Numbers are decimal, $hex or 0xhex; a label or .equ name can
// stand wherever a number can.
//
//	start:
//	    LDI  r1, 7
//	    VSET r0, r0, r1
//	    WAIT
//	    JMP  start
//	    .byte 1, 2, 3
//	    .word $1234, start
//	    .equ  RED, 8
package asm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/profile"
	"github.com/nevisdale/sn50/internal/vm"
)

// Error points at the source line that failed to assemble.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type statement struct {
	line     int
	mnemonic string
	args     []string
	addr     int
}

var instructions = func() map[string]vm.OpcodeInfo {
	m := map[string]vm.OpcodeInfo{}
	for _, info := range vm.Instructions() {
		m[info.Mnemonic] = info
	}
	return m
}()

// Assemble turns src into program bytes starting at address 0.
func Assemble(src string) ([]byte, error) {
	symbols := map[string]int{}
	var stmts []statement

	// first pass: addresses and symbols
	addr := 0
	for i, raw := range strings.Split(src, "\n") {
		line := i + 1
		text := raw
		if j := strings.IndexByte(text, ';'); j >= 0 {
			text = text[:j]
		}
		text = strings.TrimSpace(text)

		for {
			j := strings.IndexByte(text, ':')
			if j < 0 {
				break
			}
			label := strings.TrimSpace(text[:j])
			if !isIdent(label) {
				return nil, &Error{Line: line, Msg: fmt.Sprintf("bad label %q", label)}
			}
			if _, ok := symbols[label]; ok {
				return nil, &Error{Line: line, Msg: fmt.Sprintf("%s is defined twice", label)}
			}
			symbols[label] = addr
			text = strings.TrimSpace(text[j+1:])
		}
		if text == "" {
			continue
		}

		mnemonic, rest := text, ""
		if j := strings.IndexAny(text, " \t"); j >= 0 {
			mnemonic, rest = text[:j], text[j+1:]
		}
		st := statement{line: line, mnemonic: strings.ToUpper(mnemonic), args: splitArgs(rest), addr: addr}

		switch st.mnemonic {
		case ".EQU":
			if len(st.args) != 2 || !isIdent(st.args[0]) {
				return nil, &Error{Line: line, Msg: ".equ needs a name and a value"}
			}
			v, err := parseNumber(st.args[1], symbols)
			if err != nil {
				return nil, &Error{Line: line, Msg: err.Error()}
			}
			symbols[st.args[0]] = v
			continue
		case ".BYTE":
			addr += len(st.args)
		case ".WORD":
			addr += 2 * len(st.args)
		default:
			info, ok := instructions[st.mnemonic]
			if !ok {
				return nil, &Error{Line: line, Msg: fmt.Sprintf("unknown mnemonic %s", mnemonic)}
			}
			addr += info.Size
		}
		if addr > profile.MaxProgramSize {
			return nil, &Error{Line: line, Msg: fmt.Sprintf("program does not fit in %d bytes", profile.MaxProgramSize)}
		}
		stmts = append(stmts, st)
	}

	// second pass: encoding
	out := make([]byte, 0, addr)
	for _, st := range stmts {
		b, err := encode(st, symbols)
		if err != nil {
			return nil, &Error{Line: st.line, Msg: err.Error()}
		}
		out = append(out, b...)
	}
	return out, nil
}

func encode(st statement, symbols map[string]int) ([]byte, error) {
	switch st.mnemonic {
	case ".BYTE":
		out := make([]byte, 0, len(st.args))
		for _, arg := range st.args {
			v, err := parseValue(arg, symbols, 0xff)
			if err != nil {
				return nil, err
			}
			out = append(out, uint8(v))
		}
		return out, nil
	case ".WORD":
		out := make([]byte, 0, 2*len(st.args))
		for _, arg := range st.args {
			v, err := parseValue(arg, symbols, 0xffff)
			if err != nil {
				return nil, err
			}
			out = append(out, uint8(v), uint8(v>>8))
		}
		return out, nil
	}

	info := instructions[st.mnemonic]
	want := map[string]int{"IMP": 0, "R": 1, "RR": 2, "RRR": 3, "RI": 2, "ABS": 1}[info.Mode]
	if len(st.args) != want {
		return nil, fmt.Errorf("%s takes %d operands, got %d", st.mnemonic, want, len(st.args))
	}

	regs := func(args ...string) ([]uint8, error) {
		out := make([]uint8, len(args))
		for i, a := range args {
			r, err := parseReg(a)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	out := []byte{info.Opcode}
	switch info.Mode {
	case "R":
		r, err := regs(st.args[0])
		if err != nil {
			return nil, err
		}
		out = append(out, r[0])
	case "RR":
		r, err := regs(st.args...)
		if err != nil {
			return nil, err
		}
		out = append(out, r[0]<<4|r[1])
	case "RRR":
		r, err := regs(st.args...)
		if err != nil {
			return nil, err
		}
		out = append(out, r[0]<<4|r[1], r[2])
	case "RI":
		r, err := regs(st.args[0])
		if err != nil {
			return nil, err
		}
		v, err := parseValue(st.args[1], symbols, 0xffff)
		if err != nil {
			return nil, err
		}
		out = append(out, r[0], uint8(v), uint8(v>>8))
	case "ABS":
		v, err := parseValue(st.args[0], symbols, 0xffff)
		if err != nil {
			return nil, err
		}
		out = append(out, uint8(v), uint8(v>>8))
	}
	return out, nil
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimSuffix(strings.TrimPrefix(p, "["), "]")
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseReg(s string) (uint8, error) {
	s = strings.ToLower(s)
	if !strings.HasPrefix(s, "r") {
		return 0, fmt.Errorf("%q is not a register", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n >= profile.NumRegisters {
		return 0, fmt.Errorf("%q is not a register", s)
	}
	return uint8(n), nil
}

// parseValue parses a number and checks it fits max. Negative numbers are
// stored in two's complement.
func parseValue(s string, symbols map[string]int, max int) (int, error) {
	v, err := parseNumber(s, symbols)
	if err != nil {
		return 0, err
	}
	if v < -(max+1)/2 || v > max {
		return 0, fmt.Errorf("%s does not fit in %d bits", s, bitsOf(max))
	}
	return v & max, nil
}

func bitsOf(max int) int {
	n := 0
	for ; max > 0; max >>= 1 {
		n++
	}
	return n
}

func parseNumber(s string, symbols map[string]int) (int, error) {
	s = strings.TrimPrefix(s, "#")
	if v, ok := symbols[s]; ok {
		return v, nil
	}

	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	switch {
	case strings.HasPrefix(digits, "$"):
		digits, base = digits[1:], 16
	case strings.HasPrefix(digits, "0x"), strings.HasPrefix(digits, "0X"):
		digits, base = digits[2:], 16
	}
	v, err := strconv.ParseInt(digits, base, 32)
	if err != nil {
		if isIdent(s) {
			return 0, fmt.Errorf("undefined symbol %s", s)
		}
		return 0, fmt.Errorf("bad number %q", s)
	}
	if neg {
		v = -v
	}
	return int(v), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// LoadFile assembles a source file into a program-only cartridge named
// after the file.
func LoadFile(path string) (*cartridge.Cartridge, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the source: %w", err)
	}
	program, err := Assemble(string(src))
	if err != nil {
		return nil, fmt.Errorf("couldn't assemble %s: %w", filepath.Base(path), err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(name) > profile.MaxNameSize {
		cut := profile.MaxNameSize
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	cart := &cartridge.Cartridge{
		Version:  cartridge.FormatVersion,
		Program:  program,
		Metadata: cartridge.Metadata{Name: name},
	}

	// round trip through the encoder so the cartridge passes the same checks
	// as a loaded one
	data, err := cartridge.Encode(cart)
	if err != nil {
		return nil, err
	}
	return cartridge.Load(data)
}
