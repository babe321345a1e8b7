package vm

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//go:embed opcode_matrix.csv
var opcodeMatrixFileData []byte

type opcodeRecord struct {
	opcode   uint8
	mnemonic string
	mode     addrMode
	cycles   uint8
}

// opcodeMatrix is the parsed csv, in file order.
var opcodeMatrix []opcodeRecord

// maxOpcodeCycles is the cost of the most expensive instruction.
var maxOpcodeCycles uint32

func init() {
	records, err := parseOpcodeMatrix(opcodeMatrixFileData)
	if err != nil {
		panic(fmt.Sprintf("vm: %s", err))
	}
	opcodeMatrix = records
	for _, rec := range records {
		maxOpcodeCycles = max(maxOpcodeCycles, uint32(rec.cycles))
	}
}

func parseOpcodeMatrix(data []byte) ([]opcodeRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	_, _ = r.Read() // skip header

	r.ReuseRecord = true

	var records []opcodeRecord
	seen := map[uint8]bool{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("couldn't read data from csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if len(record) != 4 {
			return nil, fmt.Errorf("invalid format for the record: %s: must be 4 parts", strings.Join(record, string(r.Comma)))
		}

		opcodeByte, err := strconv.ParseUint(record[0], 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid format for opcode byte: %w", err)
		}
		if seen[uint8(opcodeByte)] {
			return nil, fmt.Errorf("opcode %02X is defined twice", opcodeByte)
		}
		seen[uint8(opcodeByte)] = true

		mnemonic := strings.ToUpper(record[1])
		if _, ok := opcodeFuncs[mnemonic]; !ok {
			return nil, fmt.Errorf("invalid format for mnemonic: no implementation for %q", mnemonic)
		}

		addressMode, err := addrModeFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("invalid format for address mode: %w", err)
		}

		cycles, err := strconv.ParseUint(record[3], 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid format for opcode cycles: %w", err)
		}
		if cycles == 0 {
			return nil, fmt.Errorf("opcode %02X costs no cycles", opcodeByte)
		}

		records = append(records, opcodeRecord{
			opcode:   uint8(opcodeByte),
			mnemonic: mnemonic,
			mode:     addressMode,
			cycles:   uint8(cycles),
		})
	}

	return records, nil
}

// initInstructions binds the opcode matrix to the engine.
func (e *Engine) initInstructions() {
	for _, rec := range opcodeMatrix {
		fn := opcodeFuncs[rec.mnemonic]
		e.instrs[rec.opcode] = instruction{
			name:   rec.mnemonic,
			mode:   rec.mode,
			fn:     func() error { return fn(e) },
			cycles: rec.cycles,
		}
	}
}

// OpcodeInfo describes one instruction of the instruction set.
type OpcodeInfo struct {
	Opcode   uint8
	Mnemonic string
	Mode     string
	Size     int
	Cycles   uint8
}

// Instructions lists the instruction set in opcode order.
func Instructions() []OpcodeInfo {
	infos := make([]OpcodeInfo, 0, len(opcodeMatrix))
	for _, rec := range opcodeMatrix {
		infos = append(infos, OpcodeInfo{
			Opcode:   rec.opcode,
			Mnemonic: rec.mnemonic,
			Mode:     rec.mode.String(),
			Size:     rec.mode.size(),
			Cycles:   rec.cycles,
		})
	}
	return infos
}
