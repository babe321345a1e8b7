package bank

import "github.com/nevisdale/sn50/internal/profile"

// Memory is the program memory. Words are little-endian and may start at
// any address as long as both bytes are inside memory.
type Memory struct {
	data [profile.MemorySize]uint8
}

func (m *Memory) Read8(addr uint16) (uint8, error) {
	if err := checkRange(RegionMemory, int(addr), profile.MemorySize); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

func (m *Memory) Write8(addr uint16, data uint8) error {
	if err := checkRange(RegionMemory, int(addr), profile.MemorySize); err != nil {
		return err
	}
	m.data[addr] = data
	return nil
}

func (m *Memory) Read16(addr uint16) (uint16, error) {
	if err := checkRange(RegionMemory, int(addr)+1, profile.MemorySize); err != nil {
		return 0, err
	}
	return uint16(m.data[addr]) | uint16(m.data[addr+1])<<8, nil
}

func (m *Memory) Write16(addr uint16, data uint16) error {
	if err := checkRange(RegionMemory, int(addr)+1, profile.MemorySize); err != nil {
		return err
	}
	m.data[addr] = uint8(data)
	m.data[addr+1] = uint8(data >> 8)
	return nil
}

// load clears memory and copies the program to address 0.
func (m *Memory) load(program []byte) {
	m.data = [profile.MemorySize]uint8{}
	copy(m.data[:], program)
}
