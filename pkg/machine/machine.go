// Package machine wraps the cpu core with the host-side plumbing a runnable
// system needs: image loading, a step/run driver, console ports, config
// files, scripting and state snapshots.
package machine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oisee/z80emu/pkg/cpu"
)

// Machine drives one CPU instance. Zero MaxSteps means no step budget.
type Machine struct {
	CPU      *cpu.CPU
	MaxSteps int
	Trace    io.Writer

	steps  int
	halted bool
}

// New builds a machine around a cold CPU with zeroed memory.
func New() *Machine {
	return &Machine{CPU: cpu.New(nil)}
}

// LoadImage reads a raw binary file into memory at org. The file must fit in
// the remaining address space; the rest of memory is left as-is.
func (m *Machine) LoadImage(path string, org uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	return m.LoadBytes(data, org)
}

// LoadBytes copies a program into memory at org.
func (m *Machine) LoadBytes(data []byte, org uint16) error {
	if len(data) > cpu.MemorySize-int(org) {
		return fmt.Errorf("image of %d bytes does not fit at 0x%04X", len(data), org)
	}
	mem := m.CPU.Memory()
	for i, b := range data {
		mem.WriteByte(org+uint16(i), b)
	}
	return nil
}

// Steps reports how many instructions have executed so far.
func (m *Machine) Steps() int { return m.steps }

// Halted reports whether the last step executed HALT.
func (m *Machine) Halted() bool { return m.halted }

// Step fetches and executes one instruction, emitting one trace line when a
// trace writer is attached. cpu.ErrHalted marks the machine halted and is
// returned unchanged.
func (m *Machine) Step() error {
	pc := m.CPU.Registers().PC
	if err := m.CPU.Fetch(); err != nil {
		return err
	}
	if m.Trace != nil {
		fmt.Fprintf(m.Trace, "PC=%04X  %s\n", pc, m.CPU.Mnemonic())
	}
	err := m.CPU.Execute()
	if err == nil || errors.Is(err, cpu.ErrHalted) {
		m.steps++
	}
	if errors.Is(err, cpu.ErrHalted) {
		m.halted = true
	}
	return err
}

// Run steps until HALT, an error, or the step budget runs out. A HALT is a
// normal stop and returns nil; everything else is returned to the caller.
func (m *Machine) Run() error {
	for m.MaxSteps == 0 || m.steps < m.MaxSteps {
		err := m.Step()
		if err == nil {
			continue
		}
		if errors.Is(err, cpu.ErrHalted) {
			return nil
		}
		return err
	}
	return nil
}

// DumpRegisters renders the architectural state on two lines, flags spelled
// out in SZ5H3PNC order.
func (m *Machine) DumpRegisters() string {
	s := m.CPU.Registers()
	f := uint8(s.AF)
	flagNames := "SZ5H3PNC"
	flags := make([]byte, 8)
	for i := 0; i < 8; i++ {
		if f&(0x80>>i) != 0 {
			flags[i] = flagNames[i]
		} else {
			flags[i] = '-'
		}
	}
	return fmt.Sprintf(
		"af %04x bc %04x de %04x hl %04x ix %04x iy %04x  f %s\n"+
			"pc %04x sp %04x i %02x r %02x im %d iff %v",
		s.AF, s.BC, s.DE, s.HL, s.IX, s.IY, flags,
		s.PC, s.SP, s.I, s.R, s.IM, s.IFF)
}
