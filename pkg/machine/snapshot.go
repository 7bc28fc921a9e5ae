package machine

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/oisee/z80emu/pkg/cpu"
)

// State is a complete machine image: the register snapshot plus memory.
type State struct {
	Registers cpu.Snapshot
	Memory    [cpu.MemorySize]uint8
}

// SaveState writes the machine state to a gob file.
func (m *Machine) SaveState(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st := State{Registers: m.CPU.Registers(), Memory: *m.CPU.Memory()}
	if err := gob.NewEncoder(f).Encode(&st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// LoadState restores a machine state previously written by SaveState.
func (m *Machine) LoadState(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var st State
	if err := gob.NewDecoder(f).Decode(&st); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	m.CPU.SetRegisters(st.Registers)
	copy(m.CPU.Memory()[:], st.Memory[:])
	return nil
}

// jsonState is the register dump shape for tooling; memory stays out of the
// JSON form.
type jsonState struct {
	PC    uint16 `json:"pc"`
	SP    uint16 `json:"sp"`
	AF    uint16 `json:"af"`
	BC    uint16 `json:"bc"`
	DE    uint16 `json:"de"`
	HL    uint16 `json:"hl"`
	IX    uint16 `json:"ix"`
	IY    uint16 `json:"iy"`
	AltAF uint16 `json:"af_"`
	AltBC uint16 `json:"bc_"`
	AltDE uint16 `json:"de_"`
	AltHL uint16 `json:"hl_"`
	I     uint8  `json:"i"`
	R     uint8  `json:"r"`
	IM    uint8  `json:"im"`
	IFF   bool   `json:"iff"`
	Steps int    `json:"steps"`
}

// WriteStateJSON writes an indented JSON register dump.
func (m *Machine) WriteStateJSON(w io.Writer) error {
	s := m.CPU.Registers()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonState{
		PC: s.PC, SP: s.SP,
		AF: s.AF, BC: s.BC, DE: s.DE, HL: s.HL, IX: s.IX, IY: s.IY,
		AltAF: s.AltAF, AltBC: s.AltBC, AltDE: s.AltDE, AltHL: s.AltHL,
		I: s.I, R: s.R, IM: s.IM, IFF: s.IFF,
		Steps: m.steps,
	})
}
