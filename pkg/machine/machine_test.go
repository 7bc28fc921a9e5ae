package machine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oisee/z80emu/pkg/cpu"
)

func TestRunUntilHalt(t *testing.T) {
	m := New()
	// LD A,0x21; OUT (0),A; HALT
	require.NoError(t, m.LoadBytes([]byte{0x3E, 0x21, 0xD3, 0x00, 0x76}, 0))

	require.NoError(t, m.Run())
	assert.True(t, m.Halted())
	assert.Equal(t, 3, m.Steps())
	assert.Equal(t, uint16(5), m.CPU.Registers().PC)
}

func TestStepBudget(t *testing.T) {
	m := New()
	// JR -2: never halts on its own
	require.NoError(t, m.LoadBytes([]byte{0x18, 0xFE}, 0))
	m.MaxSteps = 10

	require.NoError(t, m.Run())
	assert.False(t, m.Halted())
	assert.Equal(t, 10, m.Steps())
}

func TestRunReportsInvalidOpcode(t *testing.T) {
	m := New()
	require.NoError(t, m.LoadBytes([]byte{0xED, 0x00}, 0))

	err := m.Run()
	var invalid *cpu.InvalidOpcodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "0xED00", cpu.CallChainToHex(invalid.Path))
}

func TestTrace(t *testing.T) {
	m := New()
	require.NoError(t, m.LoadBytes([]byte{0x3E, 0x07, 0x76}, 0))
	var buf bytes.Buffer
	m.Trace = &buf

	require.NoError(t, m.Run())
	assert.Contains(t, buf.String(), "PC=0000  LD A,n")
	assert.Contains(t, buf.String(), "PC=0002  HALT")
}

func TestLoadBytesBounds(t *testing.T) {
	m := New()
	assert.Error(t, m.LoadBytes(make([]byte, 0x100), 0xFFFF))
	assert.NoError(t, m.LoadBytes(make([]byte, 0x100), 0xFF00))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rom.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x76}, 0o644))

	m := New()
	require.NoError(t, m.LoadImage(path, 0x0100))
	assert.Equal(t, uint8(0x76), m.CPU.Memory().ReadByte(0x0100))
	assert.Error(t, m.LoadImage(filepath.Join(dir, "missing.bin"), 0))
}

func TestDumpRegisters(t *testing.T) {
	m := New()
	dump := m.DumpRegisters()
	assert.Contains(t, dump, "sp ffff")
	assert.Contains(t, dump, "af ffff")
	assert.Contains(t, dump, "iff true")
}

func TestConsoleOutput(t *testing.T) {
	m := New()
	// LD A,'H'; OUT (1),A; LD A,'i'; OUT (1),A; HALT
	require.NoError(t, m.LoadBytes([]byte{
		0x3E, 'H', 0xD3, 0x01,
		0x3E, 'i', 0xD3, 0x01,
		0x76,
	}, 0))
	var out bytes.Buffer
	NewConsole(strings.NewReader(""), &out).Attach(m.CPU, 1, 2)

	require.NoError(t, m.Run())
	assert.Equal(t, "Hi", out.String())
}

func TestConsoleInputAndStatus(t *testing.T) {
	m := New()
	// IN A,(2); LD (0x8000),A; IN A,(1); LD (0x8001),A; HALT
	require.NoError(t, m.LoadBytes([]byte{
		0xDB, 0x02, 0x32, 0x00, 0x80,
		0xDB, 0x01, 0x32, 0x01, 0x80,
		0x76,
	}, 0))
	var out bytes.Buffer
	NewConsole(strings.NewReader("X"), &out).Attach(m.CPU, 1, 2)

	require.NoError(t, m.Run())
	mem := m.CPU.Memory()
	assert.Equal(t, uint8(1), mem.ReadByte(0x8000), "status should report input ready")
	assert.Equal(t, uint8('X'), mem.ReadByte(0x8001))
}

func TestConsoleInputEOF(t *testing.T) {
	m := New()
	require.NoError(t, m.LoadBytes([]byte{0xDB, 0x01, 0x76}, 0))
	var out bytes.Buffer
	NewConsole(strings.NewReader(""), &out).Attach(m.CPU, 1, 2)

	require.NoError(t, m.Run())
	assert.Equal(t, uint8(0), uint8(m.CPU.Registers().AF>>8))
}

func TestPortHandlerErrorSurfaces(t *testing.T) {
	m := New()
	require.NoError(t, m.LoadBytes([]byte{0xD3, 0x07}, 0))
	jammed := errors.New("jammed")
	m.CPU.AddPortHandler(0x07, func(cpu.PortMode, uint8) (uint8, error) {
		return 0, jammed
	})

	err := m.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, jammed)
}
