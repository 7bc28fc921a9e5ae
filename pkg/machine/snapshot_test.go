package machine

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadStateRoundTrip(t *testing.T) {
	m := New()
	// LD A,0x33; LD (0x8000),A; HALT
	require.NoError(t, m.LoadBytes([]byte{0x3E, 0x33, 0x32, 0x00, 0x80, 0x76}, 0))
	require.NoError(t, m.Run())

	path := filepath.Join(t.TempDir(), "state.gob")
	require.NoError(t, m.SaveState(path))

	restored := New()
	require.NoError(t, restored.LoadState(path))
	assert.Equal(t, m.CPU.Registers(), restored.CPU.Registers())
	assert.Equal(t, uint8(0x33), restored.CPU.Memory().ReadByte(0x8000))
}

func TestLoadStateMissingFile(t *testing.T) {
	m := New()
	assert.Error(t, m.LoadState(filepath.Join(t.TempDir(), "nope.gob")))
}

func TestWriteStateJSON(t *testing.T) {
	m := New()
	require.NoError(t, m.LoadBytes([]byte{0x76}, 0))
	require.NoError(t, m.Run())

	var buf bytes.Buffer
	require.NoError(t, m.WriteStateJSON(&buf))
	out := buf.String()
	assert.Contains(t, out, `"pc": 1`)
	assert.Contains(t, out, `"sp": 65535`)
	assert.Contains(t, out, `"steps": 1`)
	assert.Contains(t, out, `"iff": true`)
}
