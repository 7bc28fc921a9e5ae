package cpu

import (
	"errors"
	"testing"
)

func loadProgram(bytes ...uint8) *CPU {
	c := New(nil)
	copy(c.mem[:], bytes)
	return c
}

func mustStep(t *testing.T, c *CPU) {
	t.Helper()
	if err := c.Fetch(); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := c.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestCallChainToHex(t *testing.T) {
	tests := []struct {
		path []uint8
		want string
	}{
		{[]uint8{0x00}, "0x00"},
		{[]uint8{0xED, 0x5E}, "0xED5E"},
		{[]uint8{0xFD, 0xCB, 0x10}, "0xFDCB10"},
	}
	for _, tc := range tests {
		if got := CallChainToHex(tc.path); got != tc.want {
			t.Errorf("CallChainToHex(%v) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

// TestIndexedCBDisplacement exercises the DD CB / FD CB quirk: the
// displacement byte precedes the final opcode byte.
func TestIndexedCBDisplacement(t *testing.T) {
	c := loadProgram(0xFD, 0xCB, 0xAB, 0x10, 0x76)
	if err := c.Fetch(); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := CallChainToHex(c.prep.path); got != "0xFDCB10" {
		t.Errorf("decoder path = %s, want 0xFDCB10", got)
	}
	if !c.prep.hasDisp {
		t.Fatal("displacement not captured")
	}
	if c.prep.disp != -85 {
		t.Errorf("displacement = %d, want -85", c.prep.disp)
	}
	if pc := c.reg.PC; pc != 4 {
		t.Errorf("PC = %04X, want 0004", pc)
	}
}

func TestExecuteWithoutFetch(t *testing.T) {
	c := loadProgram(0x00)
	if err := c.Execute(); !errors.Is(err, ErrNotFetched) {
		t.Errorf("Execute without Fetch: got %v, want ErrNotFetched", err)
	}

	// The prepared instruction is consumed by Execute.
	if err := c.Fetch(); err != nil {
		t.Fatal(err)
	}
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if err := c.Execute(); !errors.Is(err, ErrNotFetched) {
		t.Errorf("second Execute: got %v, want ErrNotFetched", err)
	}
}

func TestInvalidOpcode(t *testing.T) {
	c := loadProgram(0xED, 0x3F)
	err := c.Fetch()
	var invalid *InvalidOpcodeError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidOpcodeError", err)
	}
	if got := CallChainToHex(invalid.Path); got != "0xED3F" {
		t.Errorf("path = %s, want 0xED3F", got)
	}
	// A failed fetch leaves nothing prepared.
	if err := c.Execute(); !errors.Is(err, ErrNotFetched) {
		t.Errorf("Execute after failed fetch: got %v, want ErrNotFetched", err)
	}
}

// TestPrefixChain verifies that in a DD DD ... chain only the last prefix
// takes effect.
func TestPrefixChain(t *testing.T) {
	// DD DD FD 21 34 12 → LD IY,0x1234
	c := loadProgram(0xDD, 0xDD, 0xFD, 0x21, 0x34, 0x12)
	mustStep(t, c)
	if iy := c.reg.IY(); iy != 0x1234 {
		t.Errorf("IY = %04X, want 1234", iy)
	}
	if ix := c.reg.IX(); ix != 0 {
		t.Errorf("IX = %04X, want 0000", ix)
	}
}

// TestPrefixedNonHLInstruction: DD before an instruction that never touches
// HL behaves as a no-op prefix.
func TestPrefixedNonHLInstruction(t *testing.T) {
	c := loadProgram(0xDD, 0x04) // DD INC B
	c.reg.B = 0x41
	mustStep(t, c)
	if c.reg.B != 0x42 {
		t.Errorf("B = %02X, want 42", c.reg.B)
	}
	if pc := c.reg.PC; pc != 2 {
		t.Errorf("PC = %04X, want 0002", pc)
	}
}

// TestRefreshCounter verifies R counts one increment per byte entering the
// decoder, preserving bit 7.
func TestRefreshCounter(t *testing.T) {
	c := loadProgram(0x00, 0xDD, 0x04, 0xFD, 0xCB, 0x01, 0xC6)
	mustStep(t, c) // NOP: one byte
	if c.reg.R != 1 {
		t.Errorf("R after NOP = %d, want 1", c.reg.R)
	}
	mustStep(t, c) // DD INC B: two bytes
	if c.reg.R != 3 {
		t.Errorf("R after DD INC B = %d, want 3", c.reg.R)
	}
	mustStep(t, c) // FD CB d SET: four bytes through the decoder
	if c.reg.R != 7 {
		t.Errorf("R after FD CB = %d, want 7", c.reg.R)
	}

	// Bit 7 is preserved across the 7-bit rollover.
	c = loadProgram(0x00)
	c.reg.R = 0xFF
	mustStep(t, c)
	if c.reg.R != 0x80 {
		t.Errorf("R = %02X, want 80", c.reg.R)
	}
}

// TestMnemonics spot-checks the names attached to dispatch entries.
func TestMnemonics(t *testing.T) {
	tests := []struct {
		program []uint8
		want    string
	}{
		{[]uint8{0x00}, "NOP"},
		{[]uint8{0x41}, "LD B,C"},
		{[]uint8{0x86}, "ADD A,(HL)"},
		{[]uint8{0xDD, 0x86, 0x01}, "ADD A,(IX+d)"},
		{[]uint8{0xDD, 0x24}, "INC IXH"},
		{[]uint8{0xCB, 0x00}, "RLC B"},
		{[]uint8{0xED, 0xB0}, "LDIR"},
		{[]uint8{0xFD, 0xCB, 0x00, 0x00}, "RLC (IY+d),B"},
		{[]uint8{0xFD, 0xE9}, "JP (IY)"},
	}
	for _, tc := range tests {
		c := loadProgram(tc.program...)
		if err := c.Fetch(); err != nil {
			t.Fatalf("%v: %v", tc.program, err)
		}
		if got := c.Mnemonic(); got != tc.want {
			t.Errorf("%v: mnemonic %q, want %q", tc.program, got, tc.want)
		}
	}
}
