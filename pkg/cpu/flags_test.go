package cpu

import "testing"

// TestSz53TableProperties checks every entry against the flag definitions:
// S mirrors bit 7, Z is set only for zero, bits 3/5 mirror the value, and no
// other bit is ever set.
func TestSz53TableProperties(t *testing.T) {
	for v := 0; v < 256; v++ {
		f := Sz53Table[v]
		if got, want := f&FlagS != 0, v&0x80 != 0; got != want {
			t.Errorf("Sz53Table[%02X]: S=%v, want %v", v, got, want)
		}
		if got, want := f&FlagZ != 0, v == 0; got != want {
			t.Errorf("Sz53Table[%02X]: Z=%v, want %v", v, got, want)
		}
		if f&(Flag3|Flag5) != uint8(v)&(Flag3|Flag5) {
			t.Errorf("Sz53Table[%02X]: bits 3/5 = %02X, want %02X",
				v, f&(Flag3|Flag5), uint8(v)&(Flag3|Flag5))
		}
		if f&(FlagC|FlagN|FlagP|FlagH) != 0 {
			t.Errorf("Sz53Table[%02X] = %02X sets bits outside S/Z/5/3", v, f)
		}
	}
}

// TestParityTable recomputes parity by folding bits one at a time, so the
// table's popcount-based construction is checked against an independent
// derivation.
func TestParityTable(t *testing.T) {
	for v := 0; v < 256; v++ {
		ones := 0
		for b := v; b != 0; b >>= 1 {
			ones += b & 1
		}
		want := flagIf(ones%2 == 0, FlagP)
		if ParityTable[v] != want {
			t.Errorf("ParityTable[%02X] = %02X, want %02X", v, ParityTable[v], want)
		}
	}
}

// TestSz53pComposition verifies Sz53pTable[x] == Sz53Table[x] | ParityTable[x]
// for every byte value.
func TestSz53pComposition(t *testing.T) {
	for x := 0; x < 256; x++ {
		if Sz53pTable[x] != Sz53Table[x]|ParityTable[x] {
			t.Errorf("Sz53pTable[%02X] = %02X, want %02X",
				x, Sz53pTable[x], Sz53Table[x]|ParityTable[x])
		}
	}
}
