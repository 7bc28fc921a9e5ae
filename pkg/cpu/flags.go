package cpu

import "math/bits"

// F register bit assignments.
const (
	FlagC uint8 = 1 << iota // carry / borrow
	FlagN                   // last op was a subtract
	FlagP                   // parity (logical ops) or signed overflow (arithmetic)
	Flag3                   // undocumented, tracks result bit 3
	FlagH                   // half-carry out of bit 3 (bit 11 for 16-bit ops)
	Flag5                   // undocumented, tracks result bit 5
	FlagZ                   // result is zero
	FlagS                   // result bit 7
)

// FlagV aliases the parity bit for arithmetic overflow.
const FlagV = FlagP

// Sz53Table holds the S, Z and undocumented 3/5 bits for every result byte;
// Sz53pTable adds the parity bit, and ParityTable holds parity alone.
// Nearly every instruction assembles F from one of these plus a handful of
// computed bits, so they are built once up front.
var (
	Sz53Table   [256]uint8
	Sz53pTable  [256]uint8
	ParityTable [256]uint8
)

func init() {
	for v := 0; v < 256; v++ {
		f := uint8(v) & (FlagS | Flag5 | Flag3)
		if v == 0 {
			f |= FlagZ
		}
		Sz53Table[v] = f
		if bits.OnesCount8(uint8(v))%2 == 0 {
			ParityTable[v] = FlagP
		}
		Sz53pTable[v] = f | ParityTable[v]
	}
}

// flagIf returns f when cond holds, 0 otherwise. Keeps the F assembly in the
// ALU helpers readable.
func flagIf(cond bool, f uint8) uint8 {
	if cond {
		return f
	}
	return 0
}
