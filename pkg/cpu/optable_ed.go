package cpu

import "fmt"

// fillEDTable populates the ED page. Slots the Z80 leaves undefined stay
// empty and surface as InvalidOpcodeError.
func fillEDTable(t *opTable) {
	def := func(op uint8, name string, fn opExec) {
		t.entries[op] = opEntry{name: name, exec: fn}
	}

	// IN r,(C) / OUT (C),r. Slot 6 is the flags-only input and the
	// OUT (C),0 forms.
	for y := 0; y < 8; y++ {
		y := y
		op := uint8(0x40 | y<<3)
		if y == 6 {
			def(op, "IN (C)", func(c *CPU) error {
				v, err := c.io.read(c.reg.C)
				if err != nil {
					return err
				}
				c.inFlags(v)
				return nil
			})
			def(op|0x01, "OUT (C),0", func(c *CPU) error {
				return c.io.write(c.reg.C, 0)
			})
		} else {
			reg := realRegs8[y]
			def(op, fmt.Sprintf("IN %s,(C)", reg.name), func(c *CPU) error {
				v, err := c.io.read(c.reg.C)
				if err != nil {
					return err
				}
				c.inFlags(v)
				reg.set(c, v)
				return nil
			})
			def(op|0x01, fmt.Sprintf("OUT (C),%s", reg.name), func(c *CPU) error {
				return c.io.write(c.reg.C, reg.get(c))
			})
		}
	}

	// 16-bit carry arithmetic and direct-address pair loads
	pairs := [4]*operand16{opBC, opDE, opHL, opSP}
	for p, rr := range pairs {
		rr := rr
		op := uint8(0x40 | p<<4)
		def(op|0x02, fmt.Sprintf("SBC HL,%s", rr.name), func(c *CPU) error {
			c.sbc16(rr.get(c))
			return nil
		})
		def(op|0x0A, fmt.Sprintf("ADC HL,%s", rr.name), func(c *CPU) error {
			c.adc16(rr.get(c))
			return nil
		})
		def(op|0x03, fmt.Sprintf("LD (nn),%s", rr.name), func(c *CPU) error {
			c.mem.WriteWord(c.readOperandWord(), rr.get(c))
			return nil
		})
		def(op|0x0B, fmt.Sprintf("LD %s,(nn)", rr.name), func(c *CPU) error {
			rr.set(c, c.mem.ReadWord(c.readOperandWord()))
			return nil
		})
	}

	// NEG, RETN/RETI and IM occupy every repetition of their row.
	neg := func(c *CPU) error {
		a := c.reg.A
		c.reg.A = 0
		c.sub8(a)
		return nil
	}
	retn := func(c *CPU) error {
		c.reg.PC = c.pop()
		return nil
	}
	for _, op := range []uint8{0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C} {
		def(op, "NEG", neg)
	}
	for _, op := range []uint8{0x45, 0x55, 0x65, 0x75} {
		def(op, "RETN", retn)
	}
	for _, op := range []uint8{0x4D, 0x5D, 0x6D, 0x7D} {
		def(op, "RETI", retn)
	}
	im := func(mode uint8) opExec {
		return func(c *CPU) error {
			c.reg.IM = mode
			return nil
		}
	}
	for _, op := range []uint8{0x46, 0x4E, 0x66, 0x6E} {
		def(op, "IM 0", im(0))
	}
	for _, op := range []uint8{0x56, 0x76} {
		def(op, "IM 1", im(1))
	}
	for _, op := range []uint8{0x5E, 0x7E} {
		def(op, "IM 2", im(2))
	}

	// Interrupt vector base and refresh counter transfers. The loads into A
	// expose IFF through P/V.
	def(0x47, "LD I,A", func(c *CPU) error {
		c.reg.I = c.reg.A
		return nil
	})
	def(0x4F, "LD R,A", func(c *CPU) error {
		c.reg.R = c.reg.A
		return nil
	})
	def(0x57, "LD A,I", func(c *CPU) error {
		r := &c.reg
		r.A = r.I
		r.F = r.F&FlagC | Sz53Table[r.A] | flagIf(r.IFF, FlagV)
		return nil
	})
	def(0x5F, "LD A,R", func(c *CPU) error {
		r := &c.reg
		r.A = r.R
		r.F = r.F&FlagC | Sz53Table[r.A] | flagIf(r.IFF, FlagV)
		return nil
	})

	// BCD nibble rotation through (HL)
	def(0x67, "RRD", func(c *CPU) error {
		r := &c.reg
		addr := r.HL()
		m := c.mem.ReadByte(addr)
		aLow := r.A & 0x0F
		r.A = (r.A & 0xF0) | (m & 0x0F)
		c.mem.WriteByte(addr, aLow<<4|m>>4)
		r.F = (r.F & FlagC) | Sz53pTable[r.A]
		return nil
	})
	def(0x6F, "RLD", func(c *CPU) error {
		r := &c.reg
		addr := r.HL()
		m := c.mem.ReadByte(addr)
		aLow := r.A & 0x0F
		r.A = (r.A & 0xF0) | (m >> 4)
		c.mem.WriteByte(addr, m<<4|aLow)
		r.F = (r.F & FlagC) | Sz53pTable[r.A]
		return nil
	})

	// Block transfer, search and I/O. The repeat forms run one step and
	// rewind PC by 2 while their counter says continue, so each iteration is
	// observable as a separate Fetch/Execute.
	def(0xA0, "LDI", func(c *CPU) error { c.ldBlock(1); return nil })
	def(0xA8, "LDD", func(c *CPU) error { c.ldBlock(0xFFFF); return nil })
	def(0xB0, "LDIR", func(c *CPU) error {
		c.ldBlock(1)
		if c.reg.BC() != 0 {
			c.reg.PC -= 2
		}
		return nil
	})
	def(0xB8, "LDDR", func(c *CPU) error {
		c.ldBlock(0xFFFF)
		if c.reg.BC() != 0 {
			c.reg.PC -= 2
		}
		return nil
	})

	def(0xA1, "CPI", func(c *CPU) error { c.cpBlock(1); return nil })
	def(0xA9, "CPD", func(c *CPU) error { c.cpBlock(0xFFFF); return nil })
	def(0xB1, "CPIR", func(c *CPU) error {
		c.cpBlock(1)
		if c.reg.BC() != 0 && c.reg.F&FlagZ == 0 {
			c.reg.PC -= 2
		}
		return nil
	})
	def(0xB9, "CPDR", func(c *CPU) error {
		c.cpBlock(0xFFFF)
		if c.reg.BC() != 0 && c.reg.F&FlagZ == 0 {
			c.reg.PC -= 2
		}
		return nil
	})

	def(0xA2, "INI", func(c *CPU) error { return c.inBlock(1) })
	def(0xAA, "IND", func(c *CPU) error { return c.inBlock(0xFFFF) })
	def(0xB2, "INIR", func(c *CPU) error {
		if err := c.inBlock(1); err != nil {
			return err
		}
		if c.reg.B != 0 {
			c.reg.PC -= 2
		}
		return nil
	})
	def(0xBA, "INDR", func(c *CPU) error {
		if err := c.inBlock(0xFFFF); err != nil {
			return err
		}
		if c.reg.B != 0 {
			c.reg.PC -= 2
		}
		return nil
	})

	def(0xA3, "OUTI", func(c *CPU) error { return c.outBlock(1) })
	def(0xAB, "OUTD", func(c *CPU) error { return c.outBlock(0xFFFF) })
	def(0xB3, "OTIR", func(c *CPU) error {
		if err := c.outBlock(1); err != nil {
			return err
		}
		if c.reg.B != 0 {
			c.reg.PC -= 2
		}
		return nil
	})
	def(0xBB, "OTDR", func(c *CPU) error {
		if err := c.outBlock(0xFFFF); err != nil {
			return err
		}
		if c.reg.B != 0 {
			c.reg.PC -= 2
		}
		return nil
	})
}

// ldBlock is one LDI/LDD step. dir is 1 or 0xFFFF (-1 mod 2^16).
// Undocumented bits 3/5 track (transferred byte + A).
func (c *CPU) ldBlock(dir uint16) {
	r := &c.reg
	v := c.mem.ReadByte(r.HL())
	c.mem.WriteByte(r.DE(), v)
	r.SetHL(r.HL() + dir)
	r.SetDE(r.DE() + dir)
	r.SetBC(r.BC() - 1)
	n := v + r.A
	f := r.F & (FlagC | FlagZ | FlagS)
	f |= flagIf(r.BC() != 0, FlagV)
	f |= n&Flag3 | flagIf(n&0x02 != 0, Flag5)
	r.F = f
}

// cpBlock is one CPI/CPD step: a compare against (HL) with BC bookkeeping.
// Bits 3/5 come from A - (HL) - H, per the undocumented behavior.
func (c *CPU) cpBlock(dir uint16) {
	r := &c.reg
	v := c.mem.ReadByte(r.HL())
	res := r.A - v
	half := r.A&0x0F < v&0x0F
	r.SetHL(r.HL() + dir)
	r.SetBC(r.BC() - 1)
	f := r.F&FlagC | FlagN | res&FlagS
	f |= flagIf(r.BC() != 0, FlagV)
	f |= flagIf(half, FlagH)
	f |= flagIf(res == 0, FlagZ)
	n := res
	if half {
		n--
	}
	f |= n&Flag3 | flagIf(n&0x02 != 0, Flag5)
	r.F = f
}

// inBlock is one INI/IND step. The port counter byte for the undocumented
// flag sum is C after the step direction is applied.
func (c *CPU) inBlock(dir uint16) error {
	r := &c.reg
	v, err := c.io.read(r.C)
	if err != nil {
		return err
	}
	c.mem.WriteByte(r.HL(), v)
	r.B--
	r.SetHL(r.HL() + dir)
	sum := uint16(v) + uint16(r.C+uint8(dir))
	f := Sz53Table[r.B] | ParityTable[uint8(sum&0x07)^r.B]
	f |= flagIf(v&0x80 != 0, FlagN)
	f |= flagIf(sum > 0xFF, FlagH|FlagC)
	r.F = f
	return nil
}

// outBlock is one OUTI/OUTD step. B decrements before the port write; the
// undocumented flag sum uses L after HL has moved.
func (c *CPU) outBlock(dir uint16) error {
	r := &c.reg
	v := c.mem.ReadByte(r.HL())
	r.B--
	if err := c.io.write(r.C, v); err != nil {
		return err
	}
	r.SetHL(r.HL() + dir)
	sum := uint16(v) + uint16(r.L)
	f := Sz53Table[r.B] | ParityTable[uint8(sum&0x07)^r.B]
	f |= flagIf(v&0x80 != 0, FlagN)
	f |= flagIf(sum > 0xFF, FlagH|FlagC)
	r.F = f
	return nil
}
