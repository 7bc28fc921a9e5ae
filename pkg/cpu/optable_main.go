package cpu

import "fmt"

// The seven dispatch tables. The DD and FD pages are generated from the same
// builder as the base page, parameterized by a register view, so the
// HL→IX/IY substitution lives in a handful of operand resolvers instead of
// hundreds of duplicated leaves.
var (
	rootTable = &opTable{}
	cbTable   = &opTable{}
	edTable   = &opTable{}
	ddTable   = &opTable{}
	fdTable   = &opTable{}
	ddcbTable = &opTable{indexed: true}
	fdcbTable = &opTable{indexed: true}
)

func init() {
	fillMainTable(rootTable, hlView)
	fillMainTable(ddTable, ixView)
	fillMainTable(fdTable, iyView)
	fillCBTable(cbTable)
	fillIndexedCBTable(ddcbTable, ixView)
	fillIndexedCBTable(fdcbTable, iyView)
	fillEDTable(edTable)
}

// pairView selects which pair plays the HL role for one main-table build:
// HL itself on the base page, IX on the DD page, IY on the FD page. indexed
// views add a signed displacement to memory accesses and route their CB
// prefix to the displacement-carrying subtable.
type pairView struct {
	name    string
	memName string
	indexed bool
	cb      *opTable

	get  func(r *Registers) uint16
	set  func(r *Registers, v uint16)
	getH func(r *Registers) uint8
	setH func(r *Registers, v uint8)
	getL func(r *Registers) uint8
	setL func(r *Registers, v uint8)

	highName, lowName string
}

var hlView = &pairView{
	name: "HL", memName: "(HL)", cb: cbTable,
	get:  (*Registers).HL,
	set:  (*Registers).SetHL,
	getH: func(r *Registers) uint8 { return r.H },
	setH: func(r *Registers, v uint8) { r.H = v },
	getL: func(r *Registers) uint8 { return r.L },
	setL: func(r *Registers, v uint8) { r.L = v },
	highName: "H", lowName: "L",
}

var ixView = &pairView{
	name: "IX", memName: "(IX+d)", indexed: true, cb: ddcbTable,
	get:  (*Registers).IX,
	set:  (*Registers).SetIX,
	getH: func(r *Registers) uint8 { return r.IXH },
	setH: func(r *Registers, v uint8) { r.IXH = v },
	getL: func(r *Registers) uint8 { return r.IXL },
	setL: func(r *Registers, v uint8) { r.IXL = v },
	highName: "IXH", lowName: "IXL",
}

var iyView = &pairView{
	name: "IY", memName: "(IY+d)", indexed: true, cb: fdcbTable,
	get:  (*Registers).IY,
	set:  (*Registers).SetIY,
	getH: func(r *Registers) uint8 { return r.IYH },
	setH: func(r *Registers, v uint8) { r.IYH = v },
	getL: func(r *Registers) uint8 { return r.IYL },
	setL: func(r *Registers, v uint8) { r.IYL = v },
	highName: "IYH", lowName: "IYL",
}

// memAddr resolves the view's memory operand. Indexed views consume the
// displacement byte from the instruction stream here, so it is always read
// before any immediate that follows it.
func (v *pairView) memAddr(c *CPU) uint16 {
	if !v.indexed {
		return v.get(&c.reg)
	}
	return v.get(&c.reg) + signExtend(c.readOperand())
}

// memAddrPrep resolves the memory operand from the displacement captured by
// the decoder (DDCB/FDCB pages only).
func (v *pairView) memAddrPrep(c *CPU) uint16 {
	return v.get(&c.reg) + uint16(int16(c.prep.disp))
}

// operand8 is a resolvable 8-bit register operand.
type operand8 struct {
	name string
	get  func(c *CPU) uint8
	set  func(c *CPU, v uint8)
}

// realRegs8 is the B,C,D,E,H,L,-,A operand row with the true H and L. Slot 6
// (the memory operand) is left nil; builders special-case it.
var realRegs8 = [8]*operand8{
	{name: "B", get: func(c *CPU) uint8 { return c.reg.B }, set: func(c *CPU, v uint8) { c.reg.B = v }},
	{name: "C", get: func(c *CPU) uint8 { return c.reg.C }, set: func(c *CPU, v uint8) { c.reg.C = v }},
	{name: "D", get: func(c *CPU) uint8 { return c.reg.D }, set: func(c *CPU, v uint8) { c.reg.D = v }},
	{name: "E", get: func(c *CPU) uint8 { return c.reg.E }, set: func(c *CPU, v uint8) { c.reg.E = v }},
	{name: "H", get: func(c *CPU) uint8 { return c.reg.H }, set: func(c *CPU, v uint8) { c.reg.H = v }},
	{name: "L", get: func(c *CPU) uint8 { return c.reg.L }, set: func(c *CPU, v uint8) { c.reg.L = v }},
	nil,
	{name: "A", get: func(c *CPU) uint8 { return c.reg.A }, set: func(c *CPU, v uint8) { c.reg.A = v }},
}

// viewRegs8 is the operand row with H and L replaced by the view's halves
// (IXH/IXL on the DD page and so on). Used whenever the instruction does not
// also touch the memory operand; instructions that do keep the real H and L.
func viewRegs8(v *pairView) [8]*operand8 {
	row := realRegs8
	row[4] = &operand8{
		name: v.highName,
		get:  func(c *CPU) uint8 { return v.getH(&c.reg) },
		set:  func(c *CPU, val uint8) { v.setH(&c.reg, val) },
	}
	row[5] = &operand8{
		name: v.lowName,
		get:  func(c *CPU) uint8 { return v.getL(&c.reg) },
		set:  func(c *CPU, val uint8) { v.setL(&c.reg, val) },
	}
	return row
}

// operand16 is a resolvable 16-bit register operand.
type operand16 struct {
	name string
	get  func(c *CPU) uint16
	set  func(c *CPU, v uint16)
}

var (
	opBC = &operand16{name: "BC", get: func(c *CPU) uint16 { return c.reg.BC() }, set: func(c *CPU, v uint16) { c.reg.SetBC(v) }}
	opDE = &operand16{name: "DE", get: func(c *CPU) uint16 { return c.reg.DE() }, set: func(c *CPU, v uint16) { c.reg.SetDE(v) }}
	opHL = &operand16{name: "HL", get: func(c *CPU) uint16 { return c.reg.HL() }, set: func(c *CPU, v uint16) { c.reg.SetHL(v) }}
	opSP = &operand16{name: "SP", get: func(c *CPU) uint16 { return c.reg.SP }, set: func(c *CPU, v uint16) { c.reg.SP = v }}
	opAF = &operand16{name: "AF", get: func(c *CPU) uint16 { return c.reg.AF() }, set: func(c *CPU, v uint16) { c.reg.SetAF(v) }}
)

func viewPair(v *pairView) *operand16 {
	return &operand16{
		name: v.name,
		get:  func(c *CPU) uint16 { return v.get(&c.reg) },
		set:  func(c *CPU, val uint16) { v.set(&c.reg, val) },
	}
}

// condition is one of the eight branch predicates (NZ,Z,NC,C,PO,PE,P,M in
// encoding order).
type condition struct {
	name string
	met  func(r *Registers) bool
}

var conditions = [8]condition{
	{"NZ", func(r *Registers) bool { return r.F&FlagZ == 0 }},
	{"Z", func(r *Registers) bool { return r.F&FlagZ != 0 }},
	{"NC", func(r *Registers) bool { return r.F&FlagC == 0 }},
	{"C", func(r *Registers) bool { return r.F&FlagC != 0 }},
	{"PO", func(r *Registers) bool { return r.F&FlagP == 0 }},
	{"PE", func(r *Registers) bool { return r.F&FlagP != 0 }},
	{"P", func(r *Registers) bool { return r.F&FlagS == 0 }},
	{"M", func(r *Registers) bool { return r.F&FlagS != 0 }},
}

// fillMainTable populates one 256-entry main page for the given view.
func fillMainTable(t *opTable, view *pairView) {
	def := func(op uint8, name string, fn opExec) {
		t.entries[op] = opEntry{name: name, exec: fn}
	}
	regs := viewRegs8(view)
	vp := viewPair(view)
	pairs := [4]*operand16{opBC, opDE, vp, opSP}
	stackPairs := [4]*operand16{opBC, opDE, vp, opAF}

	def(0x00, "NOP", func(c *CPU) error { return nil })

	// 16-bit immediate loads, INC/DEC rr, ADD view,rr
	for p, rr := range pairs {
		rr := rr
		op := uint8(p << 4)
		def(op|0x01, fmt.Sprintf("LD %s,nn", rr.name), func(c *CPU) error {
			rr.set(c, c.readOperandWord())
			return nil
		})
		def(op|0x03, fmt.Sprintf("INC %s", rr.name), func(c *CPU) error {
			rr.set(c, rr.get(c)+1)
			return nil
		})
		def(op|0x0B, fmt.Sprintf("DEC %s", rr.name), func(c *CPU) error {
			rr.set(c, rr.get(c)-1)
			return nil
		})
		def(op|0x09, fmt.Sprintf("ADD %s,%s", view.name, rr.name), func(c *CPU) error {
			vp.set(c, c.addPair(vp.get(c), rr.get(c)))
			return nil
		})
	}

	// Accumulator loads through BC/DE and direct addresses
	def(0x02, "LD (BC),A", func(c *CPU) error {
		c.mem.WriteByte(c.reg.BC(), c.reg.A)
		return nil
	})
	def(0x12, "LD (DE),A", func(c *CPU) error {
		c.mem.WriteByte(c.reg.DE(), c.reg.A)
		return nil
	})
	def(0x0A, "LD A,(BC)", func(c *CPU) error {
		c.reg.A = c.mem.ReadByte(c.reg.BC())
		return nil
	})
	def(0x1A, "LD A,(DE)", func(c *CPU) error {
		c.reg.A = c.mem.ReadByte(c.reg.DE())
		return nil
	})
	def(0x22, fmt.Sprintf("LD (nn),%s", view.name), func(c *CPU) error {
		c.mem.WriteWord(c.readOperandWord(), vp.get(c))
		return nil
	})
	def(0x2A, fmt.Sprintf("LD %s,(nn)", view.name), func(c *CPU) error {
		vp.set(c, c.mem.ReadWord(c.readOperandWord()))
		return nil
	})
	def(0x32, "LD (nn),A", func(c *CPU) error {
		c.mem.WriteByte(c.readOperandWord(), c.reg.A)
		return nil
	})
	def(0x3A, "LD A,(nn)", func(c *CPU) error {
		c.reg.A = c.mem.ReadByte(c.readOperandWord())
		return nil
	})

	// INC r / DEC r / LD r,n
	for y := 0; y < 8; y++ {
		op := uint8(y << 3)
		if y == 6 {
			def(op|0x04, fmt.Sprintf("INC %s", view.memName), func(c *CPU) error {
				addr := view.memAddr(c)
				c.mem.WriteByte(addr, c.inc8(c.mem.ReadByte(addr)))
				return nil
			})
			def(op|0x05, fmt.Sprintf("DEC %s", view.memName), func(c *CPU) error {
				addr := view.memAddr(c)
				c.mem.WriteByte(addr, c.dec8(c.mem.ReadByte(addr)))
				return nil
			})
			def(op|0x06, fmt.Sprintf("LD %s,n", view.memName), func(c *CPU) error {
				addr := view.memAddr(c)
				c.mem.WriteByte(addr, c.readOperand())
				return nil
			})
			continue
		}
		reg := regs[y]
		def(op|0x04, fmt.Sprintf("INC %s", reg.name), func(c *CPU) error {
			reg.set(c, c.inc8(reg.get(c)))
			return nil
		})
		def(op|0x05, fmt.Sprintf("DEC %s", reg.name), func(c *CPU) error {
			reg.set(c, c.dec8(reg.get(c)))
			return nil
		})
		def(op|0x06, fmt.Sprintf("LD %s,n", reg.name), func(c *CPU) error {
			reg.set(c, c.readOperand())
			return nil
		})
	}

	// Accumulator rotates and flag ops
	def(0x07, "RLCA", func(c *CPU) error { c.rlca(); return nil })
	def(0x0F, "RRCA", func(c *CPU) error { c.rrca(); return nil })
	def(0x17, "RLA", func(c *CPU) error { c.rla(); return nil })
	def(0x1F, "RRA", func(c *CPU) error { c.rra(); return nil })
	def(0x27, "DAA", func(c *CPU) error { c.daa(); return nil })
	def(0x2F, "CPL", func(c *CPU) error {
		r := &c.reg
		r.A = ^r.A
		r.F = (r.F & (FlagC | FlagP | FlagZ | FlagS)) |
			(r.A & (Flag3 | Flag5)) | FlagN | FlagH
		return nil
	})
	def(0x37, "SCF", func(c *CPU) error {
		r := &c.reg
		r.F = (r.F & (FlagP | FlagZ | FlagS)) | (r.A & (Flag3 | Flag5)) | FlagC
		return nil
	})
	def(0x3F, "CCF", func(c *CPU) error {
		r := &c.reg
		f := r.F&(FlagP|FlagZ|FlagS) | r.A&(Flag3|Flag5)
		if r.F&FlagC != 0 {
			f |= FlagH // old carry moves into H
		} else {
			f |= FlagC
		}
		r.F = f
		return nil
	})

	// Shadow-AF exchange and relative jumps
	def(0x08, "EX AF,AF'", func(c *CPU) error {
		r := &c.reg
		af := r.AF()
		r.SetAF(r.AltAF)
		r.AltAF = af
		return nil
	})
	def(0x10, "DJNZ d", func(c *CPU) error {
		d := c.readOperand()
		c.reg.B--
		if c.reg.B != 0 {
			c.reg.PC += signExtend(d)
		}
		return nil
	})
	def(0x18, "JR d", func(c *CPU) error {
		d := c.readOperand()
		c.reg.PC += signExtend(d)
		return nil
	})
	for i, cond := range conditions[:4] {
		cond := cond
		def(uint8(0x20+i*8), fmt.Sprintf("JR %s,d", cond.name), func(c *CPU) error {
			d := c.readOperand()
			if cond.met(&c.reg) {
				c.reg.PC += signExtend(d)
			}
			return nil
		})
	}

	// LD r,r' quadrant, including HALT at 0x76
	for y := 0; y < 8; y++ {
		for z := 0; z < 8; z++ {
			op := uint8(0x40 | y<<3 | z)
			switch {
			case y == 6 && z == 6:
				def(op, "HALT", func(c *CPU) error { return ErrHalted })
			case y == 6:
				// Memory destination keeps the true H/L as source.
				src := realRegs8[z]
				def(op, fmt.Sprintf("LD %s,%s", view.memName, src.name), func(c *CPU) error {
					c.mem.WriteByte(view.memAddr(c), src.get(c))
					return nil
				})
			case z == 6:
				dst := realRegs8[y]
				def(op, fmt.Sprintf("LD %s,%s", dst.name, view.memName), func(c *CPU) error {
					dst.set(c, c.mem.ReadByte(view.memAddr(c)))
					return nil
				})
			default:
				dst, src := regs[y], regs[z]
				def(op, fmt.Sprintf("LD %s,%s", dst.name, src.name), func(c *CPU) error {
					dst.set(c, src.get(c))
					return nil
				})
			}
		}
	}

	// 8-bit ALU quadrant
	aluOps := [8]struct {
		name string
		fn   func(c *CPU, v uint8)
	}{
		{"ADD A,", (*CPU).add8},
		{"ADC A,", (*CPU).adc8},
		{"SUB ", (*CPU).sub8},
		{"SBC A,", (*CPU).sbc8},
		{"AND ", (*CPU).and8},
		{"XOR ", (*CPU).xor8},
		{"OR ", (*CPU).or8},
		{"CP ", (*CPU).cp8},
	}
	for x, alu := range aluOps {
		alu := alu
		for z := 0; z < 8; z++ {
			op := uint8(0x80 | x<<3 | z)
			if z == 6 {
				def(op, alu.name+view.memName, func(c *CPU) error {
					alu.fn(c, c.mem.ReadByte(view.memAddr(c)))
					return nil
				})
				continue
			}
			src := regs[z]
			def(op, alu.name+src.name, func(c *CPU) error {
				alu.fn(c, src.get(c))
				return nil
			})
		}
		// Immediate form at 0xC6 | x<<3
		def(uint8(0xC6|x<<3), alu.name+"n", func(c *CPU) error {
			alu.fn(c, c.readOperand())
			return nil
		})
	}

	// Conditional and unconditional control flow
	for i, cond := range conditions {
		cond := cond
		op := uint8(0xC0 + i*8)
		def(op, fmt.Sprintf("RET %s", cond.name), func(c *CPU) error {
			if cond.met(&c.reg) {
				c.reg.PC = c.pop()
			}
			return nil
		})
		def(op|0x02, fmt.Sprintf("JP %s,nn", cond.name), func(c *CPU) error {
			nn := c.readOperandWord()
			if cond.met(&c.reg) {
				c.reg.PC = nn
			}
			return nil
		})
		def(op|0x04, fmt.Sprintf("CALL %s,nn", cond.name), func(c *CPU) error {
			nn := c.readOperandWord()
			if cond.met(&c.reg) {
				c.push(c.reg.PC)
				c.reg.PC = nn
			}
			return nil
		})
	}
	// RST vectors (fixed targets 0x00..0x38)
	for i := 0; i < 8; i++ {
		vec := uint16(i * 8)
		def(uint8(0xC7+i*8), fmt.Sprintf("RST %02XH", vec), func(c *CPU) error {
			c.push(c.reg.PC)
			c.reg.PC = vec
			return nil
		})
	}

	for p, rr := range stackPairs {
		rr := rr
		op := uint8(0xC1 + p*16)
		def(op, fmt.Sprintf("POP %s", rr.name), func(c *CPU) error {
			rr.set(c, c.pop())
			return nil
		})
		def(op|0x04, fmt.Sprintf("PUSH %s", rr.name), func(c *CPU) error {
			c.push(rr.get(c))
			return nil
		})
	}

	def(0xC3, "JP nn", func(c *CPU) error {
		c.reg.PC = c.readOperandWord()
		return nil
	})
	def(0xC9, "RET", func(c *CPU) error {
		c.reg.PC = c.pop()
		return nil
	})
	def(0xCD, "CALL nn", func(c *CPU) error {
		nn := c.readOperandWord()
		c.push(c.reg.PC)
		c.reg.PC = nn
		return nil
	})

	// Programmed I/O through the port table
	def(0xD3, "OUT (n),A", func(c *CPU) error {
		return c.io.write(c.readOperand(), c.reg.A)
	})
	def(0xDB, "IN A,(n)", func(c *CPU) error {
		v, err := c.io.read(c.readOperand())
		if err != nil {
			return err
		}
		c.reg.A = v
		return nil
	})

	// Exchanges. EX DE,HL and EXX are immune to DD/FD prefixes.
	def(0xD9, "EXX", func(c *CPU) error {
		r := &c.reg
		bc, de, hl := r.BC(), r.DE(), r.HL()
		r.SetBC(r.AltBC)
		r.SetDE(r.AltDE)
		r.SetHL(r.AltHL)
		r.AltBC, r.AltDE, r.AltHL = bc, de, hl
		return nil
	})
	def(0xEB, "EX DE,HL", func(c *CPU) error {
		r := &c.reg
		de := r.DE()
		r.SetDE(r.HL())
		r.SetHL(de)
		return nil
	})
	def(0xE3, fmt.Sprintf("EX (SP),%s", view.name), func(c *CPU) error {
		sp := c.reg.SP
		tmp := c.mem.ReadWord(sp)
		c.mem.WriteWord(sp, vp.get(c))
		vp.set(c, tmp)
		return nil
	})

	def(0xE9, fmt.Sprintf("JP (%s)", view.name), func(c *CPU) error {
		c.reg.PC = vp.get(c)
		return nil
	})
	def(0xF9, fmt.Sprintf("LD SP,%s", view.name), func(c *CPU) error {
		c.reg.SP = vp.get(c)
		return nil
	})

	// Interrupt latch
	def(0xF3, "DI", func(c *CPU) error {
		c.reg.IFF = false
		return nil
	})
	def(0xFB, "EI", func(c *CPU) error {
		c.reg.IFF = true
		return nil
	})

	// Prefixes. Each main page routes DD/FD to the index pages again, so in
	// a DD DD ... chain only the last prefix takes effect.
	t.entries[0xCB] = opEntry{name: "CB", sub: view.cb}
	t.entries[0xED] = opEntry{name: "ED", sub: edTable}
	t.entries[0xDD] = opEntry{name: "DD", sub: ddTable}
	t.entries[0xFD] = opEntry{name: "FD", sub: fdTable}
}
