package cpu

import "fmt"

// cbShift is one of the eight CB rotate/shift operations in encoding order.
var cbShifts = [8]struct {
	name string
	fn   func(c *CPU, v uint8) uint8
}{
	{"RLC", (*CPU).rlc},
	{"RRC", (*CPU).rrc},
	{"RL", (*CPU).rl},
	{"RR", (*CPU).rr},
	{"SLA", (*CPU).sla},
	{"SRA", (*CPU).sra},
	{"SLL", (*CPU).sll},
	{"SRL", (*CPU).srl},
}

// fillCBTable populates the plain CB page: rotates/shifts, BIT, RES and SET
// on registers and (HL).
func fillCBTable(t *opTable) {
	def := func(op uint8, name string, fn opExec) {
		t.entries[op] = opEntry{name: name, exec: fn}
	}

	for z := 0; z < 8; z++ {
		if z == 6 {
			for x, sh := range cbShifts {
				sh := sh
				def(uint8(x<<3|z), sh.name+" (HL)", func(c *CPU) error {
					addr := c.reg.HL()
					c.mem.WriteByte(addr, sh.fn(c, c.mem.ReadByte(addr)))
					return nil
				})
			}
			for b := 0; b < 8; b++ {
				b := uint8(b)
				def(0x40|b<<3|uint8(z), fmt.Sprintf("BIT %d,(HL)", b), func(c *CPU) error {
					c.bit(b, c.mem.ReadByte(c.reg.HL()))
					return nil
				})
				def(0x80|b<<3|uint8(z), fmt.Sprintf("RES %d,(HL)", b), func(c *CPU) error {
					addr := c.reg.HL()
					c.mem.WriteByte(addr, c.mem.ReadByte(addr)&^(1<<b))
					return nil
				})
				def(0xC0|b<<3|uint8(z), fmt.Sprintf("SET %d,(HL)", b), func(c *CPU) error {
					addr := c.reg.HL()
					c.mem.WriteByte(addr, c.mem.ReadByte(addr)|1<<b)
					return nil
				})
			}
			continue
		}

		reg := realRegs8[z]
		for x, sh := range cbShifts {
			sh := sh
			def(uint8(x<<3|z), fmt.Sprintf("%s %s", sh.name, reg.name), func(c *CPU) error {
				reg.set(c, sh.fn(c, reg.get(c)))
				return nil
			})
		}
		for b := 0; b < 8; b++ {
			b := uint8(b)
			def(0x40|b<<3|uint8(z), fmt.Sprintf("BIT %d,%s", b, reg.name), func(c *CPU) error {
				c.bit(b, reg.get(c))
				return nil
			})
			def(0x80|b<<3|uint8(z), fmt.Sprintf("RES %d,%s", b, reg.name), func(c *CPU) error {
				reg.set(c, reg.get(c)&^(1<<b))
				return nil
			})
			def(0xC0|b<<3|uint8(z), fmt.Sprintf("SET %d,%s", b, reg.name), func(c *CPU) error {
				reg.set(c, reg.get(c)|1<<b)
				return nil
			})
		}
	}
}

// fillIndexedCBTable populates a DDCB/FDCB page. Every operation targets the
// displaced memory operand; the undocumented register slots additionally copy
// the result into the named register (true H/L, never IXH/IXL). BIT ignores
// the register slot and takes its undocumented flag bits from the high byte
// of the effective address.
func fillIndexedCBTable(t *opTable, view *pairView) {
	def := func(op uint8, name string, fn opExec) {
		t.entries[op] = opEntry{name: name, exec: fn}
	}

	for z := 0; z < 8; z++ {
		reg := realRegs8[z] // nil at slot 6: memory-only form
		suffix := ""
		if reg != nil {
			suffix = "," + reg.name
		}

		for x, sh := range cbShifts {
			sh := sh
			reg := reg
			def(uint8(x<<3|z), fmt.Sprintf("%s %s%s", sh.name, view.memName, suffix), func(c *CPU) error {
				addr := view.memAddrPrep(c)
				v := sh.fn(c, c.mem.ReadByte(addr))
				c.mem.WriteByte(addr, v)
				if reg != nil {
					reg.set(c, v)
				}
				return nil
			})
		}
		for b := 0; b < 8; b++ {
			b := uint8(b)
			reg := reg
			def(0x40|b<<3|uint8(z), fmt.Sprintf("BIT %d,%s", b, view.memName), func(c *CPU) error {
				addr := view.memAddrPrep(c)
				c.bitAddr(b, c.mem.ReadByte(addr), addr)
				return nil
			})
			def(0x80|b<<3|uint8(z), fmt.Sprintf("RES %d,%s%s", b, view.memName, suffix), func(c *CPU) error {
				addr := view.memAddrPrep(c)
				v := c.mem.ReadByte(addr) &^ (1 << b)
				c.mem.WriteByte(addr, v)
				if reg != nil {
					reg.set(c, v)
				}
				return nil
			})
			def(0xC0|b<<3|uint8(z), fmt.Sprintf("SET %d,%s%s", b, view.memName, suffix), func(c *CPU) error {
				addr := view.memAddrPrep(c)
				v := c.mem.ReadByte(addr) | 1<<b
				c.mem.WriteByte(addr, v)
				if reg != nil {
					reg.set(c, v)
				}
				return nil
			})
		}
	}
}
