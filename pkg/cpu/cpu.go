package cpu

// CPU is a functional Z80 simulator: a register file, a 64 KiB memory image,
// a 256-port I/O space, and the prefix-tree opcode dispatch tables. The host
// drives it one instruction at a time with Fetch/Execute and inspects state
// in between. A CPU is not safe for concurrent use.
type CPU struct {
	reg Registers
	mem Memory
	io  ports

	prep    prepared
	fetched bool
}

// New returns a CPU in the power-on state. If image is non-nil it is copied
// into memory; it must be exactly MemorySize bytes. A nil image leaves
// memory zeroed.
func New(image []uint8) *CPU {
	c := &CPU{}
	c.reg.Reset()
	if image != nil {
		copy(c.mem[:], image)
	}
	return c
}

// Registers returns a copy of the architectural state.
func (c *CPU) Registers() Snapshot {
	return c.reg.snapshot()
}

// SetRegisters overwrites the architectural state, for restoring a saved
// snapshot or seeding a test scenario.
func (c *CPU) SetRegisters(s Snapshot) {
	c.reg.restore(s)
}

// InterruptEnabled reports the IFF latch.
func (c *CPU) InterruptEnabled() bool {
	return c.reg.IFF
}

// Memory exposes the CPU's memory image for host inspection and loading.
func (c *CPU) Memory() *Memory {
	return &c.mem
}

// AddPortHandler binds (or replaces) the callback for one I/O port.
func (c *CPU) AddPortHandler(port uint8, h PortHandler) {
	c.io[port] = h
}

// Fetch decodes the instruction at PC into a prepared instruction for the
// next Execute. It advances PC past the consumed opcode bytes and bumps the
// refresh counter once per byte entering the decoder. On an empty dispatch
// slot it returns *InvalidOpcodeError with the byte path walked so far.
func (c *CPU) Fetch() error {
	return c.decode()
}

// Execute runs the instruction prepared by the preceding Fetch. Exactly one
// instruction executes per call; immediate operands are read from PC as the
// instruction demands. Without a pending Fetch it returns ErrNotFetched.
// The HALT opcode reports ErrHalted with PC already past the HALT byte.
func (c *CPU) Execute() error {
	if !c.fetched {
		return ErrNotFetched
	}
	c.fetched = false
	return c.prep.entry.exec(c)
}

// fetchDecodeByte consumes one byte for the decoder: PC and the low 7 bits
// of R advance together.
func (c *CPU) fetchDecodeByte() uint8 {
	b := c.mem.ReadByte(c.reg.PC)
	c.reg.PC++
	c.reg.bumpR()
	return b
}

// readOperand consumes one immediate operand byte. Operand reads do not
// touch the refresh counter.
func (c *CPU) readOperand() uint8 {
	b := c.mem.ReadByte(c.reg.PC)
	c.reg.PC++
	return b
}

// readOperandWord consumes a little-endian immediate word.
func (c *CPU) readOperandWord() uint16 {
	lo := c.readOperand()
	hi := c.readOperand()
	return uint16(hi)<<8 | uint16(lo)
}

// push stores a word on the stack: high byte first, so the low byte ends up
// at the lower address. SP wraps mod 2^16.
func (c *CPU) push(v uint16) {
	c.reg.SP--
	c.mem.WriteByte(c.reg.SP, uint8(v>>8))
	c.reg.SP--
	c.mem.WriteByte(c.reg.SP, uint8(v))
}

// pop reads a word off the stack, low byte first.
func (c *CPU) pop() uint16 {
	lo := c.mem.ReadByte(c.reg.SP)
	c.reg.SP++
	hi := c.mem.ReadByte(c.reg.SP)
	c.reg.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// signExtend widens a displacement byte to a 16-bit offset.
func signExtend(d uint8) uint16 {
	return uint16(int16(int8(d)))
}
