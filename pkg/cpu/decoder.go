package cpu

// opExec runs one prepared instruction against the CPU. It may read further
// immediate bytes from PC but never walks the dispatch tables.
type opExec func(c *CPU) error

// opEntry is one dispatch-table slot: either an executable action or a link
// to a deeper table. A zero entry is the empty-slot sentinel the decoder
// turns into InvalidOpcodeError.
type opEntry struct {
	name string
	exec opExec
	sub  *opTable
}

// opTable is one 256-entry level of the prefix tree. indexed marks the
// DDCB/FDCB pages, where a signed displacement byte precedes the final
// opcode byte.
type opTable struct {
	indexed bool
	entries [256]opEntry
}

// prepared is the transient record connecting a Fetch to the following
// Execute: the opcode path, the captured DDCB/FDCB displacement, and the
// resolved action.
type prepared struct {
	path    []uint8
	disp    int8
	hasDisp bool
	entry   *opEntry
}

// Mnemonic returns the name of the last fetched instruction, for tracing.
// Valid only between a successful Fetch and the next Fetch.
func (c *CPU) Mnemonic() string {
	if c.prep.entry == nil {
		return ""
	}
	return c.prep.entry.name
}

// decode walks the prefix tree from PC until it lands on an executable leaf.
// It mutates only PC and R (one refresh bump per byte consumed) and the
// prepared-instruction record.
func (c *CPU) decode() error {
	c.fetched = false
	c.prep.path = c.prep.path[:0]
	c.prep.hasDisp = false
	c.prep.entry = nil

	t := rootTable
	for {
		b := c.fetchDecodeByte()
		c.prep.path = append(c.prep.path, b)
		e := &t.entries[b]

		if e.sub != nil {
			t = e.sub
			if t.indexed {
				// DD CB / FD CB: the displacement byte comes before the
				// final opcode byte.
				c.prep.disp = int8(c.fetchDecodeByte())
				c.prep.hasDisp = true
				op := c.fetchDecodeByte()
				c.prep.path = append(c.prep.path, op)
				e = &t.entries[op]
				if e.exec == nil {
					return c.invalidOpcode()
				}
				c.prep.entry = e
				c.fetched = true
				return nil
			}
			continue
		}

		if e.exec == nil {
			return c.invalidOpcode()
		}
		c.prep.entry = e
		c.fetched = true
		return nil
	}
}

func (c *CPU) invalidOpcode() error {
	path := make([]uint8, len(c.prep.path))
	copy(path, c.prep.path)
	return &InvalidOpcodeError{Path: path}
}
