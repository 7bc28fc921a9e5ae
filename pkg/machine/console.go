package machine

import (
	"bufio"
	"io"

	"github.com/oisee/z80emu/pkg/cpu"
)

// Console is a two-port character device: the data port reads one byte from
// the input stream (0 at EOF) and writes one byte to the output stream; the
// status port reports 1 while buffered input is ready without blocking.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole builds a console over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Attach binds the console's handlers to the CPU's port table.
func (d *Console) Attach(c *cpu.CPU, dataPort, statusPort uint8) {
	c.AddPortHandler(dataPort, d.data)
	if statusPort != dataPort {
		c.AddPortHandler(statusPort, d.status)
	}
}

func (d *Console) data(mode cpu.PortMode, data uint8) (uint8, error) {
	if mode == cpu.PortWrite {
		_, err := d.out.Write([]byte{data})
		return 0, err
	}
	b, err := d.in.ReadByte()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b, nil
}

func (d *Console) status(mode cpu.PortMode, _ uint8) (uint8, error) {
	if mode == cpu.PortWrite {
		return 0, nil
	}
	if d.in.Buffered() > 0 {
		return 1, nil
	}
	// Peek pulls from the underlying reader without consuming, so a ready
	// byte on a pipe or file also reports as available.
	if _, err := d.in.Peek(1); err == nil {
		return 1, nil
	}
	return 0, nil
}
