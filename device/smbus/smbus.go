// Package smbus is a thin SMBus layer over the periph.io I2C bus.
// It avoids using cgo, unsafe and syscalls.
package smbus

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Conn talks to one device on a bus.
type Conn struct {
	mu     sync.Mutex
	dev    *i2c.Dev
	closer io.Closer
	addr   uint8
	pec    bool
}

// Open initializes the host drivers and opens /dev/i2c-<bus>.
func Open(bus int, addr uint8) (*Conn, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(fmt.Sprintf("/dev/i2c-%d", bus))
	if err != nil {
		return nil, err
	}
	c := NewConn(b, addr)
	c.closer = b
	return c, nil
}

// NewConn wraps an already open bus.
func NewConn(bus i2c.Bus, addr uint8) *Conn {
	return &Conn{
		dev:  &i2c.Dev{Addr: uint16(addr), Bus: bus},
		addr: addr,
	}
}

// SetPEC enables packet error checking on reads and writes.
func (c *Conn) SetPEC(on bool) {
	c.mu.Lock()
	c.pec = on
	c.mu.Unlock()
}

func (c *Conn) Addr() uint8 { return c.addr }

func (c *Conn) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// ReadN issues cmd and reads n data bytes.
func (c *Conn) ReadN(cmd uint8, n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rn := n
	if c.pec {
		rn++
	}
	read := make([]byte, rn)
	if err := c.dev.Tx([]byte{cmd}, read); err != nil {
		return nil, err
	}
	if c.pec {
		if err := CheckReadPEC(c.addr, cmd, read); err != nil {
			return nil, err
		}
	}
	return read[:n], nil
}

// WriteN writes cmd followed by data.
func (c *Conn) WriteN(cmd uint8, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := append([]byte{cmd}, data...)
	if c.pec {
		b = append(b, WritePEC(c.addr, b))
	}
	_, err := c.dev.Write(b)
	return err
}

func (c *Conn) ReadByte(cmd uint8) (uint8, error) {
	b, err := c.ReadN(cmd, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Conn) WriteByte(cmd, v uint8) error {
	return c.WriteN(cmd, []byte{v})
}

// ReadWord reads a little-endian word.
func (c *Conn) ReadWord(cmd uint8) (uint16, error) {
	b, err := c.ReadN(cmd, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// WriteWord writes a little-endian word.
func (c *Conn) WriteWord(cmd uint8, v uint16) error {
	return c.WriteN(cmd, []byte{uint8(v), uint8(v >> 8)})
}
