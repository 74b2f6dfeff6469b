package smbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestCRC8(t *testing.T) {
	assert.Equal(t, uint8(0xf4), CRC8([]byte("123456789")))
	assert.Equal(t, uint8(0), CRC8(nil))
}

func TestReadWriteWord(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x40, W: []byte{0x21, 0x00, 0x02}},
		{Addr: 0x40, W: []byte{0x8b}, R: []byte{0x34, 0x12}},
	}}
	c := NewConn(bus, 0x40)

	require.NoError(t, c.WriteWord(0x21, 0x0200))
	v, err := c.ReadWord(0x8b)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v)
	require.NoError(t, bus.Close())
}

func TestPEC(t *testing.T) {
	const addr = 0x40
	data := []byte{0x34, 0x12}
	pec := CRC8([]byte{addr << 1, 0x8b, addr<<1 | 1, 0x34, 0x12})
	wframe := []byte{0x01, 0x80}
	wpec := CRC8(append([]byte{addr << 1}, wframe...))

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: addr, W: []byte{0x8b}, R: append(data, pec)},
		{Addr: addr, W: []byte{0x8b}, R: []byte{0x34, 0x12, pec ^ 0xff}},
		{Addr: addr, W: append(wframe, wpec)},
	}}
	c := NewConn(bus, addr)
	c.SetPEC(true)

	v, err := c.ReadWord(0x8b)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v)

	_, err = c.ReadWord(0x8b)
	assert.ErrorContains(t, err, "PEC mismatch")

	require.NoError(t, c.WriteByte(0x01, 0x80))
	require.NoError(t, bus.Close())
}
