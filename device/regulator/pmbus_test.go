package regulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	bytes  map[uint8]uint8
	words  map[uint8]uint16
	writes int
	fail   error
}

func newFakeBus(mode uint8) *fakeBus {
	return &fakeBus{
		bytes: map[uint8]uint8{cmdVoutMode: mode},
		words: map[uint8]uint16{},
	}
}

func (b *fakeBus) ReadByte(cmd uint8) (uint8, error) { return b.bytes[cmd], nil }
func (b *fakeBus) ReadWord(cmd uint8) (uint16, error) { return b.words[cmd], nil }

func (b *fakeBus) WriteByte(cmd, v uint8) error {
	if b.fail != nil {
		return b.fail
	}
	b.bytes[cmd] = v
	return nil
}

func (b *fakeBus) WriteWord(cmd uint8, v uint16) error {
	if b.fail != nil {
		return b.fail
	}
	b.writes++
	b.words[cmd] = v
	return nil
}

type fakePin struct {
	exported bool
	dir      string
	value    int
}

func (p *fakePin) Export() error            { p.exported = true; return nil }
func (p *fakePin) Unexport() error          { p.exported = false; return nil }
func (p *fakePin) Direction(d string) error { p.dir = d; return nil }
func (p *fakePin) Write(v int) error        { p.value = v; return nil }

func TestModeExponent(t *testing.T) {
	tests := []struct {
		mode uint8
		exp  int
	}{
		{0x17, -9},
		{0x19, -7},
		{0x00, 0},
		{0x0f, 15},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.exp, modeExponent(tc.mode), "mode 0x%02x", tc.mode)
	}
}

func TestLinear16RoundTrip(t *testing.T) {
	assert.Equal(t, uint16(512), ReverseLinear16(1.0, -9))
	assert.Equal(t, uint16(128), ReverseLinear16(1.0, -7))
	assert.InDelta(t, 1.2, Linear16(ReverseLinear16(1.2, -9), -9), 0.002)
}

func TestNewPMBusRejectsNonLinearMode(t *testing.T) {
	_, err := NewPMBus("vdd_cpu", newFakeBus(0x40), 800, 1400)
	assert.ErrorIs(t, err, ErrVoutMode)
}

func TestSetVoltage(t *testing.T) {
	bus := newFakeBus(0x17)
	p, err := NewPMBus("vdd_cpu", bus, 800, 1400)
	require.NoError(t, err)

	require.NoError(t, p.SetVoltage(1000))
	assert.Equal(t, uint16(512), bus.words[cmdVout])
	assert.Equal(t, 1, bus.writes)

	// Same value is not rewritten.
	require.NoError(t, p.SetVoltage(1000))
	assert.Equal(t, 1, bus.writes)

	require.NoError(t, p.SetVoltage(2000))
	assert.Equal(t, ReverseLinear16(1.4, -9), bus.words[cmdVout])

	require.NoError(t, p.SetVoltage(100))
	assert.Equal(t, ReverseLinear16(0.8, -9), bus.words[cmdVout])

	bus.words[cmdReadVout] = 563
	mv, err := p.Millivolts()
	require.NoError(t, err)
	assert.Equal(t, 1100, mv)
}

func TestSetVoltageError(t *testing.T) {
	bus := newFakeBus(0x17)
	p, err := NewPMBus("vdd_core", bus, 800, 1400)
	require.NoError(t, err)
	bus.fail = errors.New("nack")

	err = p.SetVoltage(1100)
	assert.ErrorContains(t, err, "nack")
}

func TestEnableDisableDrivesPin(t *testing.T) {
	bus := newFakeBus(0x17)
	pin := &fakePin{}
	p, err := NewPMBus("vdd_cpu", bus, 800, 1400, WithEnablePin(newEnablePin(pin, false)))
	require.NoError(t, err)

	require.NoError(t, p.Enable())
	assert.Equal(t, opOn, bus.bytes[cmdOperation])
	assert.Equal(t, 1, pin.value)
	assert.Equal(t, "out", pin.dir)
	assert.False(t, pin.exported)

	require.NoError(t, p.Disable())
	assert.Equal(t, opOff, bus.bytes[cmdOperation])
	assert.Equal(t, 0, pin.value)
}

func TestEnablePinActiveLow(t *testing.T) {
	pin := &fakePin{}
	e := newEnablePin(pin, true)
	require.NoError(t, e.Set(true))
	assert.Equal(t, 0, pin.value)
	require.NoError(t, e.Set(false))
	assert.Equal(t, 1, pin.value)
}
