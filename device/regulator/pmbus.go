// Package regulator drives rail supplies over PMBus.
package regulator

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"soc_dvfs/log"
)

const (
	cmdOperation uint8 = 0x01
	cmdVoutMode  uint8 = 0x20
	cmdVout      uint8 = 0x21
	cmdReadVout  uint8 = 0x8b

	opOn  uint8 = 0x80
	opOff uint8 = 0x00
)

var ErrVoutMode = errors.New("regulator: VOUT_MODE is not linear")

// Bus is the SMBus access the regulator needs.
type Bus interface {
	ReadByte(cmd uint8) (uint8, error)
	WriteByte(cmd, v uint8) error
	ReadWord(cmd uint8) (uint16, error)
	WriteWord(cmd uint8, v uint16) error
}

// PMBus is a rail regulator programmed through VOUT_COMMAND in Linear16
// format. It satisfies dvfs.Regulator and dvfs.VoltageReader.
type PMBus struct {
	mu     sync.Mutex
	name   string
	bus    Bus
	exp    int
	minMV  int
	maxMV  int
	settle time.Duration
	pin    *EnablePin
}

type Option func(*PMBus)

// WithSettle waits d after every VOUT change.
func WithSettle(d time.Duration) Option {
	return func(p *PMBus) { p.settle = d }
}

// WithEnablePin drives a GPIO together with the OPERATION command.
func WithEnablePin(pin *EnablePin) Option {
	return func(p *PMBus) { p.pin = pin }
}

// NewPMBus reads VOUT_MODE to learn the Linear16 exponent.
func NewPMBus(name string, bus Bus, minMV, maxMV int, opts ...Option) (*PMBus, error) {
	mode, err := bus.ReadByte(cmdVoutMode)
	if err != nil {
		return nil, fmt.Errorf("regulator %s: read VOUT_MODE: %w", name, err)
	}
	if mode>>5 != 0 {
		return nil, fmt.Errorf("%w: %s mode 0x%02x", ErrVoutMode, name, mode)
	}
	p := &PMBus{
		name:  name,
		bus:   bus,
		exp:   modeExponent(mode),
		minMV: minMV,
		maxMV: maxMV,
	}
	for _, o := range opts {
		o(p)
	}
	log.Infof("REG: %s Linear16 exponent %d, range %d-%d mV", name, p.exp, minMV, maxMV)
	return p, nil
}

// modeExponent sign-extends the 5-bit VOUT_MODE exponent.
func modeExponent(mode uint8) int {
	e := int(mode & 0x1f)
	if e&0x10 != 0 {
		e -= 0x20
	}
	return e
}

// Linear16 converts a VOUT word to volts.
func Linear16(word uint16, exp int) float64 {
	return float64(word) * math.Pow(2, float64(exp))
}

// ReverseLinear16 converts volts to a VOUT word.
func ReverseLinear16(v float64, exp int) uint16 {
	return uint16(math.Round(v / math.Pow(2, float64(exp))))
}

func (p *PMBus) SetVoltage(mv int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if mv > p.maxMV {
		log.Infof("REG: %s SetVoltage() %d mV out of range, clamp to %d", p.name, mv, p.maxMV)
		mv = p.maxMV
	}
	if mv < p.minMV {
		log.Infof("REG: %s SetVoltage() %d mV out of range, clamp to %d", p.name, mv, p.minMV)
		mv = p.minMV
	}

	word := ReverseLinear16(float64(mv)/1000, p.exp)
	cur, err := p.bus.ReadWord(cmdVout)
	if err != nil {
		log.Errorf("REG: %s read VOUT_COMMAND returned %s", p.name, err)
	} else if cur == word {
		return nil
	}

	log.Debugf("REG: setting %s VOUT to %d mV", p.name, mv)
	if err := p.bus.WriteWord(cmdVout, word); err != nil {
		return fmt.Errorf("regulator %s: set %d mV: %w", p.name, mv, err)
	}
	if p.settle > 0 {
		time.Sleep(p.settle)
	}
	return nil
}

// Millivolts reads back the measured output.
func (p *PMBus) Millivolts() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, err := p.bus.ReadWord(cmdReadVout)
	if err != nil {
		return 0, err
	}
	return int(math.Round(Linear16(w, p.exp) * 1000)), nil
}

func (p *PMBus) Enable() error  { return p.operation(true) }
func (p *PMBus) Disable() error { return p.operation(false) }

func (p *PMBus) operation(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	op := opOff
	if on {
		op = opOn
	}
	if p.pin != nil && on {
		if err := p.pin.Set(true); err != nil {
			return fmt.Errorf("regulator %s: enable pin: %w", p.name, err)
		}
	}
	if err := p.bus.WriteByte(cmdOperation, op); err != nil {
		return fmt.Errorf("regulator %s: OPERATION 0x%02x: %w", p.name, op, err)
	}
	if p.pin != nil && !on {
		if err := p.pin.Set(false); err != nil {
			return fmt.Errorf("regulator %s: enable pin: %w", p.name, err)
		}
	}
	log.Infof("REG: %s output %s", p.name, onOff(on))
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
