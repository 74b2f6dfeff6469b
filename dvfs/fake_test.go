package dvfs

import (
	"fmt"
	"sync"
)

// fakeClock is a clock with a fixed rate granularity.
type fakeClock struct {
	name    string
	parent  string
	rate    int64
	min     int64
	max     int64
	step    int64
	flags   ClockFlags
	fail    map[int64]error
	journal *[]string
	sets    []int64
}

func (c *fakeClock) Name() string      { return c.name }
func (c *fakeClock) Parent() string    { return c.parent }
func (c *fakeClock) Flags() ClockFlags { return c.flags }
func (c *fakeClock) Rate() int64       { return c.rate }
func (c *fakeClock) MaxRate() int64    { return c.max }
func (c *fakeClock) SetMaxRate(hz int64) {
	c.max = hz
}

func (c *fakeClock) RoundRate(hz int64) (int64, error) {
	if hz < c.min {
		hz = c.min
	}
	if c.step > 0 {
		hz = (hz + c.step - 1) / c.step * c.step
	}
	if hz > c.max {
		hz = c.max
	}
	return hz, nil
}

func (c *fakeClock) SetRate(hz int64) error {
	if err := c.fail[hz]; err != nil {
		return err
	}
	c.rate = hz
	c.sets = append(c.sets, hz)
	if c.journal != nil {
		*c.journal = append(*c.journal, fmt.Sprintf("%s=%d", c.name, hz))
	}
	return nil
}

type fakeClocks map[string]*fakeClock

func (f fakeClocks) Lookup(name string) (Clock, bool) {
	c, ok := f[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// fakeRegulator records every programmed value.
type fakeRegulator struct {
	mu      sync.Mutex
	values  []int
	enabled bool
	failAt  map[int]error
}

func (r *fakeRegulator) SetVoltage(mv int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failAt[mv]; err != nil {
		return err
	}
	r.values = append(r.values, mv)
	return nil
}

func (r *fakeRegulator) Enable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
	return nil
}

func (r *fakeRegulator) Disable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
	r.values = append(r.values, 0)
	return nil
}

// readbackRegulator also reports the voltage it booted at.
type readbackRegulator struct {
	fakeRegulator
	boot int
	err  error
}

func (r *readbackRegulator) Millivolts() (int, error) { return r.boot, r.err }
