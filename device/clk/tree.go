// Package clk is an in-memory clock tree used when no hardware clock driver
// is available.
package clk

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"soc_dvfs/dvfs"
)

var ErrRateOutOfRange = errors.New("clk: rate out of range")

// Spec describes one clock.
type Spec struct {
	Name    string
	Parent  string
	Rate    int64
	MinRate int64
	MaxRate int64
	// StepHz is the rate granularity. Rates are multiples of it.
	StepHz int64
	Flags  dvfs.ClockFlags
}

// Clock is one node of the tree.
type Clock struct {
	mu      sync.Mutex
	spec    Spec
	rate    int64
	maxRate int64
	history []int64
	failAt  map[int64]error
}

func (c *Clock) Name() string           { return c.spec.Name }
func (c *Clock) Parent() string         { return c.spec.Parent }
func (c *Clock) Flags() dvfs.ClockFlags { return c.spec.Flags }

func (c *Clock) Rate() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

func (c *Clock) MaxRate() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxRate
}

// SetMaxRate lowers or raises the ceiling; the current rate is clipped.
func (c *Clock) SetMaxRate(hz int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxRate = hz
	if c.rate > hz {
		c.rate = hz
	}
}

// RoundRate returns the smallest achievable rate >= hz, or the maximum.
func (c *Clock) RoundRate(hz int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round(hz), nil
}

func (c *Clock) round(hz int64) int64 {
	if hz < c.spec.MinRate {
		hz = c.spec.MinRate
	}
	if step := c.spec.StepHz; step > 0 {
		hz = (hz + step - 1) / step * step
	}
	if hz > c.maxRate {
		hz = c.maxRate
	}
	return hz
}

func (c *Clock) SetRate(hz int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failAt[hz]; ok {
		return err
	}
	if hz < 0 || hz > c.maxRate {
		return fmt.Errorf("%w: %s %d Hz above %d Hz", ErrRateOutOfRange, c.spec.Name, hz, c.maxRate)
	}
	c.rate = c.round(hz)
	c.history = append(c.history, c.rate)
	return nil
}

// History returns every rate set so far.
func (c *Clock) History() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.history...)
}

// FailAt makes SetRate(hz) return err.
func (c *Clock) FailAt(hz int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAt == nil {
		c.failAt = map[int64]error{}
	}
	c.failAt[hz] = err
}

// Tree is a set of clocks looked up by name.
type Tree struct {
	mu     sync.RWMutex
	clocks map[string]*Clock
}

func NewTree(specs ...Spec) *Tree {
	t := &Tree{clocks: map[string]*Clock{}}
	for _, s := range specs {
		t.Add(s)
	}
	return t
}

func (t *Tree) Add(s Spec) *Clock {
	c := &Clock{spec: s, rate: s.Rate, maxRate: s.MaxRate}
	t.mu.Lock()
	t.clocks[s.Name] = c
	t.mu.Unlock()
	return c
}

// Lookup implements dvfs.ClockService.
func (t *Tree) Lookup(name string) (dvfs.Clock, bool) {
	c, ok := t.Get(name)
	if !ok {
		return nil, false
	}
	return c, true
}

func (t *Tree) Get(name string) (*Clock, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.clocks[name]
	return c, ok
}

func (t *Tree) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.clocks))
	for n := range t.clocks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
