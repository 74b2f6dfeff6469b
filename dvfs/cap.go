package dvfs

import (
	"fmt"
	"sync"

	"soc_dvfs/log"
	"soc_dvfs/metrics"
)

// CapDomain selects one of the cap domains.
type CapDomain int

const (
	CapCore CapDomain = iota
	CapBus
)

func (c CapDomain) String() string {
	switch c {
	case CapCore:
		return "core"
	case CapBus:
		return "bus"
	}
	return fmt.Sprintf("CapDomain(%d)", int(c))
}

// Requester identifies who holds a core cap.
type Requester int

const (
	RequesterKernel Requester = iota
	RequesterUser
	numRequesters
)

func (r Requester) String() string {
	if r == RequesterUser {
		return "user"
	}
	return "kernel"
}

// UserLevelHook may rewrite a user core cap level before it is stored.
type UserLevelHook func(level int) int

type capRequest struct {
	refcount int
	level    int
}

type capClock struct {
	name  string
	clk   Clock
	rates []int64
}

// CapState reports one cap domain.
type CapState struct {
	Domain     string `json:"domain"`
	Active     bool   `json:"active"`
	UserActive bool   `json:"user_active"`
	Refcount   int    `json:"refcount"`
	Level      int    `json:"level"`
}

// String formats the state the way the cap attributes show it: the core
// domain also shows whether the user requester is active.
func (s CapState) String() string {
	if s.Domain == CapCore.String() {
		return fmt.Sprintf("%d (%d)", b2i(s.Active), b2i(s.UserActive))
	}
	return fmt.Sprintf("%d", b2i(s.Active))
}

// CapEngine applies reference-counted voltage caps by lowering the rates of
// the governed clocks. One lock covers refcounts, levels and clock writes.
type CapEngine struct {
	mu sync.Mutex

	ladder   Ladder
	maxMV    int
	refcount int
	level    int
	core     [numRequesters]capRequest
	clocks   []*capClock

	bus      capRequest
	busName  string
	busClock Clock
	busOff   bool

	hook    UserLevelHook
	metrics *metrics.Metrics
}

// CapClock is a governed clock with its rate per ladder step.
type CapClock struct {
	Name  string
	Clock Clock
	Rates []int64
}

// NewCapEngine builds a cap engine for a rail ladder. clocks are in the
// order they must be lowered.
func NewCapEngine(ladder Ladder, maxMV int, clocks []CapClock, busName string, busClock Clock, m *metrics.Metrics) *CapEngine {
	c := &CapEngine{
		ladder:   ladder,
		maxMV:    maxMV,
		busName:  busName,
		busClock: busClock,
		metrics:  m,
	}
	_, c.level = ladder.FloorStep(maxMV)
	for i := range c.core {
		c.core[i].level = maxMV
	}
	for _, cc := range clocks {
		c.clocks = append(c.clocks, &capClock{name: cc.Name, clk: cc.Clock, rates: cc.Rates})
	}
	if busClock != nil {
		c.bus.level = int(busClock.MaxRate())
	}
	return c
}

func (c *CapEngine) SetUserLevelHook(h UserLevelHook) {
	c.mu.Lock()
	c.hook = h
	c.mu.Unlock()
}

func (c *CapEngine) Acquire(d CapDomain, who Requester) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d {
	case CapCore:
		if who < 0 || who >= numRequesters {
			return fmt.Errorf("%w: requester %d", ErrUnknownCap, who)
		}
		c.core[who].refcount++
		if c.core[who].refcount == 1 {
			c.refcount++
			return c.updateCore()
		}
		return nil
	case CapBus:
		c.bus.refcount++
		if c.bus.refcount == 1 {
			return c.updateBus()
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnknownCap, d)
}

func (c *CapEngine) Release(d CapDomain, who Requester) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d {
	case CapCore:
		if who < 0 || who >= numRequesters {
			return fmt.Errorf("%w: requester %d", ErrUnknownCap, who)
		}
		if c.core[who].refcount == 0 {
			return nil
		}
		c.core[who].refcount--
		if c.core[who].refcount == 0 {
			if c.refcount > 0 {
				c.refcount--
			}
			return c.updateCore()
		}
		return nil
	case CapBus:
		if c.bus.refcount == 0 {
			return nil
		}
		c.bus.refcount--
		if c.bus.refcount == 0 {
			return c.updateBus()
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnknownCap, d)
}

// SetLevel stores a requester's level and reapplies the cap. It returns the
// effective level: the ladder step for the core cap, the rate for the bus.
func (c *CapEngine) SetLevel(d CapDomain, who Requester, level int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d {
	case CapCore:
		if who < 0 || who >= numRequesters {
			return 0, fmt.Errorf("%w: requester %d", ErrUnknownCap, who)
		}
		if who == RequesterUser && c.hook != nil {
			level = c.hook(level)
		}
		c.core[who].level = level
		err := c.updateCore()
		return c.level, err
	case CapBus:
		c.bus.level = level
		err := c.updateBus()
		return c.bus.level, err
	}
	return 0, fmt.Errorf("%w: %v", ErrUnknownCap, d)
}

func (c *CapEngine) State(d CapDomain) (CapState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d {
	case CapCore:
		return CapState{
			Domain:     d.String(),
			Active:     c.refcount > 0,
			UserActive: c.core[RequesterUser].refcount > 0,
			Refcount:   c.refcount,
			Level:      c.level,
		}, nil
	case CapBus:
		return CapState{
			Domain:   d.String(),
			Active:   c.bus.refcount > 0,
			Refcount: c.bus.refcount,
			Level:    c.bus.level,
		}, nil
	}
	return CapState{}, fmt.Errorf("%w: %v", ErrUnknownCap, d)
}

func (c *CapEngine) updateCore() error {
	level := c.maxMV
	for _, r := range c.core {
		if r.refcount > 0 && r.level < level {
			level = r.level
		}
	}
	j, level := c.ladder.FloorStep(level)
	if level == c.level {
		return nil
	}

	if level < c.level {
		for _, cc := range c.clocks {
			if err := cc.set(j); err != nil {
				return err
			}
		}
	} else {
		for i := len(c.clocks) - 1; i >= 0; i-- {
			if err := c.clocks[i].set(j); err != nil {
				return err
			}
		}
	}
	log.Debugf("CAP: core level %d mV -> %d mV", c.level, level)
	c.level = level
	c.metrics.SetCap(CapCore.String(), level, c.refcount > 0)
	return nil
}

func (cc *capClock) set(j int) error {
	if cc.clk == nil || j >= len(cc.rates) {
		return nil
	}
	if err := cc.clk.SetRate(cc.rates[j]); err != nil {
		return fmt.Errorf("cap %s rate %d Hz: %w", cc.name, cc.rates[j], err)
	}
	return nil
}

func (c *CapEngine) updateBus() error {
	if c.busClock == nil {
		if !c.busOff {
			log.Warnf("CAP: %s profiling is not supported", c.busName)
			c.busOff = true
		}
		return nil
	}
	rate := c.busClock.MaxRate()
	if c.bus.refcount > 0 {
		rate = int64(c.bus.level)
	}
	if err := c.busClock.SetRate(rate); err != nil {
		return fmt.Errorf("cap %s rate %d Hz: %w", c.busName, rate, err)
	}
	c.metrics.SetCap(CapBus.String(), int(rate), c.bus.refcount > 0)
	return nil
}

// capRates walks the achievable rates of clk and records, for every ladder
// step, the highest rate the parent domain runs at that step.
func capRates(clk Clock, parent *Domain, ladder Ladder) ([]int64, error) {
	out := make([]int64, ladder.Len())
	var rate, next int64
	nextMV := 0
	for i := 0; i < ladder.Len(); i++ {
		v := ladder[i]
		for {
			rate = next
			r, err := clk.RoundRate(rate + KHz)
			if err != nil {
				return nil, fmt.Errorf("round %s rate %d: %w", clk.Name(), rate, err)
			}
			next = r
			if rate == next {
				break
			}
			nextMV, err = parent.PredictMillivolts(next)
			if err != nil {
				return nil, fmt.Errorf("predict %s mV for rate %d: %w", clk.Name(), next, err)
			}
			if nextMV > v {
				break
			}
		}
		if rate == 0 {
			rate = next
			log.Warnf("DVFS: minimum %s rate %d requires %d mV", clk.Name(), rate, nextMV)
		}
		out[i] = rate
		next = rate
	}
	return out, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
