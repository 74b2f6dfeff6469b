package dvfs

import (
	"fmt"

	"soc_dvfs/log"
)

// Regulator programs one supply. Disable/Enable switch the output itself and
// are only used for jump-to-zero transitions.
type Regulator interface {
	SetVoltage(mv int) error
	Enable() error
	Disable() error
}

// VoltageReader is implemented by regulators that can report the voltage
// they currently output.
type VoltageReader interface {
	Millivolts() (int, error)
}

// RailSpec is the static description of a voltage rail.
type RailSpec struct {
	Name       string
	MinMV      int
	MaxMV      int
	StepMV     int
	JumpToZero bool
	Ladder     Ladder
}

// Rail is the runtime state of one supply.
type Rail struct {
	Name        string
	MinMV       int
	MaxMV       int
	StepMV      int
	NominalMV   int
	CurrentMV   int
	RequestedMV int
	// Enabled is false when scaling is disabled; relationships touching the
	// rail are then ignored and the rail sits at nominal.
	Enabled    bool
	JumpToZero bool
	Ladder     Ladder

	baseLadder Ladder
	reg        Regulator
	version    uint64
	demands    map[string]int
}

func newRail(s RailSpec) (*Rail, error) {
	if err := s.Ladder.Validate(); err != nil {
		return nil, fmt.Errorf("rail %s: %w", s.Name, err)
	}
	if s.StepMV <= 0 {
		return nil, fmt.Errorf("%w: rail %s step %d mV", ErrBadTable, s.Name, s.StepMV)
	}
	if s.MinMV > s.MaxMV {
		return nil, fmt.Errorf("%w: rail %s min %d mV above max %d mV", ErrBadTable, s.Name, s.MinMV, s.MaxMV)
	}
	return &Rail{
		Name:       s.Name,
		MinMV:      s.MinMV,
		MaxMV:      s.MaxMV,
		StepMV:     s.StepMV,
		JumpToZero: s.JumpToZero,
		Enabled:    true,
		Ladder:     s.Ladder.Clone(),
		baseLadder: s.Ladder.Clone(),
		demands:    map[string]int{},
	}, nil
}

// Clamp bounds a requested voltage to the rail limits. Zero passes through
// only on jump-to-zero rails.
func (r *Rail) Clamp(mv int) int {
	if mv == 0 && r.JumpToZero {
		return 0
	}
	if mv < r.MinMV {
		return r.MinMV
	}
	if mv > r.MaxMV {
		return r.MaxMV
	}
	return mv
}

// next returns the next value to program on the way from the current voltage
// to target.
func (r *Rail) next(target int) int {
	cur := r.CurrentMV
	switch {
	case target == 0 && r.JumpToZero:
		return 0
	case cur == 0:
		return target
	case target > cur:
		if target-cur > r.StepMV {
			return cur + r.StepMV
		}
		return target
	case target < cur:
		if cur-target > r.StepMV {
			return cur - r.StepMV
		}
		return target
	}
	return cur
}

// readBack returns what the regulator outputs, or NominalMV when there is no
// regulator or it cannot be read.
func (r *Rail) readBack() int {
	vr, ok := r.reg.(VoltageReader)
	if !ok {
		return r.NominalMV
	}
	mv, err := vr.Millivolts()
	if err != nil {
		log.Warnf("DVFS: %s read back failed, assuming nominal %d mV: %v", r.Name, r.NominalMV, err)
		return r.NominalMV
	}
	return mv
}

// program writes mv to the regulator and records it.
func (r *Rail) program(mv int) error {
	if r.reg != nil {
		var err error
		switch {
		case mv == 0:
			err = r.reg.Disable()
		case r.CurrentMV == 0:
			if err = r.reg.SetVoltage(mv); err == nil {
				err = r.reg.Enable()
			}
		default:
			err = r.reg.SetVoltage(mv)
		}
		if err != nil {
			return err
		}
	}
	r.CurrentMV = mv
	r.version++
	return nil
}

// demand records what a clock domain needs from the rail and returns the
// aggregate demand across domains.
func (r *Rail) demand(domain string, mv int) int {
	if mv == 0 {
		delete(r.demands, domain)
	} else {
		r.demands[domain] = mv
	}
	agg := 0
	for _, v := range r.demands {
		if v > agg {
			agg = v
		}
	}
	return agg
}

// RailSnapshot is a copy of rail state for reporting.
type RailSnapshot struct {
	Name        string `json:"name"`
	MinMV       int    `json:"min_mv"`
	MaxMV       int    `json:"max_mv"`
	StepMV      int    `json:"step_mv"`
	NominalMV   int    `json:"nominal_mv"`
	CurrentMV   int    `json:"current_mv"`
	RequestedMV int    `json:"requested_mv"`
	Enabled     bool   `json:"enabled"`
	JumpToZero  bool   `json:"jump_to_zero"`
	Ladder      []int  `json:"ladder"`
}

func (r *Rail) Snapshot() RailSnapshot {
	return RailSnapshot{
		Name:        r.Name,
		MinMV:       r.MinMV,
		MaxMV:       r.MaxMV,
		StepMV:      r.StepMV,
		NominalMV:   r.NominalMV,
		CurrentMV:   r.CurrentMV,
		RequestedMV: r.RequestedMV,
		Enabled:     r.Enabled,
		JumpToZero:  r.JumpToZero,
		Ladder:      append([]int(nil), r.Ladder[:r.Ladder.Len()]...),
	}
}

// disable parks the rail at nominal and takes it out of the solver. Failures
// to reach nominal are logged and the rail is disabled anyway.
func (r *Rail) disable() {
	for r.CurrentMV != r.NominalMV {
		mv := r.next(r.NominalMV)
		if err := r.program(mv); err != nil {
			log.Errorf("DVFS: %s failed to move to nominal %d mV at %d mV: %v",
				r.Name, r.NominalMV, mv, err)
			break
		}
	}
	r.Enabled = false
	log.Infof("DVFS: %s scaling disabled at %d mV", r.Name, r.CurrentMV)
}
