package dvfs

import (
	"fmt"

	"soc_dvfs/log"
	"soc_dvfs/metrics"
)

// Target is the solved voltage for one rail.
type Target struct {
	Rail    string
	FromMV  int
	ToMV    int
	Clamped bool
}

// Step is one programmed regulator value.
type Step struct {
	Rail string
	MV   int
}

// Plan is the result of a pre-check. Commit it once with beforeClock set
// before raising a clock, and once more after lowering it.
type Plan struct {
	Rail        string
	RequestedMV int
	Targets     []Target
	Steps       []Step
	Hops        int
	// Skipped is set when the requesting rail has scaling disabled.
	Skipped bool
	// Capped is set when RequestedMV was lowered to the rail ceiling.
	Capped bool

	versions map[string]uint64
	recorded bool
}

// Target returns the solved target for rail.
func (p *Plan) Target(rail string) (Target, bool) {
	for _, t := range p.Targets {
		if t.Rail == rail {
			return t, true
		}
	}
	return Target{}, false
}

// Solver propagates rail floors through the relationships.
type Solver struct {
	order     []*Rail
	rails     map[string]*Rail
	rels      []Relationship
	maxLadder int
	ceilings  map[string]int
	metrics   *metrics.Metrics
}

func NewSolver(rails []*Rail, rels []Relationship, m *metrics.Metrics) (*Solver, error) {
	s := &Solver{
		order:   rails,
		rails:   make(map[string]*Rail, len(rails)),
		rels:     rels,
		ceilings: map[string]int{},
		metrics:  m,
	}
	for _, r := range rails {
		if _, dup := s.rails[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate rail %s", ErrBadTable, r.Name)
		}
		s.rails[r.Name] = r
		if n := r.Ladder.Len(); n > s.maxLadder {
			s.maxLadder = n
		}
	}
	for i := range rels {
		if err := rels[i].validate(s.rails); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Solver) Rail(name string) (*Rail, bool) {
	r, ok := s.rails[name]
	return r, ok
}

// SetCeiling bounds what rail may request for itself; zero removes the
// ceiling. Floors from other rails still apply above it.
func (s *Solver) SetCeiling(rail string, mv int) {
	if mv <= 0 {
		delete(s.ceilings, rail)
		return
	}
	s.ceilings[rail] = mv
}

// hopBound is the number of raising hops allowed before the relationships
// are declared divergent. A floor taken from a rail's current voltage can
// push the same relationship again after its driven rail moved, so every
// relationship may fire once per ladder step.
func (s *Solver) hopBound() int {
	b := len(s.rels) * s.maxLadder
	if b == 0 {
		b = 1
	}
	return b
}

// Plan computes the targets for every enabled rail when rail asks for mv.
// Nothing is programmed.
func (s *Solver) Plan(rail string, mv int) (*Plan, error) {
	req, ok := s.rails[rail]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRail, rail)
	}
	p := &Plan{
		Rail:        rail,
		RequestedMV: req.Clamp(mv),
		versions:    map[string]uint64{},
	}
	if c, ok := s.ceilings[rail]; ok && p.RequestedMV > c {
		log.Debugf("DVFS: %s request %d mV capped at %d mV", rail, p.RequestedMV, c)
		p.RequestedMV = c
		p.Capped = true
	}
	if !req.Enabled {
		p.Skipped = true
		return p, nil
	}

	targets := map[string]int{}
	queue := []string{rail}
	queued := map[string]bool{rail: true}
	for _, r := range s.order {
		if !r.Enabled {
			continue
		}
		targets[r.Name] = r.RequestedMV
		if !queued[r.Name] {
			queue = append(queue, r.Name)
			queued[r.Name] = true
		}
	}
	targets[rail] = p.RequestedMV

	clamped := map[string]bool{}
	bound := s.hopBound()
	for len(queue) > 0 {
		from := queue[0]
		queue = queue[1:]
		queued[from] = false
		fr := s.rails[from]

		for i := range s.rels {
			rel := &s.rels[i]
			if rel.From != from {
				continue
			}
			to := s.rails[rel.To]
			if !fr.Enabled || !to.Enabled {
				continue
			}
			fromMV := targets[from]
			if fr.CurrentMV > fromMV {
				fromMV = fr.CurrentMV
			}
			floor := rel.Floor(fr.Ladder, fromMV, targets[rel.To])
			if floor > to.MaxMV {
				log.Warnf("DVFS: %s floor %d mV from %s clamped at max %d mV",
					to.Name, floor, from, to.MaxMV)
				floor = to.MaxMV
				clamped[to.Name] = true
			}
			if floor > 0 && floor < to.MinMV {
				floor = to.MinMV
			}
			if floor <= targets[rel.To] {
				continue
			}
			targets[rel.To] = floor
			p.Hops++
			if p.Hops > bound {
				return nil, fatalf("solve", rel.To, ErrNoConvergence,
					"%d raising hops exceed bound %d", p.Hops, bound)
			}
			if !queued[rel.To] {
				queue = append(queue, rel.To)
				queued[rel.To] = true
			}
		}
	}

	for _, r := range s.order {
		if !r.Enabled {
			continue
		}
		p.Targets = append(p.Targets, Target{
			Rail:    r.Name,
			FromMV:  r.CurrentMV,
			ToMV:    targets[r.Name],
			Clamped: clamped[r.Name],
		})
		p.versions[r.Name] = r.version
		if clamped[r.Name] {
			s.metrics.IncBoundary(r.Name)
		}
	}
	return p, nil
}

// Commit programs the rails of p that move in the phase given by
// beforeClock: rising rails before the clock change, falling rails after it.
// Rails are stepped round-robin, at most StepMV per write. The first refusal
// stops the commit.
func (s *Solver) Commit(p *Plan, beforeClock bool) error {
	for _, t := range p.Targets {
		r := s.rails[t.Rail]
		if !r.Enabled || r.version != p.versions[t.Rail] {
			return fmt.Errorf("%w: %s", ErrStalePlan, t.Rail)
		}
	}
	if !p.recorded {
		s.rails[p.Rail].RequestedMV = p.RequestedMV
		p.recorded = true
	}
	// A disabled rail keeps the request for when scaling resumes.
	if p.Skipped {
		return nil
	}

	var moving []Target
	for _, t := range p.Targets {
		cur := s.rails[t.Rail].CurrentMV
		if (beforeClock && t.ToMV > cur) || (!beforeClock && t.ToMV < cur) {
			moving = append(moving, t)
		}
	}

	for {
		progressed := false
		for _, t := range moving {
			r := s.rails[t.Rail]
			if r.CurrentMV == t.ToMV {
				continue
			}
			mv := r.next(t.ToMV)
			if err := r.program(mv); err != nil {
				s.metrics.IncApplyFailure(r.Name)
				return &ApplyError{Rail: r.Name, RequestedMV: t.ToMV, RejectedMV: mv, Err: err}
			}
			p.versions[r.Name] = r.version
			p.Steps = append(p.Steps, Step{Rail: r.Name, MV: mv})
			s.metrics.SetRailMillivolts(r.Name, mv)
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}

// Violations lists relationships whose floor is not met by the current
// voltages of enabled rails.
func (s *Solver) Violations() []string {
	var out []string
	for i := range s.rels {
		rel := &s.rels[i]
		from, to := s.rails[rel.From], s.rails[rel.To]
		if !from.Enabled || !to.Enabled {
			continue
		}
		floor := rel.Floor(from.Ladder, from.CurrentMV, to.CurrentMV)
		if floor > to.MaxMV {
			floor = to.MaxMV
		}
		if floor > 0 && floor < to.MinMV {
			floor = to.MinMV
		}
		if to.CurrentMV < floor {
			out = append(out, fmt.Sprintf("%s=%d mV below %s floor %d mV (%s=%d mV)",
				to.Name, to.CurrentMV, rel.Kind, floor, from.Name, from.CurrentMV))
		}
	}
	return out
}
