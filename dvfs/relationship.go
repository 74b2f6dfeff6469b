package dvfs

import "fmt"

// RelKind tags the shape of a rail relationship.
type RelKind int

const (
	// LadderFloor maps the driving rail's voltage onto a floor for the driven
	// rail through the driving rail's own ladder steps.
	LadderFloor RelKind = iota
	// BelowOffset keeps the driven rail no more than Offset mV below the
	// driving rail.
	BelowOffset
)

func (k RelKind) String() string {
	switch k {
	case LadderFloor:
		return "ladder-floor"
	case BelowOffset:
		return "below-offset"
	}
	return fmt.Sprintf("RelKind(%d)", int(k))
}

// Relationship constrains To's voltage as a function of From's.
type Relationship struct {
	Kind RelKind
	From string
	To   string
	// SolvedAtNominal marks the relationship used to size From's nominal
	// voltage against To's nominal.
	SolvedAtNominal bool

	Floors []int // LadderFloor
	Offset int   // BelowOffset
}

// NewLadderFloor returns a LadderFloor relationship. floors[k] applies while
// the driving voltage is below the driving rail's ladder step k.
func NewLadderFloor(from, to string, floors []int) Relationship {
	return Relationship{
		Kind:            LadderFloor,
		From:            from,
		To:              to,
		SolvedAtNominal: true,
		Floors:          floors,
	}
}

func NewBelowOffset(from, to string, offset int) Relationship {
	return Relationship{
		Kind:   BelowOffset,
		From:   from,
		To:     to,
		Offset: offset,
	}
}

// Floor returns the minimum voltage To must hold. fromLadder is the driving
// rail's ladder, fromMV the larger of its target and current voltage, and
// toTarget the driven rail's target so far.
func (r *Relationship) Floor(fromLadder Ladder, fromMV, toTarget int) int {
	switch r.Kind {
	case LadderFloor:
		return ladderFloor(fromLadder, r.Floors, fromMV)
	case BelowOffset:
		if toTarget == 0 {
			return 0
		}
		return fromMV - r.Offset
	}
	return 0
}

func ladderFloor(th Ladder, floors []int, mv int) int {
	n := len(floors)
	if n == 0 {
		return 0
	}
	if th.Len() == 0 || mv <= th[0] {
		return floors[0]
	}
	for k := 1; k < n-1 && k < th.Len(); k++ {
		if mv < th[k] {
			return floors[k]
		}
	}
	return floors[n-1]
}

func (r *Relationship) validate(rails map[string]*Rail) error {
	if _, ok := rails[r.From]; !ok {
		return fmt.Errorf("%w: relationship from %q", ErrUnknownRail, r.From)
	}
	if _, ok := rails[r.To]; !ok {
		return fmt.Errorf("%w: relationship to %q", ErrUnknownRail, r.To)
	}
	if r.Kind == LadderFloor && len(r.Floors) == 0 {
		return fmt.Errorf("%w: %s->%s has no floors", ErrBadTable, r.From, r.To)
	}
	return nil
}
