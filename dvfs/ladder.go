package dvfs

import "fmt"

// Ladder is the ordered set of voltage steps (mV) a rail may occupy. A zero
// terminates the ladder early, the same way unused trailing slots do in the
// static tables.
type Ladder []int

func (l Ladder) Len() int {
	for i, v := range l {
		if v == 0 {
			return i
		}
	}
	return len(l)
}

func (l Ladder) Top() int {
	n := l.Len()
	if n == 0 {
		return 0
	}
	return l[n-1]
}

func (l Ladder) Bottom() int {
	if l.Len() == 0 {
		return 0
	}
	return l[0]
}

// Index returns the position of mv on the ladder, or -1.
func (l Ladder) Index(mv int) int {
	for i := 0; i < l.Len(); i++ {
		if l[i] == mv {
			return i
		}
	}
	return -1
}

// FloorIndex returns the highest step index whose voltage is <= mv, or -1 when
// mv is below the lowest step.
func (l Ladder) FloorIndex(mv int) int {
	i := 0
	for ; i < l.Len(); i++ {
		if mv < l[i] {
			break
		}
	}
	return i - 1
}

// FloorStep rounds mv down to a ladder step, clamping to the lowest step.
func (l Ladder) FloorStep(mv int) (int, int) {
	j := l.FloorIndex(mv)
	if j < 0 {
		j = 0
	}
	return j, l[j]
}

// CeilStep returns the smallest step >= mv, or the top step.
func (l Ladder) CeilStep(mv int) (int, int) {
	n := l.Len()
	for i := 0; i < n; i++ {
		if l[i] >= mv {
			return i, l[i]
		}
	}
	return n - 1, l[n-1]
}

// Validate checks the ladder is non-empty and strictly increasing.
func (l Ladder) Validate() error {
	n := l.Len()
	if n == 0 {
		return fmt.Errorf("%w: empty ladder", ErrBadTable)
	}
	for i := 1; i < n; i++ {
		if l[i] <= l[i-1] {
			return fmt.Errorf("%w: ladder step %d (%d mV) <= step %d (%d mV)",
				ErrNotMonotonic, i, l[i], i-1, l[i-1])
		}
	}
	return nil
}

// Offset returns a copy with every defined step lowered by mv.
func (l Ladder) Offset(mv int) Ladder {
	out := make(Ladder, len(l))
	for i, v := range l {
		if v == 0 {
			break
		}
		out[i] = v - mv
	}
	return out
}

func (l Ladder) Clone() Ladder {
	out := make(Ladder, len(l))
	copy(out, l)
	return out
}
