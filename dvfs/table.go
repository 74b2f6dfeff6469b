package dvfs

import "fmt"

const (
	KHz int64 = 1000
	MHz int64 = 1000000
)

// Wildcard matches any process or speedo id.
const Wildcard = -1

// TableGroup says what a table entry is used for.
type TableGroup int

const (
	GroupCore TableGroup = iota
	GroupCPU
	GroupCPUSingle
)

var groupNames = map[TableGroup]string{
	GroupCore:      "core",
	GroupCPU:       "cpu",
	GroupCPUSingle: "cpu-single",
}

func (g TableGroup) String() string { return groupNames[g] }

// Entry is one frequency table for a clock domain and silicon bin. Freqs[i]
// is the highest frequency (in Mult units) allowed at ladder step i of Rail.
type Entry struct {
	Clock     string
	Rail      string
	Group     TableGroup
	ProcessID int
	SpeedoID  int
	Freqs     []int64
	Mult      int64
	AutoDVFS  bool
}

// CPUEntry builds a CPU table entry. CPU tables always auto-clamp.
func CPUEntry(clock, rail string, speedoID, processID int, mult int64, freqs ...int64) Entry {
	return Entry{
		Clock:     clock,
		Rail:      rail,
		Group:     GroupCPU,
		ProcessID: processID,
		SpeedoID:  speedoID,
		Freqs:     freqs,
		Mult:      mult,
		AutoDVFS:  true,
	}
}

// CPUSingleEntry builds an alternate single-core CPU table entry.
func CPUSingleEntry(clock, rail string, speedoID, processID int, mult int64, freqs ...int64) Entry {
	e := CPUEntry(clock, rail, speedoID, processID, mult, freqs...)
	e.Group = GroupCPUSingle
	return e
}

// CoreEntry builds a core-rail table entry; core tables match any process id.
func CoreEntry(clock, rail string, speedoID int, auto bool, mult int64, freqs ...int64) Entry {
	return Entry{
		Clock:     clock,
		Rail:      rail,
		Group:     GroupCore,
		ProcessID: Wildcard,
		SpeedoID:  speedoID,
		Freqs:     freqs,
		Mult:      mult,
		AutoDVFS:  auto,
	}
}

// Len is the number of defined steps. Trailing zeros are undefined.
func (e *Entry) Len() int {
	n := len(e.Freqs)
	for n > 0 && e.Freqs[n-1] == 0 {
		n--
	}
	return n
}

// Matches reports whether the entry serves the given silicon bin.
func (e *Entry) Matches(processID, speedoID int) bool {
	if e.ProcessID != Wildcard && e.ProcessID != processID {
		return false
	}
	if e.SpeedoID != Wildcard && e.SpeedoID != speedoID {
		return false
	}
	return true
}

func (e *Entry) IsWildcard() bool {
	return e.ProcessID == Wildcard && e.SpeedoID == Wildcard
}

// Rates returns the table in Hz. An interior zero inherits the previous rate;
// a zero in the first slot is a malformed table.
func (e *Entry) Rates() ([]int64, error) {
	n := e.Len()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = e.Freqs[i] * e.Mult
		if out[i] == 0 {
			if i == 0 {
				return nil, fmt.Errorf("%w: %s first step undefined", ErrBadTable, e.Clock)
			}
			out[i] = out[i-1]
		}
	}
	return out, nil
}

func (e Entry) String() string {
	return fmt.Sprintf("%s[%s speedo %d process %d]", e.Clock, e.Group, e.SpeedoID, e.ProcessID)
}

// Store is the immutable-after-init catalog of table entries, kept in
// declaration order.
type Store struct {
	entries []Entry
	order   []string
	byClock map[string][]int
}

func NewStore() *Store {
	return &Store{byClock: map[string][]int{}}
}

// Add appends entries in declaration order.
func (s *Store) Add(entries ...Entry) *Store {
	for _, e := range entries {
		key := storeKey(e.Group, e.Clock)
		if _, ok := s.byClock[key]; !ok {
			s.order = append(s.order, key)
		}
		s.byClock[key] = append(s.byClock[key], len(s.entries))
		s.entries = append(s.entries, e)
	}
	return s
}

func storeKey(g TableGroup, clock string) string {
	return g.String() + "/" + clock
}

// Candidates returns the entries for clock in group, in declaration order.
func (s *Store) Candidates(g TableGroup, clock string) []*Entry {
	idx := s.byClock[storeKey(g, clock)]
	out := make([]*Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, &s.entries[i])
	}
	return out
}

// Clocks lists the distinct clocks of a group in first-declared order.
func (s *Store) Clocks(g TableGroup) []string {
	var out []string
	for _, key := range s.order {
		e := s.entries[s.byClock[key][0]]
		if e.Group == g {
			out = append(out, e.Clock)
		}
	}
	return out
}

func (s *Store) Len() int { return len(s.entries) }
