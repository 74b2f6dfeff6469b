package dvfs

import (
	"fmt"

	"soc_dvfs/log"
)

// ColdTable derives the cold-zone table from base by lowering every step up
// to nominal by its offset. A step whose offset cannot be honoured keeps the
// base rate. Steps past nominal repeat the nominal step.
func ColdTable(base, offsets []int64, nominal int) ([]int64, error) {
	if nominal <= 0 || nominal > len(base) {
		return nil, fatalf("cold table", "", ErrBadTable,
			"nominal index %d outside 1..%d", nominal, len(base))
	}
	out := make([]int64, len(base))
	for i := range base {
		var offs int64
		if i < len(offsets) {
			offs = offsets[i]
		}
		switch {
		case i > nominal:
			out[i] = out[i-1]
		case base[i] > offs:
			out[i] = base[i] - offs
		default:
			out[i] = base[i]
			log.Warnf("DVFS: cold offset %d is too high for regular dvfs limit %d", offs, base[i])
		}
		if i > 0 && out[i] < out[i-1] {
			return nil, fatalf("cold table", "", ErrNotMonotonic,
				"step %d (%d) below step %d (%d)", i, out[i], i-1, out[i-1])
		}
	}
	return out, nil
}

// SingleCoreTable finds the single-core entry for the bin of multi and
// returns its rates. It returns nil when the bin has no single-core table.
// The rates must not decrease and the top rate must equal the multi-core top
// rate.
func SingleCoreTable(store *Store, clock string, multi *Entry, multiRates []int64) ([]int64, error) {
	var match *Entry
	for _, e := range store.Candidates(GroupCPUSingle, clock) {
		if e.Matches(multi.ProcessID, multi.SpeedoID) {
			match = e
			break
		}
	}
	if match == nil {
		return nil, nil
	}
	n := len(multiRates)
	if n == 0 {
		return nil, fatalf("single-core table", clock, ErrBadTable, "empty multi-core table")
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		if i < len(match.Freqs) {
			out[i] = match.Freqs[i] * match.Mult
		}
		if out[i] == 0 {
			if i == 0 {
				return nil, fatalf("single-core table", clock, ErrBadTable, "first step undefined")
			}
			out[i] = out[i-1]
		}
	}
	if err := checkMonotonic(clock, out); err != nil {
		return nil, &FatalError{Op: "single-core table", Domain: clock, Err: err}
	}
	if out[n-1] != multiRates[n-1] {
		return nil, fatalf("single-core table", clock, ErrTopFreqMismatch,
			"single-core top %d Hz, multi-core top %d Hz", out[n-1], multiRates[n-1])
	}
	return out, nil
}

func checkMonotonic(name string, rates []int64) error {
	for i := 1; i < len(rates); i++ {
		if rates[i] < rates[i-1] {
			return fmt.Errorf("%w: %s step %d (%d Hz) below step %d (%d Hz)",
				ErrNotMonotonic, name, i, rates[i], i-1, rates[i-1])
		}
	}
	return nil
}
