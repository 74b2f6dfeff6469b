package dvfs

import "soc_dvfs/log"

// Select returns the first candidate for clock in group that matches the
// silicon bin. Candidates are scanned in declaration order, so a wildcard
// entry never shadows an exact entry declared before it.
func (s *Store) Select(g TableGroup, clock string, processID, speedoID int) (*Entry, error) {
	cands := s.Candidates(g, clock)
	if len(cands) == 0 {
		return nil, fatalf("select", clock, ErrNoTableMatch, "no %s tables declared", g)
	}
	for _, e := range cands {
		if e.Matches(processID, speedoID) {
			return e, nil
		}
		log.Debugf("DVFS: rejected %s speedo %d, process %d", e.Clock, e.SpeedoID, e.ProcessID)
	}
	return nil, fatalf("select", clock, ErrNoTableMatch,
		"speedo %d process %d, %d candidates, no wildcard fallback", speedoID, processID, len(cands))
}

// HasFallback reports whether the last candidate is a full wildcard entry.
func (s *Store) HasFallback(g TableGroup, clock string) bool {
	cands := s.Candidates(g, clock)
	return len(cands) > 0 && cands[len(cands)-1].IsWildcard()
}
