package dvfs

// AltTable names the table active on the CPU domain.
type AltTable int

const (
	AltBase AltTable = iota
	AltCold
	AltSingleCore
)

func (a AltTable) String() string {
	switch a {
	case AltCold:
		return "cold"
	case AltSingleCore:
		return "single-core"
	}
	return "base"
}

// AltEvent describes a thermal or cpu hotplug event. ThermalIndex 0 is the
// cold zone.
type AltEvent struct {
	ThermalIndex      int
	Cores             int
	BeforeClockUpdate bool
	CPUEvent          bool
}

// chooseAlt picks the table for ev and reports whether it should be applied
// in this phase. A warm zone switches tables before the clock update, a cold
// one after it. Hotplug events switch in either phase.
func chooseAlt(ev AltEvent, single []int64) (AltTable, bool) {
	warm := ev.ThermalIndex != 0
	t := AltCold
	if warm {
		t = AltBase
		if ev.Cores <= 1 && single != nil {
			t = AltSingleCore
		}
	}
	return t, ev.CPUEvent || warm == ev.BeforeClockUpdate
}
