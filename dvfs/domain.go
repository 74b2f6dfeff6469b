package dvfs

import "fmt"

// ClockFlags mark clocks with special handling at init.
type ClockFlags uint32

const (
	// FlagEMC marks the memory controller clock; its max rate is owned by the
	// board EMC table and is never updated from dvfs.
	FlagEMC ClockFlags = 1 << iota
	// FlagPLLM marks the memory PLL; dvfs is skipped when its boot rate
	// already fits the lowest step.
	FlagPLLM
)

// Clock is the clock-tree view the engine needs.
type Clock interface {
	Name() string
	Rate() int64
	SetRate(hz int64) error
	// RoundRate returns the smallest achievable rate >= hz, or the maximum.
	RoundRate(hz int64) (int64, error)
	MaxRate() int64
	Parent() string
	Flags() ClockFlags
}

// MaxRateSetter is implemented by clocks whose ceiling can be lowered to the
// rate allowed at nominal voltage.
type MaxRateSetter interface {
	SetMaxRate(hz int64)
}

type ClockService interface {
	Lookup(name string) (Clock, bool)
}

// Domain is a clock scaled against one rail.
type Domain struct {
	Name    string
	Rail    *Rail
	Entry   *Entry
	Clock   Clock
	Enabled bool
	// Fallback is set when Entry is the safe wildcard entry.
	Fallback bool

	rates []int64
	alt   []int64
	// want is the last rate asked for; rate is what the clock runs at after
	// the alternate table top and the core cap are applied.
	want    int64
	rate    int64
	nominal int
}

// Rates returns the active table in Hz, the alternate one if set.
func (d *Domain) Rates() []int64 {
	if d.alt != nil {
		return d.alt
	}
	return d.rates
}

func (d *Domain) BaseRates() []int64 { return d.rates }

func (d *Domain) NominalIndex() int { return d.nominal }

// MaxRate is the highest rate allowed at the rail's nominal voltage.
func (d *Domain) MaxRate() int64 {
	if len(d.rates) == 0 {
		return 0
	}
	if d.nominal < len(d.rates) {
		return d.rates[d.nominal]
	}
	return d.rates[len(d.rates)-1]
}

// altTop is the highest rate of the alternate table, or 0 when none is set.
func (d *Domain) altTop() int64 {
	if len(d.alt) == 0 {
		return 0
	}
	if d.nominal < len(d.alt) {
		return d.alt[d.nominal]
	}
	return d.alt[len(d.alt)-1]
}

// RateAt returns the table rate at ladder step i.
func (d *Domain) RateAt(i int) (int64, bool) {
	rates := d.Rates()
	if i < 0 || i >= len(rates) {
		return 0, false
	}
	return rates[i], true
}

// PredictMillivolts returns the lowest ladder voltage that supports rate. An
// unscaled domain needs no voltage.
func (d *Domain) PredictMillivolts(rate int64) (int, error) {
	rates := d.Rates()
	if len(rates) == 0 {
		return 0, nil
	}
	l := d.Rail.Ladder
	for i, r := range rates {
		if i >= l.Len() {
			break
		}
		if rate <= r {
			return l[i], nil
		}
	}
	return 0, fmt.Errorf("%w: %s %d Hz", ErrRateAboveTable, d.Name, rate)
}

// DomainInfo is a report line for one domain.
type DomainInfo struct {
	Name     string  `json:"name"`
	Rail     string  `json:"rail"`
	Table    string  `json:"table,omitempty"`
	Enabled  bool    `json:"enabled"`
	Fallback bool    `json:"fallback,omitempty"`
	MaxRate  int64   `json:"max_rate"`
	Rate     int64   `json:"rate,omitempty"`
	Rates    []int64 `json:"rates,omitempty"`
}

func (d *Domain) Info() DomainInfo {
	info := DomainInfo{
		Name:     d.Name,
		Enabled:  d.Enabled,
		Fallback: d.Fallback,
		MaxRate:  d.MaxRate(),
		Rate:     d.rate,
		Rates:    append([]int64(nil), d.Rates()...),
	}
	if d.Rail != nil {
		info.Rail = d.Rail.Name
	}
	if d.Entry != nil {
		info.Table = d.Entry.String()
	}
	return info
}
