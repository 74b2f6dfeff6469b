package board

import (
	"strings"

	"soc_dvfs/device/clk"
	"soc_dvfs/dvfs"
)

// busAliases maps cap clock suffixes to the domain they follow when the names
// differ.
var busAliases = map[string]string{
	"sclk": "sbus",
}

// SimulatedClocks builds a clock tree for every clock named by the board
// tables. Each clock boots at its lowest table rate and tops out at its
// highest; cap clocks follow the domain named by their suffix.
func SimulatedClocks(b *dvfs.Board) *clk.Tree {
	t := clk.NewTree()
	top := map[string]int64{}

	add := func(g dvfs.TableGroup, name string) {
		cands := b.Tables.Candidates(g, name)
		if len(cands) == 0 {
			return
		}
		rates, err := cands[0].Rates()
		if err != nil || len(rates) == 0 {
			return
		}
		s := clk.Spec{
			Name:    name,
			Rate:    rates[0],
			MaxRate: rates[len(rates)-1],
			StepHz:  dvfs.KHz,
		}
		switch name {
		case "emc":
			s.Flags = dvfs.FlagEMC
			s.Rate = s.MaxRate
		case "pll_m":
			s.Flags = dvfs.FlagPLLM
			s.Rate = s.MaxRate
		}
		top[name] = s.MaxRate
		t.Add(s)
	}
	for _, name := range b.Tables.Clocks(dvfs.GroupCore) {
		add(dvfs.GroupCore, name)
	}
	add(dvfs.GroupCPU, b.CPUClock)

	caps := append([]string(nil), b.CapClocks...)
	if b.BusCapClock != "" {
		caps = append(caps, b.BusCapClock)
	}
	for _, name := range caps {
		parent := capParent(name)
		hz, ok := top[parent]
		if !ok {
			continue
		}
		t.Add(clk.Spec{
			Name:    name,
			Parent:  parent,
			Rate:    hz,
			MinRate: dvfs.MHz,
			MaxRate: hz,
			StepHz:  dvfs.MHz,
		})
	}
	return t
}

func capParent(name string) string {
	p := strings.TrimPrefix(name, "cap.")
	p = strings.TrimPrefix(p, "profile.")
	if a, ok := busAliases[p]; ok {
		return a
	}
	return p
}
