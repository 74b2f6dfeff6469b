package board

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"soc_dvfs/dvfs"
)

type fileRail struct {
	Name       string `yaml:"name"`
	MinMV      int    `yaml:"min_mv"`
	MaxMV      int    `yaml:"max_mv"`
	StepMV     int    `yaml:"step_mv"`
	JumpToZero bool   `yaml:"jump_to_zero"`
	Ladder     []int  `yaml:"ladder"`
}

type fileRelationship struct {
	Kind   string `yaml:"kind"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Floors []int  `yaml:"floors"`
	Offset int    `yaml:"offset"`
}

type fileTable struct {
	Clock     string  `yaml:"clock"`
	Rail      string  `yaml:"rail"`
	Group     string  `yaml:"group"`
	SpeedoID  *int    `yaml:"speedo_id"`
	ProcessID *int    `yaml:"process_id"`
	Mult      string  `yaml:"mult"`
	Auto      *bool   `yaml:"auto"`
	Freqs     []int64 `yaml:"freqs"`
}

type fileBoard struct {
	Name           string             `yaml:"name"`
	Rails          []fileRail         `yaml:"rails"`
	Relationships  []fileRelationship `yaml:"relationships"`
	CPURail        string             `yaml:"cpu_rail"`
	CoreRail       string             `yaml:"core_rail"`
	CPUClock       string             `yaml:"cpu_clock"`
	CPUSingleClock string             `yaml:"cpu_single_clock"`
	ColdOffsetMHz  []int64            `yaml:"cold_offset_mhz"`
	CapClocks      []string           `yaml:"cap_clocks"`
	BusCapClock    string             `yaml:"bus_cap_clock"`
	AgingSpeedoIDs []int              `yaml:"aging_speedo_ids"`
	GPULimitClock  string             `yaml:"gpu_limit_clock"`
	Tables         []fileTable        `yaml:"tables"`
}

// Lookup returns a built-in board by name, or loads name as a YAML file.
func Lookup(name string) (*dvfs.Board, error) {
	if name == "" || name == Tegra3Name {
		return Tegra3(), nil
	}
	return LoadFile(name)
}

func LoadFile(path string) (*dvfs.Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", path, err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes a YAML board description. Unknown keys are rejected.
func Parse(data []byte) (*dvfs.Board, error) {
	var fb fileBoard
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fb); err != nil {
		return nil, err
	}

	b := &dvfs.Board{
		Name:           fb.Name,
		CPURail:        fb.CPURail,
		CoreRail:       fb.CoreRail,
		CPUClock:       fb.CPUClock,
		CPUSingleClock: fb.CPUSingleClock,
		CapClocks:      fb.CapClocks,
		BusCapClock:    fb.BusCapClock,
		AgingSpeedoIDs: fb.AgingSpeedoIDs,
		GPULimitClock:  fb.GPULimitClock,
		Tables:         dvfs.NewStore(),
	}
	for _, r := range fb.Rails {
		b.Rails = append(b.Rails, dvfs.RailSpec{
			Name:       r.Name,
			MinMV:      r.MinMV,
			MaxMV:      r.MaxMV,
			StepMV:     r.StepMV,
			JumpToZero: r.JumpToZero,
			Ladder:     dvfs.Ladder(r.Ladder),
		})
	}
	for _, r := range fb.Relationships {
		switch r.Kind {
		case dvfs.LadderFloor.String():
			b.Relationships = append(b.Relationships, dvfs.NewLadderFloor(r.From, r.To, r.Floors))
		case dvfs.BelowOffset.String():
			b.Relationships = append(b.Relationships, dvfs.NewBelowOffset(r.From, r.To, r.Offset))
		default:
			return nil, fmt.Errorf("%w: relationship %s->%s kind %q", dvfs.ErrBadTable, r.From, r.To, r.Kind)
		}
	}
	for _, offs := range fb.ColdOffsetMHz {
		b.ColdOffsets = append(b.ColdOffsets, offs*dvfs.MHz)
	}
	for i, t := range fb.Tables {
		e, err := t.entry()
		if err != nil {
			return nil, fmt.Errorf("table %d (%s): %w", i, t.Clock, err)
		}
		b.Tables.Add(e)
	}
	return b, nil
}

func (t fileTable) entry() (dvfs.Entry, error) {
	mult, err := parseMult(t.Mult)
	if err != nil {
		return dvfs.Entry{}, err
	}
	speedo, process := dvfs.Wildcard, dvfs.Wildcard
	if t.SpeedoID != nil {
		speedo = *t.SpeedoID
	}
	if t.ProcessID != nil {
		process = *t.ProcessID
	}

	switch t.Group {
	case dvfs.GroupCPU.String():
		return dvfs.CPUEntry(t.Clock, t.Rail, speedo, process, mult, t.Freqs...), nil
	case dvfs.GroupCPUSingle.String():
		return dvfs.CPUSingleEntry(t.Clock, t.Rail, speedo, process, mult, t.Freqs...), nil
	case dvfs.GroupCore.String(), "":
		auto := true
		if t.Auto != nil {
			auto = *t.Auto
		}
		return dvfs.CoreEntry(t.Clock, t.Rail, speedo, auto, mult, t.Freqs...), nil
	}
	return dvfs.Entry{}, fmt.Errorf("%w: group %q", dvfs.ErrBadTable, t.Group)
}

func parseMult(s string) (int64, error) {
	switch strings.ToLower(s) {
	case "", "hz":
		return 1, nil
	case "khz":
		return dvfs.KHz, nil
	case "mhz":
		return dvfs.MHz, nil
	}
	return 0, fmt.Errorf("%w: frequency unit %q", dvfs.ErrBadTable, s)
}
