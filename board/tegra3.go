// Package board holds SoC descriptions for the dvfs engine.
package board

import (
	"soc_dvfs/dvfs"
)

const (
	Tegra3Name = "tegra3"

	RailCPU  = "vdd_cpu"
	RailCore = "vdd_core"

	cpuMaxMV    = 1350
	cpuCapMV    = 1350
	cpuMinMV    = 762
	coreMaxMV   = 1450
	coreCapMV   = 1450
	coreMinMV   = 950
	safeStepMV  = 100
	cpuBelowMV  = 300
	maxCPUMHz   = 1900
	maxCoreKHz  = 800000
	host1xKHz   = 350000
	coldOffsMHz = 50
)

var tegra3CPULadder = dvfs.Ladder{
	762, 780, 805, 825, 875, 925, 950, 1000, 1050, 1100, 1150, 1175, 1237, 1270, 1300, 1330, cpuMaxMV,
}

var tegra3CoreLadder = dvfs.Ladder{
	950, 1000, 1050, 1100, 1150, 1200, 1250, 1300, 1350, 1375, 1410, 1430, coreMaxMV,
}

// Tegra3 returns the Tegra 3 board description.
func Tegra3() *dvfs.Board {
	cold := make([]int64, tegra3CPULadder.Len())
	for i := range cold {
		cold[i] = coldOffsMHz * dvfs.MHz
	}

	return &dvfs.Board{
		Name: Tegra3Name,
		Rails: []dvfs.RailSpec{
			{Name: RailCPU, MinMV: cpuMinMV, MaxMV: cpuCapMV, StepMV: safeStepMV, JumpToZero: true, Ladder: tegra3CPULadder},
			{Name: RailCore, MinMV: coreMinMV, MaxMV: coreCapMV, StepMV: safeStepMV, Ladder: tegra3CoreLadder},
		},
		Relationships: []dvfs.Relationship{
			// vdd_core >= floor(vdd_cpu), stepping along the cpu ladder
			dvfs.NewLadderFloor(RailCPU, RailCore, []int(tegra3CoreLadder[:12])),
			// vdd_cpu >= vdd_core - 300
			dvfs.NewBelowOffset(RailCore, RailCPU, cpuBelowMV),
		},
		Tables:         tegra3Tables(),
		CPURail:        RailCPU,
		CoreRail:       RailCore,
		CPUClock:       "cpu_g",
		CPUSingleClock: "cpu_0",
		ColdOffsets:    cold,
		CapClocks:      []string{"cap.cbus", "cap.sclk", "cap.emc"},
		BusCapClock:    "cap.profile.cbus",
		AgingSpeedoIDs: []int{12, 13},
		GPULimitClock:  "3d",
	}
}

func tegra3Tables() *dvfs.Store {
	const (
		cpu  = RailCPU
		core = RailCore
		mhz  = dvfs.MHz
		khz  = dvfs.KHz
	)
	cpuG := []int64{475, 513, 579, 620, 760, 910, 1000, 1150, 1300, 1400, 1500, 1600, 1700, 1750, 1800, 1850, maxCPUMHz}

	s := dvfs.NewStore()
	s.Add(
		dvfs.CPUEntry("cpu_g", cpu, 12, 3, mhz, cpuG...),
		dvfs.CPUEntry("cpu_g", cpu, 12, 4, mhz, cpuG...),
		// safe entry to boot at a low rate on unknown silicon; must stay last
		dvfs.CPUEntry("cpu_g", cpu, dvfs.Wildcard, dvfs.Wildcard, mhz, 1, 1, 216, 216, 300),

		dvfs.CPUSingleEntry("cpu_0", cpu, 12, 3, mhz, cpuG...),
		dvfs.CPUSingleEntry("cpu_0", cpu, 12, 4, mhz, cpuG...),
	)

	s.Add(
		dvfs.CoreEntry("cpu_lp", core, 2, true, khz, 204000, 295000, 370000, 428000, 475000, 513000, 579000, 620000, 620000, 620000, 620000, 620000, 620000),
		dvfs.CoreEntry("emc", core, 2, true, khz, 102000, 450000, 450000, 450000, 450000, 667000, 667000, 800000, 900000, 900000, 900000, 900000, 900000),
		dvfs.CoreEntry("sbus", core, 2, true, khz, 102000, 205000, 205000, 227000, 227000, 267000, 334000, 334000, 334000, 334000, 334000, 334000, 334000),
		dvfs.CoreEntry("vi", core, 2, true, khz, 1, 219000, 267000, 300000, 371000, 409000, 425000, 425000, 425000, 425000, 425000, 425000, 425000),
		dvfs.CoreEntry("vde", core, 2, true, khz, 200000, 247000, 304000, 352000, 400000, 437000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("mpe", core, 2, true, khz, 200000, 247000, 304000, 361000, 408000, 446000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("2d", core, 2, true, khz, 200000, 267000, 304000, 361000, 408000, 446000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("epp", core, 2, true, khz, 200000, 267000, 304000, 361000, 408000, 446000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("3d", core, 2, true, khz, 200000, 247000, 304000, 361000, 408000, 446000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("3d2", core, 2, true, khz, 200000, 247000, 304000, 361000, 408000, 446000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("se", core, 2, true, khz, 200000, 267000, 304000, 361000, 408000, 446000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("host1x", core, 2, true, khz, 100000, 152000, 188000, 222000, 254000, 267000, 267000, 267000, 300000, 325000, host1xKHz, host1xKHz, host1xKHz),
		dvfs.CoreEntry("cbus", core, 2, true, khz, 200000, 247000, 304000, 352000, 400000, 437000, 484000, 520000, 600000, 650000, 700000, 750000, maxCoreKHz),
		dvfs.CoreEntry("pll_c", core, dvfs.Wildcard, true, khz, 533000, 667000, 667000, 800000, 800000, 1066000, 1066000, 1066000, 1200000, 1300000, 1400000, 1500000, maxCoreKHz*2),
		dvfs.CoreEntry("mipi", core, 2, true, khz, 1, 1, 1, 1, 1, 60000, 60000, 60000, 60000, 60000, 60000, 60000, 60000),
		dvfs.CoreEntry("fuse_burn", core, dvfs.Wildcard, true, khz, 1, 1, 1, 1, 26000, 26000, 26000, 26000, 26000, 26000, 26000, 26000, 26000),
		dvfs.CoreEntry("sdmmc1", core, dvfs.Wildcard, true, khz, 104000, 104000, 104000, 104000, 104000, 208000, 208000, 208000, 208000, 208000, 208000, 208000, 208000),
		dvfs.CoreEntry("sdmmc3", core, dvfs.Wildcard, true, khz, 104000, 104000, 104000, 104000, 104000, 208000, 208000, 208000, 208000, 208000, 208000, 208000, 208000),
		dvfs.CoreEntry("sdmmc4", core, dvfs.Wildcard, true, khz, 51000, 102000, 102000, 102000, 102000, 102000, 102000, 102000, 102000, 102000, 102000, 102000, 102000),
		dvfs.CoreEntry("ndflash", core, dvfs.Wildcard, true, khz, 120000, 120000, 120000, 120000, 200000, 200000, 200000, 200000, 200000, 200000, 200000, 200000, 200000),
		dvfs.CoreEntry("nor", core, 2, true, khz, 102000, 115000, 130000, 130000, 133000, 133000, 133000, 133000, 133000, 133000, 133000, 133000, 133000),
	)
	for _, sbc := range []string{"sbc1", "sbc2", "sbc3", "sbc4", "sbc5", "sbc6"} {
		s.Add(dvfs.CoreEntry(sbc, core, dvfs.Wildcard, true, khz, 36000, 52000, 60000, 60000, 60000, 100000, 100000, 100000, 100000, 100000, 100000, 100000, 100000))
	}
	s.Add(
		dvfs.CoreEntry("sata", core, dvfs.Wildcard, true, khz, 1, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000),
		dvfs.CoreEntry("sata_oob", core, dvfs.Wildcard, true, khz, 1, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000, 216000),
		dvfs.CoreEntry("tvo", core, dvfs.Wildcard, true, khz, 1, 1, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000),
		dvfs.CoreEntry("cve", core, dvfs.Wildcard, true, khz, 1, 1, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000, 297000),
		dvfs.CoreEntry("dsia", core, dvfs.Wildcard, true, khz, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500),
		dvfs.CoreEntry("dsib", core, dvfs.Wildcard, true, khz, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500, 432500),
		dvfs.CoreEntry("pwm", core, dvfs.Wildcard, true, khz, 204000, 408000, 408000, 408000, 408000, 408000, 408000, 408000, 408000, 408000, 408000, 408000, 408000),
		dvfs.CoreEntry("disp1", core, 2, false, khz, 155000, 155000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000),
		dvfs.CoreEntry("disp2", core, 2, false, khz, 155000, 155000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000, 268000),
		dvfs.CoreEntry("pll_m", core, dvfs.Wildcard, true, khz, 533000, 667000, 667000, 800000, 800000, 1066000, 1066000, 1066000, 1066000, 1066000, 1066000, 1066000, 1066000),
	)
	return s
}
