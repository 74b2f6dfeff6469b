package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc_dvfs/dvfs"
)

var tegra3Silicon = dvfs.Silicon{
	CPUSpeedo:   12,
	CPUProcess:  3,
	SoCSpeedo:   2,
	CoreProcess: 1,
	CoreMV:      1450,
	Age:         5,
}

func newTegra3(t *testing.T, si dvfs.Silicon, opts ...dvfs.Option) (*dvfs.Engine, *dvfs.Report) {
	t.Helper()
	b := Tegra3()
	e, err := dvfs.New(b, SimulatedClocks(b), si, opts...)
	require.NoError(t, err)
	rep, err := e.Initialize()
	require.NoError(t, err)
	return e, rep
}

func TestTegra3Tables(t *testing.T) {
	b := Tegra3()
	assert.Equal(t, 17, tegra3CPULadder.Len())
	assert.Equal(t, 13, tegra3CoreLadder.Len())
	assert.True(t, b.Tables.HasFallback(dvfs.GroupCPU, "cpu_g"))

	for _, name := range b.Tables.Clocks(dvfs.GroupCore) {
		for _, e := range b.Tables.Candidates(dvfs.GroupCore, name) {
			assert.Equal(t, 13, e.Len(), name)
			_, err := e.Rates()
			assert.NoError(t, err, name)
		}
	}
}

func TestTegra3Initialize(t *testing.T) {
	e, rep := newTegra3(t, tegra3Silicon)

	assert.Equal(t, 12, rep.CoreNominalIndex)
	assert.Equal(t, 1450, rep.CoreNominalMV)
	assert.Equal(t, 16, rep.CPUNominalIndex)
	assert.Equal(t, 1350, rep.CPUNominalMV)
	assert.False(t, rep.Fallback)
	assert.Equal(t, []string{"cap.cbus", "cap.sclk", "cap.emc"}, rep.CapClocks)
	assert.Empty(t, rep.Unscaled)
	assert.Empty(t, rep.MissingClocks)

	require.Len(t, rep.ColdRates, 17)
	assert.Equal(t, 425*dvfs.MHz, rep.ColdRates[0])
	assert.Equal(t, 1850*dvfs.MHz, rep.ColdRates[16])
	require.Len(t, rep.SingleCoreRates, 17)
	assert.Equal(t, 1900*dvfs.MHz, rep.SingleCoreRates[16])

	d, err := e.Domain("host1x")
	require.NoError(t, err)
	assert.Equal(t, 350*dvfs.MHz, d.MaxRate)

	assert.Equal(t, []int{950, 1000, 1050, 1100, 1150, 1200, 1250, 1300, 1350, 1375, 1410, 1430, 1450}, e.CoreLadder())
	assert.Empty(t, e.Violations())
}

func TestTegra3UnknownSilicon(t *testing.T) {
	si := tegra3Silicon
	si.CPUSpeedo, si.SoCSpeedo = 0, 0
	e, rep := newTegra3(t, si)

	assert.True(t, rep.Fallback)
	assert.Equal(t, 4, rep.CPUNominalIndex)
	assert.Contains(t, rep.Unscaled, "emc")
	assert.NotContains(t, rep.Unscaled, "pll_c")

	d, err := e.Domain("cpu_g")
	require.NoError(t, err)
	assert.Equal(t, 300*dvfs.MHz, d.MaxRate)
}

func TestTegra3SetRate(t *testing.T) {
	e, _ := newTegra3(t, tegra3Silicon)

	require.NoError(t, e.SetRate("cpu_g", 475*dvfs.MHz))
	cpu, err := e.Rail(RailCPU)
	require.NoError(t, err)
	assert.Equal(t, 1150, cpu.CurrentMV, "held at vdd_core - 300")

	require.NoError(t, e.SetRate("3d", 200*dvfs.MHz))
	core, err := e.Rail(RailCore)
	require.NoError(t, err)
	cpu, _ = e.Rail(RailCPU)
	assert.Equal(t, 1430, core.CurrentMV, "held by cpu at 1150 mV")
	assert.Equal(t, 1150, cpu.CurrentMV)
	assert.Empty(t, e.Violations())
}

func TestTegra3CoreCap(t *testing.T) {
	b := Tegra3()
	clocks := SimulatedClocks(b)
	e, err := dvfs.New(b, clocks, tegra3Silicon)
	require.NoError(t, err)
	_, err = e.Initialize()
	require.NoError(t, err)

	require.NoError(t, e.CapAcquire(dvfs.CapCore, dvfs.RequesterKernel))
	lvl, err := e.CapSetLevel(dvfs.CapCore, dvfs.RequesterKernel, 1200)
	require.NoError(t, err)
	assert.Equal(t, 1200, lvl)

	cbus, ok := clocks.Get("cap.cbus")
	require.True(t, ok)
	assert.Equal(t, 437*dvfs.MHz, cbus.Rate())

	// The bus profiling cap takes a rate.
	require.NoError(t, e.CapAcquire(dvfs.CapBus, dvfs.RequesterUser))
	_, err = e.CapSetLevel(dvfs.CapBus, dvfs.RequesterUser, int(300*dvfs.MHz))
	require.NoError(t, err)
	prof, ok := clocks.Get("cap.profile.cbus")
	require.True(t, ok)
	assert.Equal(t, 300*dvfs.MHz, prof.Rate())
}

func TestTegra3CoreCapBoundsSetRate(t *testing.T) {
	b := Tegra3()
	clocks := SimulatedClocks(b)
	e, err := dvfs.New(b, clocks, tegra3Silicon)
	require.NoError(t, err)
	_, err = e.Initialize()
	require.NoError(t, err)

	require.NoError(t, e.CapAcquire(dvfs.CapCore, dvfs.RequesterKernel))
	_, err = e.CapSetLevel(dvfs.CapCore, dvfs.RequesterKernel, 1000)
	require.NoError(t, err)

	require.NoError(t, e.SetRate("cbus", 800*dvfs.MHz))
	cbus, ok := clocks.Get("cbus")
	require.True(t, ok)
	assert.Equal(t, 247*dvfs.MHz, cbus.Rate(), "cbus rate at 1000 mV")
	core, err := e.Rail(RailCore)
	require.NoError(t, err)
	assert.Equal(t, 1000, core.RequestedMV)
	assert.Empty(t, e.Violations())

	require.NoError(t, e.CapRelease(dvfs.CapCore, dvfs.RequesterKernel))
	assert.Equal(t, 800*dvfs.MHz, cbus.Rate())
	core, _ = e.Rail(RailCore)
	assert.Equal(t, 1450, core.RequestedMV)
}

func TestTegra3ColdZoneAtTopRate(t *testing.T) {
	e, _ := newTegra3(t, tegra3Silicon)
	require.NoError(t, e.SetRate("cpu_g", 1900*dvfs.MHz))

	got, err := e.SelectAltTable(dvfs.AltEvent{ThermalIndex: 1, Cores: 4, BeforeClockUpdate: true})
	require.NoError(t, err)
	assert.Equal(t, dvfs.AltBase, got)

	got, err = e.SelectAltTable(dvfs.AltEvent{ThermalIndex: 0, Cores: 4})
	require.NoError(t, err)
	assert.Equal(t, dvfs.AltCold, got)
	d, err := e.Domain("cpu_g")
	require.NoError(t, err)
	assert.Equal(t, 1850*dvfs.MHz, d.Rate)
	assert.Equal(t, 1850*dvfs.MHz, d.Rates[16])
	assert.Empty(t, e.Violations())
}

func TestTegra3Aging(t *testing.T) {
	e, _ := newTegra3(t, tegra3Silicon)
	assert.Equal(t, 25, e.AgeCPU(12))

	cpu, err := e.Rail(RailCPU)
	require.NoError(t, err)
	assert.Equal(t, 737, cpu.Ladder[0])
	assert.Equal(t, 1325, cpu.NominalMV)
}
