package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for rails, caps and alternate tables.
// All methods are safe on a nil receiver so the engine can run without it.
type Metrics struct {
	RailMillivolts   *prometheus.GaugeVec
	RailNominal      *prometheus.GaugeVec
	RailEnabled      *prometheus.GaugeVec
	RailSteps        *prometheus.CounterVec
	ApplyFailures    *prometheus.CounterVec
	SolverBoundary   *prometheus.CounterVec
	CapLevel         *prometheus.GaugeVec
	CapActive        *prometheus.GaugeVec
	AltTableSwitches *prometheus.CounterVec
}

// New registers all dvfs metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RailMillivolts: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dvfs_rail_millivolts",
			Help: "Last voltage programmed on the rail",
		}, []string{"rail"}),
		RailNominal: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dvfs_rail_nominal_millivolts",
			Help: "Nominal voltage computed for the rail at init",
		}, []string{"rail"}),
		RailEnabled: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dvfs_rail_scaling_enabled",
			Help: "1 when voltage scaling is enabled on the rail",
		}, []string{"rail"}),
		RailSteps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dvfs_rail_steps_total",
			Help: "Regulator programming operations per rail",
		}, []string{"rail"}),
		ApplyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dvfs_apply_failures_total",
			Help: "Regulator or clock refusals while applying a plan",
		}, []string{"rail"}),
		SolverBoundary: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dvfs_solver_boundary_total",
			Help: "Floors clamped at a rail maximum",
		}, []string{"rail"}),
		CapLevel: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dvfs_cap_level",
			Help: "Effective cap level (mV for core, Hz for bus)",
		}, []string{"cap"}),
		CapActive: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dvfs_cap_active",
			Help: "1 when at least one requester holds the cap",
		}, []string{"cap"}),
		AltTableSwitches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dvfs_alt_table_switches_total",
			Help: "CPU alternate table selections",
		}, []string{"table"}),
	}
}

func (m *Metrics) SetRailMillivolts(rail string, mv int) {
	if m == nil {
		return
	}
	m.RailMillivolts.WithLabelValues(rail).Set(float64(mv))
	m.RailSteps.WithLabelValues(rail).Inc()
}

func (m *Metrics) SetRailNominal(rail string, mv int) {
	if m == nil {
		return
	}
	m.RailNominal.WithLabelValues(rail).Set(float64(mv))
}

func (m *Metrics) SetRailEnabled(rail string, enabled bool) {
	if m == nil {
		return
	}
	m.RailEnabled.WithLabelValues(rail).Set(boolFloat(enabled))
}

func (m *Metrics) IncApplyFailure(rail string) {
	if m == nil {
		return
	}
	m.ApplyFailures.WithLabelValues(rail).Inc()
}

func (m *Metrics) IncBoundary(rail string) {
	if m == nil {
		return
	}
	m.SolverBoundary.WithLabelValues(rail).Inc()
}

func (m *Metrics) SetCap(name string, level int, active bool) {
	if m == nil {
		return
	}
	m.CapLevel.WithLabelValues(name).Set(float64(level))
	m.CapActive.WithLabelValues(name).Set(boolFloat(active))
}

func (m *Metrics) IncAltTable(table string) {
	if m == nil {
		return
	}
	m.AltTableSwitches.WithLabelValues(table).Inc()
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
