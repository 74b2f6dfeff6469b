package dvfs

import (
	"fmt"
	"sync"

	"soc_dvfs/log"
	"soc_dvfs/metrics"
)

// Board is the static description of an SoC: rails, relationships, tables and
// the clocks used for caps.
type Board struct {
	Name          string
	Rails         []RailSpec
	Relationships []Relationship
	Tables        *Store

	CPURail  string
	CoreRail string
	// CPUClock is the multi-core CPU domain; CPUSingleClock names the
	// single-core alternate tables.
	CPUClock       string
	CPUSingleClock string
	// ColdOffsets are subtracted per step (Hz) from the CPU table in the cold
	// zone.
	ColdOffsets []int64

	// CapClocks are listed in the order they are lowered.
	CapClocks   []string
	BusCapClock string

	// AgingSpeedoIDs are the CPU bins that get aging compensation.
	AgingSpeedoIDs []int
	// GPULimitClock is the domain reported by the user cap level hook.
	GPULimitClock string
}

func (b *Board) validate() error {
	if b.Tables == nil || b.Tables.Len() == 0 {
		return fmt.Errorf("%w: board %s has no tables", ErrBadTable, b.Name)
	}
	if b.CPURail == "" || b.CoreRail == "" || b.CPUClock == "" {
		return fmt.Errorf("%w: board %s needs cpu rail, core rail and cpu clock", ErrBadTable, b.Name)
	}
	return nil
}

// Report summarizes initialization.
type Report struct {
	CPUNominalMV     int      `json:"cpu_nominal_mv"`
	CPUNominalIndex  int      `json:"cpu_nominal_index"`
	CoreNominalMV    int      `json:"core_nominal_mv"`
	CoreNominalIndex int      `json:"core_nominal_index"`
	CPUTable         string   `json:"cpu_table"`
	Fallback         bool     `json:"fallback"`
	ColdRates        []int64  `json:"cold_rates"`
	SingleCoreRates  []int64  `json:"single_core_rates,omitempty"`
	Unscaled         []string `json:"unscaled,omitempty"`
	MissingClocks    []string `json:"missing_clocks,omitempty"`
	CapClocks        []string `json:"cap_clocks,omitempty"`
	DisabledRails    []string `json:"disabled_rails,omitempty"`
}

// Engine owns all dvfs state of one SoC.
type Engine struct {
	board   *Board
	clocks  ClockService
	silicon SiliconInfo
	metrics *metrics.Metrics

	regs     map[string]Regulator
	disable  map[string]bool
	hook     UserLevelHook
	gpuLimit bool

	mu          sync.Mutex
	rails       []*Rail
	railByName  map[string]*Rail
	solver      *Solver
	cpuRail     *Rail
	coreRail    *Rail
	domains     map[string]*Domain
	domainOrder []string
	cpu         *Domain
	cold        []int64
	single      []int64
	alt         AltTable
	ageOffset   int
	report      *Report

	caps *CapEngine
	// coreCap is the core cap level in force, 0 when no cap is active.
	coreCap int
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRegulator attaches the supply driver of a rail. Rails without one are
// tracked in memory only.
func WithRegulator(rail string, r Regulator) Option {
	return func(e *Engine) { e.regs[rail] = r }
}

// WithRailDisabled disables scaling on a rail once initialization is done.
func WithRailDisabled(rail string) Option {
	return func(e *Engine) { e.disable[rail] = true }
}

func WithUserLevelHook(h UserLevelHook) Option {
	return func(e *Engine) { e.hook = h }
}

// WithGPULimit installs the user level hook that reports the Board's
// GPULimitClock rate for a requested level and clamps the level to the top
// core step.
func WithGPULimit() Option {
	return func(e *Engine) { e.gpuLimit = true }
}

// New validates the board and builds its rails. Tables are not touched until
// Initialize.
func New(board *Board, clocks ClockService, silicon SiliconInfo, opts ...Option) (*Engine, error) {
	if err := board.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		board:      board,
		clocks:     clocks,
		silicon:    silicon,
		regs:       map[string]Regulator{},
		disable:    map[string]bool{},
		railByName: map[string]*Rail{},
		domains:    map[string]*Domain{},
	}
	for _, o := range opts {
		o(e)
	}

	for _, s := range board.Rails {
		r, err := newRail(s)
		if err != nil {
			return nil, err
		}
		r.reg = e.regs[s.Name]
		e.rails = append(e.rails, r)
		e.railByName[r.Name] = r
	}
	var ok bool
	if e.cpuRail, ok = e.railByName[board.CPURail]; !ok {
		return nil, fmt.Errorf("%w: cpu rail %s", ErrUnknownRail, board.CPURail)
	}
	if e.coreRail, ok = e.railByName[board.CoreRail]; !ok {
		return nil, fmt.Errorf("%w: core rail %s", ErrUnknownRail, board.CoreRail)
	}
	s, err := NewSolver(e.rails, board.Relationships, e.metrics)
	if err != nil {
		return nil, err
	}
	e.solver = s
	return e, nil
}

// Initialize selects tables, computes nominal voltages, derives the alternate
// CPU tables and sets up caps. Any returned error that IsFatal means the SoC
// must not be scaled.
func (e *Engine) Initialize() (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.report != nil {
		return e.report, nil
	}
	b := e.board
	rep := &Report{}

	coreIdx := coreNominalIndex(e.coreRail.Ladder, e.silicon.CoreSpeedoMV(), e.silicon.CoreEDPLimitMV())
	if coreIdx < 0 {
		e.disable[e.coreRail.Name] = true
		coreIdx = 0
	}
	e.coreRail.NominalMV = e.coreRail.Ladder[coreIdx]
	log.Infof("DVFS: core nominal mv index: %d", coreIdx)

	rel := e.nominalRelationship()
	if rel == nil {
		return nil, fatalf("nominal", e.cpuRail.Name, ErrBadTable,
			"no relationship from %s to %s solved at nominal", e.cpuRail.Name, e.coreRail.Name)
	}
	cpuMV, err := drivingNominalMV(rel, e.cpuRail, e.coreRail, e.silicon.CPUSpeedoMV())
	if err != nil {
		return nil, err
	}

	speedo, process := e.silicon.CPUSpeedoID(), e.silicon.CPUProcessID()
	cpuEntry, err := b.Tables.Select(GroupCPU, b.CPUClock, process, speedo)
	if err != nil {
		return nil, err
	}
	cpuClk, ok := e.clocks.Lookup(b.CPUClock)
	if !ok {
		return nil, fatalf("nominal", b.CPUClock, ErrUnknownDomain, "cpu clock not found")
	}
	cpuIdx, err := tableNominalIndex(cpuEntry, e.cpuRail.Ladder, cpuMV, cpuClk.MaxRate())
	if err != nil {
		return nil, err
	}
	cands := b.Tables.Candidates(GroupCPU, b.CPUClock)
	fallback := cands[len(cands)-1] == cpuEntry
	if fallback {
		log.Warnf("DVFS: no cpu dvfs table found for chip speedo_id %d and process_id %d: set CPU rate limit at %d",
			speedo, process, cpuEntry.Freqs[cpuIdx]*cpuEntry.Mult)
	}
	e.cpuRail.NominalMV = e.cpuRail.Ladder[cpuIdx]
	log.Infof("DVFS: cpu nominal mv index: %d", cpuIdx)

	for _, r := range e.rails {
		if r.NominalMV == 0 {
			r.NominalMV = r.Ladder.Top()
		}
		r.CurrentMV = r.readBack()
		r.RequestedMV = r.NominalMV
	}

	soc, coreProcess := e.silicon.SoCSpeedoID(), e.silicon.CoreProcessID()
	for _, name := range b.Tables.Clocks(GroupCore) {
		entry, err := b.Tables.Select(GroupCore, name, coreProcess, soc)
		if err != nil {
			log.Debugf("DVFS: %s left unscaled: %v", name, err)
			rep.Unscaled = append(rep.Unscaled, name)
			continue
		}
		d, err := e.initDomain(entry, coreIdx)
		if err != nil {
			return nil, err
		}
		if d == nil {
			rep.MissingClocks = append(rep.MissingClocks, name)
		}
	}
	cpu, err := e.initDomain(cpuEntry, cpuIdx)
	if err != nil {
		return nil, err
	}
	cpu.Fallback = fallback
	e.cpu = cpu

	if e.cold, err = ColdTable(cpu.rates, b.ColdOffsets, cpuIdx); err != nil {
		return nil, err
	}
	if b.CPUSingleClock != "" {
		if e.single, err = SingleCoreTable(b.Tables, b.CPUSingleClock, cpuEntry, cpu.rates); err != nil {
			return nil, err
		}
	}

	e.caps = e.initCaps(rep)

	if err := e.settle(); err != nil {
		return nil, err
	}
	for _, r := range e.rails {
		if e.disable[r.Name] {
			r.disable()
			rep.DisabledRails = append(rep.DisabledRails, r.Name)
		}
		e.metrics.SetRailNominal(r.Name, r.NominalMV)
		e.metrics.SetRailEnabled(r.Name, r.Enabled)
		log.Infof("DVFS: %s nominal %d mV, scaling %s", r.Name, r.NominalMV, enabledString(r.Enabled))
	}

	rep.CPUNominalMV, rep.CPUNominalIndex = e.cpuRail.NominalMV, cpuIdx
	rep.CoreNominalMV, rep.CoreNominalIndex = e.coreRail.NominalMV, coreIdx
	rep.CPUTable = cpuEntry.String()
	rep.Fallback = fallback
	rep.ColdRates = e.cold
	rep.SingleCoreRates = e.single
	e.report = rep
	return rep, nil
}

// settle moves every scaled rail that booted off nominal to nominal. Rails
// left for WithRailDisabled are moved by disable.
func (e *Engine) settle() error {
	for _, r := range e.rails {
		if e.disable[r.Name] || r.CurrentMV == r.NominalMV {
			continue
		}
		log.Infof("DVFS: %s boots at %d mV, moving to nominal %d mV", r.Name, r.CurrentMV, r.NominalMV)
		if _, err := e.change(r.Name, r.NominalMV, nil); err != nil {
			return fmt.Errorf("settle %s at nominal: %w", r.Name, err)
		}
	}
	return nil
}

func (e *Engine) nominalRelationship() *Relationship {
	for i := range e.board.Relationships {
		r := &e.board.Relationships[i]
		if r.SolvedAtNominal && r.From == e.cpuRail.Name && r.To == e.coreRail.Name {
			return r
		}
	}
	return nil
}

// initDomain attaches a selected table to its clock. A missing clock is not
// an error; the domain is simply not scaled.
func (e *Engine) initDomain(entry *Entry, nominal int) (*Domain, error) {
	clk, ok := e.clocks.Lookup(entry.Clock)
	if !ok {
		log.Debugf("DVFS: no clock found for %s", entry.Clock)
		return nil, nil
	}
	rates, err := entry.Rates()
	if err != nil {
		return nil, &FatalError{Op: "init", Domain: entry.Clock, Err: err}
	}
	if err := checkMonotonic(entry.Clock, rates); err != nil {
		return nil, &FatalError{Op: "init", Domain: entry.Clock, Err: err}
	}
	rail := e.railByName[entry.Rail]
	if rail == nil {
		return nil, fatalf("init", entry.Clock, ErrUnknownRail, "%s", entry.Rail)
	}

	if clk.Flags()&FlagEMC == 0 && entry.AutoDVFS {
		if nominal >= len(entry.Freqs) || entry.Freqs[nominal] == 0 {
			return nil, fatalf("init", entry.Clock, ErrBadTable, "no rate at nominal index %d", nominal)
		}
		if s, ok := clk.(MaxRateSetter); ok {
			s.SetMaxRate(entry.Freqs[nominal] * entry.Mult)
		}
	}

	d := &Domain{
		Name:    entry.Clock,
		Rail:    rail,
		Entry:   entry,
		Clock:   clk,
		rates:   rates,
		nominal: nominal,
		Enabled: true,
	}
	if clk.Flags()&FlagPLLM != 0 && clk.Rate() <= rates[0] {
		d.Enabled = false
		log.Debugf("DVFS: %s boot rate %d fits the lowest step, dvfs skipped", d.Name, clk.Rate())
	}
	if _, dup := e.domains[d.Name]; !dup {
		e.domainOrder = append(e.domainOrder, d.Name)
	}
	e.domains[d.Name] = d
	return d, nil
}

func (e *Engine) initCaps(rep *Report) *CapEngine {
	var clocks []CapClock
	for _, name := range e.board.CapClocks {
		cc := CapClock{Name: name}
		clk, ok := e.clocks.Lookup(name)
		parent := e.domains[parentName(clk, ok)]
		if !ok || parent == nil {
			log.Errorf("DVFS: failed to initialize %s frequency table", name)
			clocks = append(clocks, cc)
			continue
		}
		rates, err := capRates(clk, parent, e.coreRail.Ladder)
		if err != nil {
			log.Errorf("DVFS: failed to initialize %s frequency table: %v", name, err)
			clocks = append(clocks, cc)
			continue
		}
		cc.Clock, cc.Rates = clk, rates
		clocks = append(clocks, cc)
		rep.CapClocks = append(rep.CapClocks, name)
	}

	var bus Clock
	if e.board.BusCapClock != "" {
		if clk, ok := e.clocks.Lookup(e.board.BusCapClock); ok {
			bus = clk
		}
	}
	caps := NewCapEngine(e.coreRail.Ladder, e.coreRail.MaxMV, clocks, e.board.BusCapClock, bus, e.metrics)
	switch {
	case e.hook != nil:
		caps.SetUserLevelHook(e.hook)
	case e.gpuLimit:
		caps.SetUserLevelHook(e.gpuLimitHook())
	}
	log.Infof("DVFS: cap interface is initialized")
	return caps
}

func parentName(c Clock, ok bool) string {
	if !ok {
		return ""
	}
	return c.Parent()
}

func (e *Engine) gpuLimitHook() UserLevelHook {
	return func(level int) int {
		e.mu.Lock()
		ladder := e.coreRail.Ladder
		d := e.domains[e.board.GPULimitClock]
		var rates []int64
		if d != nil {
			rates = d.Rates()
		}
		e.mu.Unlock()

		if i := ladder.Index(level); i >= 0 && i < len(rates) {
			log.Infof("CAP: limiting (GPU etc...) to %dMHz (%dmV)", rates[i]/MHz, level)
		} else {
			log.Warnf("CAP: limiting (GPU etc...): wrong voltage cap %d mV", level)
		}
		if top := ladder.Top(); level > top {
			level = top
		}
		return level
	}
}

func (e *Engine) ready() error {
	if e.report == nil {
		return ErrNotInitialized
	}
	return nil
}

// Plan is the pre-check half of a rail change.
func (e *Engine) Plan(rail string, mv int) (*Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.solver.Plan(rail, mv)
}

// Commit applies the rails of p moving in the given phase.
func (e *Engine) Commit(p *Plan, beforeClock bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	return e.solver.Commit(p, beforeClock)
}

// RequestRailChange plans and fully commits a rail change with no clock
// change in between.
func (e *Engine) RequestRailChange(rail string, mv int) (*Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.change(rail, mv, nil)
}

// change plans a rail change and commits it around an optional clock update.
func (e *Engine) change(rail string, mv int, clockUpdate func() error) (*Plan, error) {
	p, err := e.solver.Plan(rail, mv)
	if err != nil {
		return nil, err
	}
	if err := e.solver.Commit(p, true); err != nil {
		return p, err
	}
	if clockUpdate != nil {
		if err := clockUpdate(); err != nil {
			return p, err
		}
	}
	return p, e.solver.Commit(p, false)
}

// SetRate moves a domain to rate, raising its rail before the clock and
// lowering it after.
func (e *Engine) SetRate(domain string, rate int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	d, ok := e.domains[domain]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return e.setRate(d, rate)
}

func (e *Engine) setRate(d *Domain, want int64) error {
	rate := want
	if d.Enabled {
		rate = e.limitRate(d, want)
	}
	setClock := func() error {
		if err := d.Clock.SetRate(rate); err != nil {
			return fmt.Errorf("set %s rate %d Hz: %w", d.Name, rate, err)
		}
		return nil
	}
	if !d.Enabled {
		if err := setClock(); err != nil {
			return err
		}
		d.want, d.rate = want, rate
		return nil
	}

	mv, err := d.PredictMillivolts(rate)
	if err != nil {
		return err
	}
	prev, had := d.Rail.demands[d.Name]
	agg := d.Rail.demand(d.Name, mv)
	if _, err := e.change(d.Rail.Name, agg, setClock); err != nil {
		if had {
			d.Rail.demands[d.Name] = prev
		} else {
			delete(d.Rail.demands, d.Name)
		}
		return err
	}
	d.want, d.rate = want, rate
	return nil
}

// limitRate bounds want by the top of an alternate table and, for domains on
// the core rail, by the rate allowed at the core cap level.
func (e *Engine) limitRate(d *Domain, want int64) int64 {
	rate := want
	if top := d.altTop(); top > 0 && rate > top {
		rate = top
	}
	if e.coreCap > 0 && d.Rail == e.coreRail {
		i := d.Rail.Ladder.FloorIndex(e.coreCap)
		if i < 0 {
			i = 0
		}
		if capped, ok := d.RateAt(i); ok && rate > capped {
			rate = capped
		}
	}
	if rate != want {
		log.Debugf("DVFS: %s limited to %d Hz (asked %d Hz)", d.Name, rate, want)
	}
	return rate
}

// applyCoreCap moves the core cap level into the solver and re-applies the
// wanted rate of every core domain the new level affects.
func (e *Engine) applyCoreCap(c *CapEngine) error {
	st, err := c.State(CapCore)
	if err != nil {
		return err
	}
	level := 0
	if st.Active {
		level = st.Level
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if level == e.coreCap {
		return nil
	}
	e.coreCap = level
	e.solver.SetCeiling(e.coreRail.Name, level)

	var first error
	for _, name := range e.domainOrder {
		d := e.domains[name]
		if d.Rail != e.coreRail || !d.Enabled || d.want == 0 {
			continue
		}
		if e.limitRate(d, d.want) == d.rate {
			continue
		}
		if err := e.setRate(d, d.want); err != nil {
			log.Errorf("DVFS: %s failed to follow core cap %d mV: %v", d.Name, level, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (e *Engine) PredictMillivolts(domain string, rate int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.domains[domain]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return d.PredictMillivolts(rate)
}

// SelectAltTable switches the CPU domain between its base, cold and
// single-core tables and re-evaluates the CPU voltage for the wanted rate.
// A rate above the top of the new table is lowered to that top first.
func (e *Engine) SelectAltTable(ev AltEvent) (AltTable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return AltBase, err
	}

	t, apply := chooseAlt(ev, e.single)
	if !apply {
		return e.alt, nil
	}
	prevAlt, prevRates := e.alt, e.cpu.alt
	switch t {
	case AltCold:
		e.cpu.alt = e.cold
	case AltSingleCore:
		e.cpu.alt = e.single
	default:
		e.cpu.alt = nil
	}
	if e.cpu.want > 0 && e.cpu.Enabled {
		if err := e.setRate(e.cpu, e.cpu.want); err != nil {
			e.cpu.alt = prevRates
			state := "cold"
			if ev.ThermalIndex != 0 {
				state = "warm"
			}
			log.Errorf("DVFS: failed to set alternative dvfs on %d %s CPUs: %v", ev.Cores, state, err)
			return prevAlt, err
		}
	}
	if t != prevAlt {
		log.Debugf("DVFS: %s table %s -> %s", e.cpu.Name, prevAlt, t)
		e.metrics.IncAltTable(t.String())
	}
	e.alt = t
	return t, nil
}

// DisableRail parks the rail at nominal and stops scaling it. It always
// succeeds for a known rail.
func (e *Engine) DisableRail(rail string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.railByName[rail]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRail, rail)
	}
	if !r.Enabled {
		return nil
	}
	r.disable()
	e.metrics.SetRailEnabled(r.Name, false)
	e.metrics.SetRailMillivolts(r.Name, r.CurrentMV)
	return nil
}

// EnableRail resumes scaling and re-solves the rail from its last request.
func (e *Engine) EnableRail(rail string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.railByName[rail]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRail, rail)
	}
	if r.Enabled {
		return nil
	}
	r.Enabled = true
	e.metrics.SetRailEnabled(r.Name, true)
	log.Infof("DVFS: %s scaling enabled", r.Name)
	if e.report == nil {
		return nil
	}
	_, err := e.change(r.Name, r.RequestedMV, nil)
	return err
}

// AgeCPU offsets the CPU ladder for chip aging: 25 mV within the first year
// of life, 13 mV up to three years. Offsets always apply to the unaged ladder.
// It returns the offset in effect.
func (e *Engine) AgeCPU(curLinearAge int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !containsInt(e.board.AgingSpeedoIDs, e.silicon.CPUSpeedoID()) {
		return e.ageOffset
	}
	chipAge := e.silicon.LinearAge()
	if chipAge <= 0 {
		return e.ageOffset
	}
	life := curLinearAge - chipAge
	var offs int
	switch {
	case life <= 12:
		offs = 25
	case life <= 36:
		offs = 13
	default:
		return e.ageOffset
	}

	r := e.cpuRail
	idx := r.Ladder.Index(r.NominalMV)
	r.Ladder = r.baseLadder.Offset(offs)
	if idx >= 0 {
		r.NominalMV = r.Ladder[idx]
	}
	e.ageOffset = offs
	log.Infof("DVFS: %s ladder aged by %d mV (chip life %d)", r.Name, offs, life)
	return offs
}

func (e *Engine) Rails() []RailSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RailSnapshot, 0, len(e.rails))
	for _, r := range e.rails {
		out = append(out, r.Snapshot())
	}
	return out
}

func (e *Engine) Rail(name string) (RailSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.railByName[name]
	if !ok {
		return RailSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownRail, name)
	}
	return r.Snapshot(), nil
}

func (e *Engine) Domain(name string) (DomainInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.domains[name]
	if !ok {
		return DomainInfo{}, fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}
	return d.Info(), nil
}

func (e *Engine) Domains() []DomainInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]DomainInfo, 0, len(e.domainOrder))
	for _, name := range e.domainOrder {
		out = append(out, e.domains[name].Info())
	}
	return out
}

// CoreLadder returns the core rail voltage steps.
func (e *Engine) CoreLadder() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := e.coreRail.Ladder
	return append([]int(nil), l[:l.Len()]...)
}

func (e *Engine) CPURail() string  { return e.board.CPURail }
func (e *Engine) CoreRail() string { return e.board.CoreRail }

// Violations lists relationship floors not met by the current voltages.
func (e *Engine) Violations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solver.Violations()
}

func (e *Engine) capEngine() (*CapEngine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.caps == nil {
		return nil, ErrNotInitialized
	}
	return e.caps, nil
}

// CapAcquire, CapRelease and CapSetLevel change the cap clocks and, for the
// core cap, bound the core rail and its domains to the effective level.
func (e *Engine) CapAcquire(d CapDomain, who Requester) error {
	c, err := e.capEngine()
	if err != nil {
		return err
	}
	err = c.Acquire(d, who)
	if ferr := e.followCap(c, d); err == nil {
		err = ferr
	}
	return err
}

func (e *Engine) CapRelease(d CapDomain, who Requester) error {
	c, err := e.capEngine()
	if err != nil {
		return err
	}
	err = c.Release(d, who)
	if ferr := e.followCap(c, d); err == nil {
		err = ferr
	}
	return err
}

func (e *Engine) CapSetLevel(d CapDomain, who Requester, level int) (int, error) {
	c, err := e.capEngine()
	if err != nil {
		return 0, err
	}
	level, err = c.SetLevel(d, who, level)
	if ferr := e.followCap(c, d); err == nil {
		err = ferr
	}
	return level, err
}

func (e *Engine) followCap(c *CapEngine, d CapDomain) error {
	if d != CapCore {
		return nil
	}
	return e.applyCoreCap(c)
}

func (e *Engine) CapState(d CapDomain) (CapState, error) {
	c, err := e.capEngine()
	if err != nil {
		return CapState{}, err
	}
	return c.State(d)
}

func enabledString(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
