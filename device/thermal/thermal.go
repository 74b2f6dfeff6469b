// Package thermal watches the cold-zone indication of the SoC and switches
// the CPU tables when it changes.
package thermal

import (
	"context"
	"errors"
	"sync"
	"time"

	"soc_dvfs/dvfs"
	log "soc_dvfs/log"
)

var ErrUnsupported = errors.New("thermal source not supported on this platform")

// Sensor reports whether the SoC is in the cold zone.
type Sensor interface {
	Cold() (bool, error)
	Close() error
}

// Notifier is implemented by sensors that signal changes instead of waiting
// for the next poll.
type Notifier interface {
	Changes() <-chan struct{}
}

// Selector applies a table switch; *dvfs.Engine implements it.
type Selector interface {
	SelectAltTable(ev dvfs.AltEvent) (dvfs.AltTable, error)
}

// Monitor polls a Sensor and forwards zone changes and core count changes
// to the Selector.
type Monitor struct {
	sensor   Sensor
	sel      Selector
	interval time.Duration

	mu    sync.Mutex
	cores int
	known bool
	cold  bool
}

func NewMonitor(s Sensor, sel Selector, interval time.Duration, cores int) *Monitor {
	if cores < 1 {
		cores = 1
	}
	return &Monitor{sensor: s, sel: sel, interval: interval, cores: cores}
}

func thermalIndex(cold bool) int {
	if cold {
		return 0
	}
	return 1
}

// Poll reads the sensor once and, on a zone change, runs both phases of the
// table switch. The zone is only recorded once the switch went through, so
// a refused switch is tried again on the next poll.
func (m *Monitor) Poll() error {
	cold, err := m.sensor.Cold()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.known && cold == m.cold {
		return nil
	}
	if err := m.notify(cold, m.cores, false); err != nil {
		return err
	}
	m.known, m.cold = true, cold
	log.Infof("THERMAL: entering %s zone", map[bool]string{true: "cold", false: "warm"}[cold])
	return nil
}

// SetCores reports a cpu hotplug change.
func (m *Monitor) SetCores(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 {
		n = 1
	}
	if n == m.cores {
		return nil
	}
	if m.known {
		if err := m.notify(m.cold, n, true); err != nil {
			return err
		}
	}
	m.cores = n
	return nil
}

func (m *Monitor) notify(cold bool, cores int, cpuEvent bool) error {
	for _, before := range []bool{true, false} {
		ev := dvfs.AltEvent{
			ThermalIndex:      thermalIndex(cold),
			Cores:             cores,
			BeforeClockUpdate: before,
			CPUEvent:          cpuEvent,
		}
		t, err := m.sel.SelectAltTable(ev)
		if err != nil {
			return err
		}
		log.Debugf("THERMAL: %+v -> %s table", ev, t)
	}
	return nil
}

// Run polls until ctx is done. Sensor errors are logged and retried.
func (m *Monitor) Run(ctx context.Context) error {
	var changes <-chan struct{}
	if n, ok := m.sensor.(Notifier); ok {
		changes = n.Changes()
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.Poll(); err != nil {
			log.Errorf("THERMAL: %v", err)
		}
		select {
		case <-ctx.Done():
			return m.sensor.Close()
		case <-ticker.C:
		case <-changes:
		}
	}
}
