//go:build linux
// +build linux

package thermal

import (
	"fmt"

	"github.com/warthog618/gpiod"

	log "soc_dvfs/log"
)

// AlertLine is a temperature comparator output wired to a GPIO. The line is
// active while the SoC is in the cold zone.
type AlertLine struct {
	line    *gpiod.Line
	changes chan struct{}
}

func OpenAlertLine(chip string, offset int) (*AlertLine, error) {
	a := &AlertLine{changes: make(chan struct{}, 1)}
	l, err := gpiod.RequestLine(chip, offset,
		gpiod.AsInput,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(a.eventHandler))
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}
	a.line = l
	return a, nil
}

func (a *AlertLine) eventHandler(evt gpiod.LineEvent) {
	log.Debugf("THERMAL: alert line %d event %d", evt.Offset, evt.Type)
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

func (a *AlertLine) Changes() <-chan struct{} { return a.changes }

func (a *AlertLine) Cold() (bool, error) {
	v, err := a.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (a *AlertLine) Close() error {
	return a.line.Close()
}
