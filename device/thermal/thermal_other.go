//go:build !linux
// +build !linux

package thermal

type SysfsZone struct{ Sensor }

func OpenSysfsZone(zone string, coldMilliC int) (*SysfsZone, error) {
	return nil, ErrUnsupported
}

type AlertLine struct{ Sensor }

func OpenAlertLine(chip string, offset int) (*AlertLine, error) {
	return nil, ErrUnsupported
}
