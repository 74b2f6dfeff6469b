package regulator

import (
	"gobot.io/x/gobot/sysfs"
)

// DigitalPin is the subset of a sysfs GPIO used to switch a supply.
type DigitalPin interface {
	Export() error
	Unexport() error
	Direction(string) error
	Write(int) error
}

// EnablePin is the enable GPIO of a supply.
type EnablePin struct {
	pin       DigitalPin
	activeLow bool
}

func NewEnablePin(gpio int, activeLow bool) *EnablePin {
	return &EnablePin{pin: sysfs.NewDigitalPin(gpio), activeLow: activeLow}
}

func newEnablePin(pin DigitalPin, activeLow bool) *EnablePin {
	return &EnablePin{pin: pin, activeLow: activeLow}
}

func (e *EnablePin) Set(on bool) error {
	v := 0
	if on != e.activeLow {
		v = 1
	}
	if err := e.pin.Export(); err != nil {
		return err
	}
	defer func() {
		_ = e.pin.Unexport()
	}()
	if err := e.pin.Direction("out"); err != nil {
		return err
	}
	return e.pin.Write(v)
}
