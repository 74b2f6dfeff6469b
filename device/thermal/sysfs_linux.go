//go:build linux
// +build linux

package thermal

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// SysfsZone reads a thermal zone temperature in millidegrees Celsius. The
// temp attribute stays open and is re-read from offset 0.
type SysfsZone struct {
	path       string
	fd         int
	coldMilliC int
	buf        [32]byte
}

func OpenSysfsZone(zone string, coldMilliC int) (*SysfsZone, error) {
	path := filepath.Join(zone, "temp")
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &SysfsZone{path: path, fd: fd, coldMilliC: coldMilliC}, nil
}

func (z *SysfsZone) MilliC() (int, error) {
	n, err := unix.Pread(z.fd, z.buf[:], 0)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", z.path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(z.buf[:n])))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", z.path, err)
	}
	return v, nil
}

func (z *SysfsZone) Cold() (bool, error) {
	t, err := z.MilliC()
	if err != nil {
		return false, err
	}
	return t < z.coldMilliC, nil
}

func (z *SysfsZone) Close() error {
	return unix.Close(z.fd)
}
