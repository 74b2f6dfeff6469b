package util

import (
	"fmt"
	"time"
)

var UpSince = time.Now()

func NowInSec() float64 {
	return float64(time.Now().UnixMicro()) / 1000000.0
}

// t2 is now, t1 is time base
func UptimeInSec(t2 float64, t1 float64) float64 {
	if t2 <= t1 {
		return 0.01
	}
	return t2 - t1
}

func SystemUptimeInSec() float64 {
	return UptimeInSec(NowInSec(), float64(UpSince.UnixMicro())/1000000.0)
}

// FormatDuration prints d as 01h 02m 03s, dropping leading zero units.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%02dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%02dm %02ds", m, s)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
