package util

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatHz renders a rate with the largest unit that keeps it whole.
func FormatHz(hz int64) string {
	switch {
	case hz >= 1000000 && hz%1000000 == 0:
		return fmt.Sprintf("%d MHz", hz/1000000)
	case hz >= 1000 && hz%1000 == 0:
		return fmt.Sprintf("%d kHz", hz/1000)
	}
	return fmt.Sprintf("%d Hz", hz)
}

// JoinInts renders a list the way sysfs attributes do: space separated.
func JoinInts(v []int) string {
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, " ")
}

// ParseBool accepts the forms kernel boolean parameters do: y/n, 1/0,
// true/false, on/off.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "1", "true", "on":
		return true, nil
	case "n", "no", "0", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
