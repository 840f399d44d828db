package srs

import (
	"math"
	"strconv"
)

// FormatInterval renders an interval as a short label such as "3d", "1h"
// or "<1m". nil and non-positive intervals render as "<1m".
func FormatInterval(ms *int64) string {
	if ms == nil {
		return "<1m"
	}
	return FormatMillis(*ms)
}

// FormatMillis is FormatInterval for a plain millisecond count. Each unit is
// rounded from the previously rounded unit, so 89m becomes 1h and 36h
// becomes 2d.
func FormatMillis(ms int64) string {
	if ms <= 0 {
		return "<1m"
	}

	seconds := roundHalfUp(float64(ms) / 1000)
	minutes := roundHalfUp(seconds / 60)
	hours := roundHalfUp(minutes / 60)
	days := roundHalfUp(hours / 24)

	switch {
	case days >= 1:
		return strconv.FormatInt(int64(days), 10) + "d"
	case hours >= 1:
		return strconv.FormatInt(int64(hours), 10) + "h"
	case minutes >= 1:
		return strconv.FormatInt(int64(minutes), 10) + "m"
	default:
		return "<1m"
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
