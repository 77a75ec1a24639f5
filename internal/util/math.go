package util

import "math"

// Round rounds half away from zero and returns an int.
func Round(v float64) int {
	return int(math.Round(v))
}

// Percent returns part/total*100, or 0 when total is not positive.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
