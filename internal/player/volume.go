package player

import "math"

// levelToVolume converts a 0.0-1.0 level to beep's logarithmic Volume
// value (base 2): 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (silent).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
