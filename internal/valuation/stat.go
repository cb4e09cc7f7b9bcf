// Package valuation derives market signals from raw listing extracts and
// composes them into a single weighted value index.
package valuation

import "math"

// zScore returns how many standard deviations x sits from mean. A zero
// standard deviation means every value equals the mean, so the z-score
// is 0 rather than a division by zero.
func zScore(x, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (x - mean) / stdDev
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
