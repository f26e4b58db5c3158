// Package metrics contains the pure typing-performance formulas.
package metrics

import "math"

// WPM computes words per minute from the count of correctly typed characters,
// using the standard five-characters-per-word convention. A zero elapsed time
// yields 0 rather than a division by zero.
func WPM(correctChars int, elapsedMinutes float64) float64 {
	if elapsedMinutes <= 0 {
		return 0
	}
	return (float64(correctChars) / 5.0) / elapsedMinutes
}

// Accuracy computes the percentage of characters typed without error,
// clamped to [0, 100]. Empty input counts as perfect.
func Accuracy(totalChars, errorCount int) float64 {
	if totalChars <= 0 {
		return 100
	}
	acc := float64(totalChars-errorCount) / float64(totalChars) * 100
	return math.Max(0, acc)
}

// Consistency scores the evenness of typing rhythm as 100 minus the standard
// deviation of inter-keystroke intervals (milliseconds), floored at 0. Fewer
// than two timestamps is trivially consistent.
func Consistency(keyPressTimestamps []int64) float64 {
	if len(keyPressTimestamps) < 2 {
		return 100
	}

	intervals := make([]float64, len(keyPressTimestamps)-1)
	var sum float64
	for i := 1; i < len(keyPressTimestamps); i++ {
		d := float64(keyPressTimestamps[i] - keyPressTimestamps[i-1])
		intervals[i-1] = d
		sum += d
	}

	mean := sum / float64(len(intervals))
	var variance float64
	for _, d := range intervals {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(intervals))

	return math.Max(0, 100-math.Sqrt(variance))
}
