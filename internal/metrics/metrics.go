// Package metrics contains pure typing-metric calculations.
package metrics

import "math"

// Accuracy returns correct/total clamped to [0,1]. No attempts yet
// counts as perfect.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 1
	}
	acc := float64(correct) / float64(total)
	if acc < 0 {
		return 0
	}
	if acc > 1 {
		return 1
	}
	return acc
}

// CPM returns characters per minute rounded to the nearest integer,
// or 0 when no time has elapsed.
func CPM(correct int, elapsedSeconds float64) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / elapsedSeconds * 60))
}

// WPM converts CPM using the 5-characters-per-word convention.
func WPM(cpm int) int {
	return int(math.Round(float64(cpm) / 5))
}

// Score combines speed and accuracy. Accuracy is squared so that fast
// but sloppy typing cannot out-score accurate typing.
func Score(cpm int, accuracy float64) int {
	return int(math.Floor(float64(cpm) * accuracy * accuracy / 2))
}

// AnomalyScore estimates how machine-like the keystroke cadence is
// from inter-key intervals in milliseconds. The coefficient of
// variation of the intervals is clamped to [0,1] and inverted: a value
// near 1 means suspiciously regular timing, near 0 natural variance.
func AnomalyScore(intervals []float64) float64 {
	if len(intervals) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(len(intervals))
	variance := 0.0
	for _, v := range intervals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(intervals))
	std := math.Sqrt(variance)
	cv := 0.0
	if mean != 0 {
		cv = std / mean
	}
	if cv > 1 {
		cv = 1
	}
	if cv < 0 {
		cv = 0
	}
	return math.Round((1-cv)*100) / 100
}

// AnomalyBreakdown returns the raw statistics behind AnomalyScore for
// server-side review.
func AnomalyBreakdown(intervals []float64) (mean, std, cv float64, count int) {
	count = len(intervals)
	if count == 0 {
		return 0, 0, 0, 0
	}
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(count)
	variance := 0.0
	for _, v := range intervals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(count)
	std = math.Sqrt(variance)
	if mean != 0 {
		cv = std / mean
	}
	return mean, std, cv, count
}
