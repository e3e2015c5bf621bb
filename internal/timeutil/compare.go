package timeutil

import "fmt"

// Status classifies actual time against an estimate.
type Status string

const (
	StatusNoData            Status = "no-data"
	StatusNoEstimate        Status = "no-estimate"
	StatusNotTracked        Status = "not-tracked"
	StatusOnTime            Status = "on-time"
	StatusSlightlyOver      Status = "slightly-over"
	StatusSignificantlyOver Status = "significantly-over"
)

// slightlyOverPercent is the upper bound (inclusive) of the slightly-over band.
const slightlyOverPercent = 25

// Compare classifies actual against estimated minutes.
func Compare(actual, estimated int) Status {
	switch {
	case actual == 0 && estimated == 0:
		return StatusNoData
	case estimated == 0:
		return StatusNoEstimate
	case actual == 0:
		return StatusNotTracked
	}
	diff := actual - estimated
	if diff <= 0 {
		return StatusOnTime
	}
	if float64(diff)/float64(estimated)*100 <= slightlyOverPercent {
		return StatusSlightlyOver
	}
	return StatusSignificantlyOver
}

// AccuracyText summarises tracked against estimated time, e.g.
// "20% over estimates". The boolean is false when either side is zero.
func AccuracyText(actual, estimated int) (string, bool) {
	if actual == 0 || estimated == 0 {
		return "", false
	}
	diff := actual - estimated
	pct := abs(diff) * 100 / estimated
	if r := abs(diff) * 100 % estimated; r*2 >= estimated {
		pct++
	}
	switch {
	case diff == 0:
		return "Perfect estimates!", true
	case diff > 0:
		return fmt.Sprintf("%d%% over estimates", pct), true
	default:
		return fmt.Sprintf("%d%% under estimates", pct), true
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
