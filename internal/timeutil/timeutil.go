// Package timeutil holds the pure minute arithmetic and formatting helpers
// shared by the engine, the analytics queries and the UI.
package timeutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for planning and reflection keys.
const DateLayout = "2006-01-02"

// FormatMinutes renders minutes as "45m", "2h" or "1h 30m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

// MaxMinutes caps parsed minute values.
const MaxMinutes = math.MaxInt32

// ParseMinutes coerces user input into a whole number of minutes in
// [0, MaxMinutes]. Non-numeric or negative input becomes 0; fractional input
// is truncated.
func ParseMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return min(Clamp(n), MaxMinutes)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 {
		return 0
	}
	if f >= MaxMinutes {
		return MaxMinutes
	}
	return int(f)
}

// Clamp returns n, or 0 when n is negative.
func Clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ElapsedMinutes returns the whole minutes between start and now, floored.
// A now before start yields 0.
func ElapsedMinutes(start, now time.Time) int {
	d := now.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Date returns the calendar date of t in t's location.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Timed is anything with an estimate and an actual duration in minutes.
type Timed interface {
	Estimate() int
	Actual() int
}

// TotalEstimated sums the estimates of items.
func TotalEstimated[T Timed](items []T) int {
	total := 0
	for _, it := range items {
		total += it.Estimate()
	}
	return total
}

// TotalActual sums the tracked minutes of items.
func TotalActual[T Timed](items []T) int {
	total := 0
	for _, it := range items {
		total += it.Actual()
	}
	return total
}
