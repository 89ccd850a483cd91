package calculator

import (
	"time"

	"QuantDash/internal/model"
)

// TimeRange is a lookback window selectable on the dashboard.
type TimeRange string

const (
	Range1D TimeRange = "1D"
	Range1W TimeRange = "1W"
	Range1M TimeRange = "1M"
	Range3M TimeRange = "3M"
	Range1Y TimeRange = "1Y"

	// DefaultTimeRange is used when no range has been chosen.
	DefaultTimeRange = Range1M
)

// TimeRanges lists the selectable ranges in display order.
var TimeRanges = []TimeRange{Range1D, Range1W, Range1M, Range3M, Range1Y}

var rangeDays = map[TimeRange]int{
	Range1D: 1,
	Range1W: 7,
	Range1M: 30,
	Range3M: 90,
	Range1Y: 365,
}

// Days returns the lookback in days. Unknown ranges fall back to 30.
func (r TimeRange) Days() int {
	if d, ok := rangeDays[r]; ok {
		return d
	}
	return 30
}

// Window returns the lookback as a duration.
func (r TimeRange) Window() time.Duration {
	return time.Duration(r.Days()) * 24 * time.Hour
}

// Valid reports whether r is one of the enumerated ranges.
func (r TimeRange) Valid() bool {
	_, ok := rangeDays[r]
	return ok
}

// FilterHistory returns the points dated on or after now minus the range window,
// preserving order. The input slice is never modified.
func FilterHistory(history []model.HistoryPoint, r TimeRange, now time.Time) []model.HistoryPoint {
	if len(history) == 0 {
		return []model.HistoryPoint{}
	}
	cutoff := now.Add(-r.Window())
	out := make([]model.HistoryPoint, 0, len(history))
	for _, p := range history {
		if !p.Date.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}
