package calculator

import (
	"testing"
	"time"

	"QuantDash/internal/model"
)

func point(date string, price float64) model.HistoryPoint {
	return model.HistoryPoint{Date: model.MustParseDate(date), Price: price}
}

func TestTimeRangeDays(t *testing.T) {
	tests := []struct {
		r    TimeRange
		want int
	}{
		{Range1D, 1},
		{Range1W, 7},
		{Range1M, 30},
		{Range3M, 90},
		{Range1Y, 365},
		{TimeRange("5Y"), 30},
		{TimeRange(""), 30},
	}
	for _, tt := range tests {
		if got := tt.r.Days(); got != tt.want {
			t.Errorf("%q.Days() = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestFilterHistory_Empty(t *testing.T) {
	got := FilterHistory(nil, Range1M, time.Now())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFilterHistory_Window(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	history := []model.HistoryPoint{
		point("2023-03-01", 90),
		point("2024-01-01", 100),
		point("2024-03-20", 105),
		point("2024-03-25", 106),
		point("2024-03-31", 107),
	}

	for _, r := range append(TimeRanges, TimeRange("bogus")) {
		cutoff := now.Add(-r.Window())
		got := FilterHistory(history, r, now)
		for _, p := range got {
			if p.Date.Before(cutoff) {
				t.Errorf("range %s: point %s is before cutoff %s", r, p.Date, cutoff)
			}
		}
		// every excluded point must be before the cutoff
		kept := map[string]bool{}
		for _, p := range got {
			kept[p.Date.String()] = true
		}
		for _, p := range history {
			if !kept[p.Date.String()] && !p.Date.Before(cutoff) {
				t.Errorf("range %s: point %s wrongly dropped", r, p.Date)
			}
		}
	}

	if got := FilterHistory(history, Range1W, now); len(got) != 2 {
		t.Errorf("1W: expected 2 points, got %d", len(got))
	}
	if got := FilterHistory(history, Range1Y, now); len(got) != 4 {
		t.Errorf("1Y: expected 4 points, got %d", len(got))
	}
}

func TestFilterHistory_SpanWithinWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	history := []model.HistoryPoint{
		point("2024-03-10", 1),
		point("2024-03-20", 2),
		point("2024-03-30", 3),
	}
	got := FilterHistory(history, Range1M, now)
	if len(got) != len(history) {
		t.Fatalf("expected full input, got %d of %d", len(got), len(history))
	}
	for i := range got {
		if got[i] != history[i] {
			t.Errorf("order changed at %d", i)
		}
	}
}
