package calculator

import (
	"testing"
	"time"

	"QuantDash/internal/model"
)

func series(prices ...float64) []model.HistoryPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.HistoryPoint, len(prices))
	for i, p := range prices {
		d := start.AddDate(0, 0, i)
		out[i] = model.HistoryPoint{Date: model.NewDate(d.Year(), d.Month(), d.Day()), Price: p}
	}
	return out
}

func TestCalculateRSI(t *testing.T) {
	if _, err := CalculateRSI(series(1, 2), 0); err == nil {
		t.Error("expected error for non-positive period")
	}
	if rsi, _ := CalculateRSI(series(1, 2, 3), 14); rsi != 50 {
		t.Errorf("insufficient data should give 50, got %v", rsi)
	}

	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	if rsi, _ := CalculateRSI(series(rising...), 14); rsi != 100 {
		t.Errorf("monotonic rise should give 100, got %v", rsi)
	}

	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = float64(200 - i)
	}
	rsi, _ := CalculateRSI(series(falling...), 14)
	if rsi != 0 {
		t.Errorf("monotonic fall should give 0, got %v", rsi)
	}
}

func TestRSISeries(t *testing.T) {
	if s, err := RSISeries(series(1, 2, 3), 3); err != nil || s != nil {
		t.Errorf("too short: got %v, %v", s, err)
	}

	// two up moves of 1 then a down move of 2, period 2
	got, err := RSISeries(series(10, 11, 12, 10), 2)
	if err != nil {
		t.Fatal(err)
	}
	// seed: gain 1, loss 0 -> 100; then gain 0.5, loss 1 -> 100-100/1.5
	want := []float64{100, 100 - 100/1.5}
	if len(got) != len(want) {
		t.Fatalf("len %d, want %d", len(got), len(want))
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("reading %d: %v, want %v", i, got[i], want[i])
		}
	}
	if last, _ := CalculateRSI(series(10, 11, 12, 10), 2); last != got[len(got)-1] {
		t.Errorf("CalculateRSI should be the last reading, got %v", last)
	}
}

func TestRSIZone(t *testing.T) {
	cases := map[float64]string{75: ZoneOverbought, 70: ZoneOverbought, 50: ZoneNeutral, 30: ZoneOversold, 5: ZoneOversold}
	for rsi, want := range cases {
		if got := RSIZone(rsi); got != want {
			t.Errorf("RSIZone(%v) = %s, want %s", rsi, got, want)
		}
	}
}

func TestLatestIndicators(t *testing.T) {
	if _, ok := LatestIndicators(nil); ok {
		t.Fatal("expected ok=false for empty input")
	}
	points := []model.IndicatorPoint{
		{Date: model.MustParseDate("2024-01-01"), RSI: model.Float(40), MACD: model.Float(1)},
		{Date: model.MustParseDate("2024-01-02"), RSI: model.Float(45), BBUpper: model.Float(110)},
		{Date: model.MustParseDate("2024-01-03"), Close: model.Float(101)},
	}
	sum, ok := LatestIndicators(points)
	if !ok {
		t.Fatal("expected ok")
	}
	if sum.Date.String() != "2024-01-03" {
		t.Errorf("unexpected date %s", sum.Date)
	}
	if *sum.RSI != 45 || *sum.MACD != 1 || *sum.BBUpper != 110 || *sum.Close != 101 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.BBLower != nil {
		t.Error("BBLower should stay nil")
	}
	if len(sum.RSITrend) != 2 || sum.RSITrend[0] != 40 || sum.RSITrend[1] != 45 {
		t.Errorf("trend: %v", sum.RSITrend)
	}
}

func TestSummarizeIndicators_RSIFallback(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	sum, ok := SummarizeIndicators(nil, series(prices...))
	if !ok || sum.RSI == nil || !sum.RSIFromHistory {
		t.Fatalf("expected RSI derived from history, got %+v ok=%v", sum, ok)
	}
	if *sum.RSI != 100 {
		t.Errorf("expected 100, got %v", *sum.RSI)
	}
	if len(sum.RSITrend) != len(prices)-DefaultRSIPeriod {
		t.Errorf("trend length %d", len(sum.RSITrend))
	}
}
