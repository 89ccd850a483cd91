package calculator

import "QuantDash/internal/model"

// IndicatorSummary holds the latest available reading of each indicator.
// RSIFromHistory is set when the service had no RSI and it was derived locally.
// RSITrend is the RSI readings oldest first, from whichever source supplied RSI.
type IndicatorSummary struct {
	Date           model.Date
	Close          *float64
	Volume         *float64
	RSI            *float64
	RSIFromHistory bool
	RSITrend       []float64
	MACD           *float64
	MACDSignal     *float64
	MACDHistogram  *float64
	BBUpper        *float64
	BBMiddle       *float64
	BBLower        *float64
}

// LatestIndicators walks the points newest first and keeps the most recent non-nil
// value of every field. ok is false for an empty input.
func LatestIndicators(points []model.IndicatorPoint) (sum IndicatorSummary, ok bool) {
	if len(points) == 0 {
		return sum, false
	}
	sum.Date = points[len(points)-1].Date
	for i := len(points) - 1; i >= 0; i-- {
		p := points[i]
		pick(&sum.Close, p.Close)
		pick(&sum.Volume, p.Volume)
		pick(&sum.RSI, p.RSI)
		pick(&sum.MACD, p.MACD)
		pick(&sum.MACDSignal, p.MACDSignal)
		pick(&sum.MACDHistogram, p.MACDHistogram)
		pick(&sum.BBUpper, p.BBUpper)
		pick(&sum.BBMiddle, p.BBMiddle)
		pick(&sum.BBLower, p.BBLower)
	}
	for _, p := range points {
		if p.RSI != nil {
			sum.RSITrend = append(sum.RSITrend, *p.RSI)
		}
	}
	return sum, true
}

// SummarizeIndicators is LatestIndicators with an RSI fallback computed from history.
func SummarizeIndicators(points []model.IndicatorPoint, history []model.HistoryPoint) (IndicatorSummary, bool) {
	sum, ok := LatestIndicators(points)
	if sum.RSI == nil && len(history) > DefaultRSIPeriod {
		if series, err := RSISeries(history, DefaultRSIPeriod); err == nil && len(series) > 0 {
			rsi := series[len(series)-1]
			sum.RSI = &rsi
			sum.RSIFromHistory = true
			sum.RSITrend = series
			if !ok {
				sum.Date = history[len(history)-1].Date
				ok = true
			}
		}
	}
	return sum, ok
}

func pick(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		*dst = v
	}
}
