package calculator

import (
	"errors"

	"QuantDash/internal/model"
)

// RSI zone labels.
const (
	ZoneOverbought = "Overbought"
	ZoneOversold   = "Oversold"
	ZoneNeutral    = "Neutral"
)

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// neutralRSI is reported when there are too few prices to measure momentum.
const neutralRSI = 50.0

// RSISeries computes the Wilder-smoothed RSI at every point from index period
// onward, so the result has len(history)-period readings (nil if fewer than
// period+1 points).
func RSISeries(history []model.HistoryPoint, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(history) < period+1 {
		return nil, nil
	}

	move := func(i int) (gain, loss float64) {
		d := history[i].Price - history[i-1].Price
		if d > 0 {
			return d, 0
		}
		return 0, -d
	}

	// Seed with the simple mean of the first period moves.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		g, l := move(i)
		avgGain += g
		avgLoss += l
	}
	n := float64(period)
	avgGain /= n
	avgLoss /= n

	out := make([]float64, 0, len(history)-period)
	out = append(out, rsiFrom(avgGain, avgLoss))
	for i := period + 1; i < len(history); i++ {
		g, l := move(i)
		avgGain = (avgGain*(n-1) + g) / n
		avgLoss = (avgLoss*(n-1) + l) / n
		out = append(out, rsiFrom(avgGain, avgLoss))
	}
	return out, nil
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// CalculateRSI is the latest reading of RSISeries, or 50 when history is too short.
func CalculateRSI(history []model.HistoryPoint, period int) (float64, error) {
	series, err := RSISeries(history, period)
	if err != nil {
		return 0, err
	}
	if len(series) == 0 {
		return neutralRSI, nil
	}
	return series[len(series)-1], nil
}

// RSIZone classifies an RSI reading.
func RSIZone(rsi float64) string {
	switch {
	case rsi >= 70:
		return ZoneOverbought
	case rsi <= 30:
		return ZoneOversold
	default:
		return ZoneNeutral
	}
}
