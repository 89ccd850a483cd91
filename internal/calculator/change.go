package calculator

import "QuantDash/internal/model"

// CurrentPrice returns the most recent price, or 0 when there is no history.
func CurrentPrice(history []model.HistoryPoint) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Price
}

// PriceChangePercent compares the two most recent points.
// Returns 0 with fewer than two points or when the previous price is 0.
func PriceChangePercent(history []model.HistoryPoint) float64 {
	n := len(history)
	if n < 2 {
		return 0
	}
	latest := history[n-1].Price
	previous := history[n-2].Price
	if previous == 0 {
		return 0
	}
	return (latest - previous) / previous * 100
}
