package calculator

import (
	"strconv"
	"strings"

	"QuantDash/internal/model"
)

const csvHeader = "Symbol,Date,Price\n"

// ToCSV serializes history as "Symbol,Date,Price" rows, one per point in order.
func ToCSV(symbol string, history []model.HistoryPoint) string {
	var b strings.Builder
	b.Grow(len(csvHeader) + len(history)*(len(symbol)+24))
	b.WriteString(csvHeader)
	for _, p := range history {
		b.WriteString(symbol)
		b.WriteByte(',')
		b.WriteString(p.Date.String())
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Price, 'f', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}

// CSVFilename is the suggested download name for a symbol's history export.
func CSVFilename(symbol string) string {
	return symbol + "_history.csv"
}
