package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"QuantDash/internal/calculator"
	"QuantDash/internal/model"
	"QuantDash/internal/palette"
	"QuantDash/internal/scheduler"
)

// historyRows is how many of the most recent filtered points are listed.
const historyRows = 8

const sparkBlocks = "▁▂▃▄▅▆▇█"

func (m *Model) View() string {
	if m.palette.IsOpen() {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderPalette(), "", m.renderHeader())
	}

	v := m.view
	st := m.styles
	pulse := v.PulseAction

	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		m.card("Price History "+string(v.TimeRange), m.renderHistory(), pulse == palette.CmdHistory || pulse == scheduler.CmdRefresh),
		m.card("Indicators", m.renderIndicators(), false),
	)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		m.card("Prediction", m.renderPrediction(), pulse == palette.CmdPredict),
		m.card("Trade Signal", m.renderSignal(), pulse == palette.CmdSignal),
	)
	row3 := lipgloss.JoinHorizontal(lipgloss.Top,
		m.card("Paper Trading", m.renderPaperTrade(), pulse == palette.CmdPaper),
		m.card("Risk / Portfolio", m.renderRisk(), pulse == scheduler.CmdRisk || pulse == scheduler.CmdOptimize),
	)
	row4 := m.card("Backtest", m.renderBacktest(), pulse == scheduler.CmdBacktest)

	lines := []string{m.renderHeader()}
	if v.Error != "" {
		lines = append(lines, st.err.Render(v.Error))
	}
	if m.status != "" {
		lines = append(lines, st.status.Render(m.status))
	}
	if m.editingSymbol {
		lines = append(lines, m.symbol.View())
	}
	lines = append(lines, row1, row2, row3, row4, m.renderSettings(), m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) card(title, body string, active bool) string {
	style := m.styles.card
	if active {
		style = m.styles.pulse
	}
	return style.Render(m.styles.title.Render(title) + "\n" + body)
}

func (m *Model) renderHeader() string {
	v := m.view
	st := m.styles
	parts := []string{
		st.title.Render("QuantDash"),
		st.symbol.Render(v.Symbol),
		st.value.Render(fmt.Sprintf("$%.2f", v.CurrentPrice)),
		st.change(v.ChangePercent).Render(fmt.Sprintf("%+.2f%%", v.ChangePercent)),
		st.label.Render("Updated " + v.LastUpdatedText),
	}
	if v.Loading {
		parts = append(parts, st.status.Render("Loading..."))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderHistory() string {
	pts := m.view.Filtered
	if len(pts) == 0 {
		return m.styles.dim.Render("No data")
	}
	start := len(pts) - historyRows
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, p := range pts[start:] {
		fmt.Fprintf(&b, "%s  %s\n", m.styles.label.Render(p.Date.String()), m.styles.value.Render(fmt.Sprintf("%10.2f", p.Price)))
	}
	prices := make([]float64, len(pts))
	for i, p := range pts {
		prices[i] = p.Price
	}
	b.WriteString(m.styles.dim.Render(sparkline(prices, 30)))
	return b.String()
}

func (m *Model) renderIndicators() string {
	sum := m.view.Indicators
	if sum == nil {
		return m.styles.dim.Render("No data")
	}
	var b strings.Builder
	row := func(name string, v *float64) {
		val := "-"
		if v != nil {
			val = fmt.Sprintf("%.2f", *v)
		}
		fmt.Fprintf(&b, "%-10s %s\n", m.styles.label.Render(name), m.styles.value.Render(val))
	}
	rsiName := "RSI"
	if sum.RSIFromHistory {
		rsiName = "RSI*"
	}
	row(rsiName, sum.RSI)
	if len(sum.RSITrend) > 1 {
		fmt.Fprintf(&b, "%-10s %s\n", m.styles.label.Render("Trend"), m.styles.dim.Render(sparkline(sum.RSITrend, 24)))
	}
	if m.view.RSIZone != "" {
		fmt.Fprintf(&b, "%-10s %s\n", m.styles.label.Render("Zone"), m.view.RSIZone)
	}
	row("MACD", sum.MACD)
	row("Signal", sum.MACDSignal)
	row("BB Upper", sum.BBUpper)
	row("BB Middle", sum.BBMiddle)
	row("BB Lower", sum.BBLower)
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderPrediction() string {
	p := m.view.Prediction
	if p == nil {
		return m.styles.dim.Render("Press p to run a prediction")
	}
	diff := p.PredictedPrice - p.LastClose
	var pct float64
	if p.LastClose != 0 {
		pct = diff / p.LastClose * 100
	}
	return strings.Join([]string{
		fmt.Sprintf("Last close  %s", m.styles.value.Render(fmt.Sprintf("%.2f", p.LastClose))),
		fmt.Sprintf("Predicted   %s", m.styles.change(diff).Render(fmt.Sprintf("%.2f (%+.2f%%)", p.PredictedPrice, pct))),
		m.styles.dim.Render(p.ConfidenceNote),
	}, "\n")
}

func (m *Model) renderSignal() string {
	s := m.view.Signal
	if s == nil || m.view.Confidence == nil {
		return m.styles.dim.Render("Press s to get a trade signal")
	}
	style := m.styles.value
	switch s.Signal {
	case model.SignalBuy:
		style = m.styles.gain
	case model.SignalSell:
		style = m.styles.loss
	}
	c := m.view.Confidence
	return strings.Join([]string{
		style.Bold(true).Render(string(s.Signal)),
		fmt.Sprintf("Confidence  %.0f%% (%s)", c.Score*100, c.Label),
		m.styles.dim.Render(s.Context),
	}, "\n")
}

func (m *Model) renderPaperTrade() string {
	pt := m.view.PaperTrade
	if pt == nil {
		return m.styles.dim.Render("Press t to run paper trading")
	}
	lines := []string{
		fmt.Sprintf("Final value %s", m.styles.value.Render(fmt.Sprintf("%.2f", pt.FinalValue))),
		fmt.Sprintf("Return      %s", m.styles.change(pt.ReturnPct).Render(fmt.Sprintf("%+.2f%%", pt.ReturnPct))),
		fmt.Sprintf("Trades      %d", len(pt.Trades)),
	}
	if curve := m.view.EquityCurve; len(curve) > 0 {
		equity := make([]float64, len(curve))
		for i, p := range curve {
			equity[i] = p.Equity
		}
		lines = append(lines,
			fmt.Sprintf("Simulated   %.0f", curve[len(curve)-1].Equity),
			m.styles.dim.Render(sparkline(equity, 30)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRisk() string {
	var lines []string
	if r := m.view.Risk; r != nil {
		lines = append(lines,
			fmt.Sprintf("Volatility  %.2f%%", r.Volatility*100),
			fmt.Sprintf("Max DD      %.2f%%", r.MaxDrawdown*100),
			fmt.Sprintf("VaR 95      %.2f%%", r.VaR95*100))
	} else {
		lines = append(lines, m.styles.dim.Render("Press r for risk metrics"))
	}
	if p := m.view.Portfolio; p != nil {
		symbols := make([]string, 0, len(p.Weights))
		for sym := range p.Weights {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			lines = append(lines, fmt.Sprintf("%-6s %5.1f%%", sym, p.Weights[sym]*100))
		}
		lines = append(lines, fmt.Sprintf("Exp. return %.2f%%  risk %.2f%%", p.ExpectedReturn*100, p.ExpectedRisk*100))
	} else {
		lines = append(lines, m.styles.dim.Render("Press o to optimize the watchlist"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBacktest() string {
	bt := m.view.Backtest
	if bt == nil {
		return m.styles.dim.Render("Press b to backtest the model")
	}
	lines := []string{
		fmt.Sprintf("Final equity %s", m.styles.value.Render(fmt.Sprintf("%.2f", bt.FinalEquity))),
		fmt.Sprintf("Return       %s", m.styles.change(bt.TotalReturn).Render(fmt.Sprintf("%+.2f%%", bt.TotalReturn*100))),
		fmt.Sprintf("Sharpe       %.3f", bt.Sharpe),
	}
	if len(bt.EquityCurve) > 1 {
		lines = append(lines, m.styles.dim.Render(sparkline(bt.EquityCurve, 60)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSettings() string {
	v := m.view
	auto := "off"
	if v.AutoRefresh {
		auto = "on"
	}
	ranges := make([]string, len(calculator.TimeRanges))
	for i, r := range calculator.TimeRanges {
		label := fmt.Sprintf("%d:%s", i+1, r)
		if r == v.TimeRange {
			label = m.styles.selected.Render(label)
		}
		ranges[i] = label
	}
	return m.styles.label.Render(fmt.Sprintf("Auto-refresh %s  every %ds  theme %s  ", auto, v.RefreshIntervalSeconds, v.Theme)) +
		strings.Join(ranges, " ")
}

func (m *Model) renderHelp() string {
	return m.styles.help.Render("ctrl+k palette  p predict  s signal  t paper  h history  f refresh  r risk  o optimize  b backtest  e export  a auto  +/- interval  d theme  / symbol  q quit")
}

func (m *Model) renderPalette() string {
	st := m.styles
	var b strings.Builder
	b.WriteString(st.title.Render("Command Palette") + "\n")
	b.WriteString(m.query.View() + "\n")

	visible := m.palette.Visible()
	if len(visible) == 0 {
		b.WriteString(st.dim.Render("No commands"))
	}
	sel := m.palette.State().Selected
	for i, c := range visible {
		line := "  " + c.Label
		if i == sel {
			line = st.selected.Render("> " + c.Label)
		}
		b.WriteString(line)
		if i < len(visible)-1 {
			b.WriteString("\n")
		}
	}
	return st.palette.Render(b.String())
}

// sparkline renders the last width values as block characters.
func sparkline(values []float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	blocks := []rune(sparkBlocks)
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(blocks)-1))
		}
		b.WriteRune(blocks[idx])
	}
	return b.String()
}
