package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"QuantDash/internal/calculator"
	"QuantDash/internal/palette"
	"QuantDash/internal/recorder"
	"QuantDash/internal/strategy"
)

// User-visible failure messages.
const (
	ErrMsgHistory    = "Failed to load price history"
	ErrMsgIndicators = "Failed to load technical indicators"
	ErrMsgPrediction = "Prediction failed"
	ErrMsgSignal     = "Trade signal failed"
	ErrMsgPaperTrade = "Paper trading failed"
	ErrMsgPortfolio  = "Portfolio optimization failed"
	ErrMsgRisk       = "Failed to load risk metrics"
	ErrMsgBacktest   = "Backtest failed"
)

// Command ids handled by Execute in addition to the palette catalog.
const (
	CmdRefresh  = "refresh"
	CmdRisk     = "risk"
	CmdOptimize = "optimize"
	CmdBacktest = "backtest"
)

// ErrUnknownCommand is returned by Execute for ids it does not handle.
var ErrUnknownCommand = errors.New("unknown command")

// observe records metrics for one request.
func (s *Scheduler) observe(op, symbol string, start time.Time, err error) {
	s.metrics.ObserveRequest(op, symbol, time.Since(start), err)
	if err != nil {
		s.log.Warn().Err(err).Str("op", op).Str("symbol", symbol).Msg("request failed")
	}
}

// fail sets msg as the session error unless ctx was cancelled.
func (s *Scheduler) fail(ctx context.Context, msg string) {
	if ctx.Err() != nil {
		return
	}
	s.update(func(ss *Session) bool {
		ss.Error = msg
		return true
	})
}

// failFor is fail for a read whose result belongs to symbol; it is dropped if
// the symbol changed while the request was in flight.
func (s *Scheduler) failFor(ctx context.Context, symbol, msg string) {
	if ctx.Err() != nil {
		return
	}
	s.update(func(ss *Session) bool {
		if ss.Symbol != symbol {
			return false
		}
		ss.Error = msg
		return true
	})
}

// FetchHistory replaces the price history of the current symbol.
func (s *Scheduler) FetchHistory(ctx context.Context) {
	symbol := s.Snapshot().Symbol
	start := time.Now()
	hist, err := s.fetcher.FetchHistory(ctx, symbol)
	s.observe("history", symbol, start, err)
	if err != nil {
		s.failFor(ctx, symbol, ErrMsgHistory)
		return
	}
	s.update(func(ss *Session) bool {
		if ss.Symbol != symbol {
			return false
		}
		ss.History = hist
		ss.Error = ""
		return true
	})
	s.metrics.RecordLastPrice(symbol, calculator.CurrentPrice(hist))
}

// FetchIndicators replaces the technical indicators of the current symbol.
func (s *Scheduler) FetchIndicators(ctx context.Context) {
	symbol := s.Snapshot().Symbol
	start := time.Now()
	ind, err := s.fetcher.FetchIndicators(ctx, symbol)
	s.observe("indicators", symbol, start, err)
	if err != nil {
		s.failFor(ctx, symbol, ErrMsgIndicators)
		return
	}
	s.update(func(ss *Session) bool {
		if ss.Symbol != symbol {
			return false
		}
		ss.Indicators = ind
		ss.Error = ""
		return true
	})
}

// FetchRisk replaces the risk metrics of the current symbol.
func (s *Scheduler) FetchRisk(ctx context.Context) {
	symbol := s.Snapshot().Symbol
	start := time.Now()
	risk, err := s.fetcher.RiskMetrics(ctx, symbol)
	s.observe("risk", symbol, start, err)
	if err != nil {
		s.failFor(ctx, symbol, ErrMsgRisk)
		return
	}
	s.update(func(ss *Session) bool {
		if ss.Symbol != symbol {
			return false
		}
		ss.Risk = risk
		ss.Error = ""
		return true
	})
}

// Refresh runs one base cycle: history and indicators concurrently, then
// stamps LastUpdated.
func (s *Scheduler) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.FetchHistory(ctx)
	}()
	go func() {
		defer wg.Done()
		s.FetchIndicators(ctx)
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return
	}
	var snap Session
	s.update(func(ss *Session) bool {
		ss.LastUpdated = s.now()
		snap = *ss
		return true
	})
	s.metrics.RecordRefresh()
	if err := s.recorder.RecordRefresh(&recorder.RefreshEvent{
		SessionID:       snap.ID,
		Symbol:          snap.Symbol,
		HistoryPoints:   len(snap.History),
		IndicatorPoints: len(snap.Indicators),
		LastPrice:       calculator.CurrentPrice(snap.History),
		Error:           snap.Error,
	}); err != nil {
		s.log.Error().Err(err).Msg("record refresh")
	}
}

// beginManual marks a manual operation as the latest one and returns its sequence number.
func (s *Scheduler) beginManual(action string) uint64 {
	var seq uint64
	s.update(func(ss *Session) bool {
		s.manualSeq++
		seq = s.manualSeq
		ss.Loading = true
		ss.Error = ""
		ss.Pulse = Pulse{Action: action, Until: s.now().Add(s.opts.Pulse)}
		return true
	})
	return seq
}

// endManual clears Loading if seq is still the latest manual operation.
func (s *Scheduler) endManual(seq uint64) {
	s.update(func(ss *Session) bool {
		if s.manualSeq != seq || !ss.Loading {
			return false
		}
		ss.Loading = false
		return true
	})
}

func (s *Scheduler) symbolOr(symbol string) string {
	if symbol = NormalizeSymbol(symbol); symbol != "" {
		return symbol
	}
	return s.Snapshot().Symbol
}

// RunPrediction requests a forecast and, on success, refreshes the history.
// An empty symbol means the current one; horizon <= 0 means 1.
func (s *Scheduler) RunPrediction(ctx context.Context, symbol string, horizon int) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	symbol = s.symbolOr(symbol)
	seq := s.beginManual(palette.CmdPredict)
	defer s.endManual(seq)

	if err := s.predict(ctx, symbol, horizon, false); err != nil {
		return
	}
	s.FetchHistory(ctx)
}

// predict issues one forecast request. Background predictions for a symbol that
// is no longer current are dropped.
func (s *Scheduler) predict(ctx context.Context, symbol string, horizon int, background bool) error {
	start := time.Now()
	pred, err := s.fetcher.Predict(ctx, symbol, horizon)
	s.observe("predict", symbol, start, err)
	if err != nil {
		if background {
			s.failFor(ctx, symbol, ErrMsgPrediction)
		} else {
			s.fail(ctx, ErrMsgPrediction)
		}
		return err
	}
	if pred.Symbol == "" {
		pred.Symbol = symbol
	}

	applied := false
	s.update(func(ss *Session) bool {
		if background && ss.Symbol != symbol {
			return false
		}
		ss.Prediction = pred
		ss.PredictionHorizon = horizon
		applied = true
		return true
	})
	if !applied {
		return nil
	}
	if err := s.recorder.RecordPrediction(&recorder.PredictionEvent{
		SessionID:  s.id,
		Symbol:     symbol,
		Horizon:    horizon,
		Prediction: pred,
		Background: background,
	}); err != nil {
		s.log.Error().Err(err).Msg("record prediction")
	}
	return nil
}

// RunTradeSignal requests a trade recommendation.
func (s *Scheduler) RunTradeSignal(ctx context.Context, symbol string, horizon int) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	symbol = s.symbolOr(symbol)
	seq := s.beginManual(palette.CmdSignal)
	defer s.endManual(seq)

	start := time.Now()
	sig, err := s.fetcher.TradeSignal(ctx, symbol, horizon)
	s.observe("signal", symbol, start, err)
	if err != nil {
		s.fail(ctx, ErrMsgSignal)
		return
	}
	if sig.Symbol == "" {
		sig.Symbol = symbol
	}
	s.update(func(ss *Session) bool {
		ss.Signal = sig
		return true
	})

	conf := strategy.NormalizeConfidencePtr(sig.Confidence)
	if err := s.recorder.RecordSignal(&recorder.SignalEvent{
		SessionID:       s.id,
		Symbol:          symbol,
		Horizon:         horizon,
		Signal:          sig,
		ConfidenceLabel: conf.Label,
	}); err != nil {
		s.log.Error().Err(err).Msg("record signal")
	}
}

// RunPaperTrade runs the paper-trading simulation over days (<= 0 means 10).
func (s *Scheduler) RunPaperTrade(ctx context.Context, symbol string, days int) {
	if days <= 0 {
		days = DefaultPaperTradeDays
	}
	symbol = s.symbolOr(symbol)
	seq := s.beginManual(palette.CmdPaper)
	defer s.endManual(seq)

	start := time.Now()
	res, err := s.fetcher.PaperTrade(ctx, symbol, days)
	s.observe("paper", symbol, start, err)
	if err != nil {
		s.fail(ctx, ErrMsgPaperTrade)
		return
	}
	if res.Symbol == "" {
		res.Symbol = symbol
	}
	s.update(func(ss *Session) bool {
		ss.PaperTrade = res
		return true
	})

	var final float64
	if curve := calculator.SimulateEquityCurve(res.Trades, s.opts.StartingEquity); len(curve) > 0 {
		final = curve[len(curve)-1].Equity
	}
	if err := s.recorder.RecordPaperTrade(&recorder.PaperTradeEvent{
		SessionID:      s.id,
		Symbol:         symbol,
		Days:           days,
		Result:         res,
		SimulatedFinal: final,
	}); err != nil {
		s.log.Error().Err(err).Msg("record paper trade")
	}
}

// RunPortfolioOptimize requests a minimum-variance allocation. An empty list
// means the configured watchlist.
func (s *Scheduler) RunPortfolioOptimize(ctx context.Context, symbols []string) {
	if len(symbols) == 0 {
		symbols = s.opts.Watchlist
	}
	normalized := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if sym = NormalizeSymbol(sym); sym != "" {
			normalized = append(normalized, sym)
		}
	}
	seq := s.beginManual(CmdOptimize)
	defer s.endManual(seq)
	if len(normalized) < 2 {
		s.log.Warn().Strs("symbols", normalized).Msg("portfolio optimization needs at least two symbols")
		s.fail(ctx, ErrMsgPortfolio)
		return
	}

	start := time.Now()
	alloc, err := s.fetcher.OptimizePortfolio(ctx, normalized)
	s.observe("portfolio", strings.Join(normalized, ","), start, err)
	if err != nil {
		s.fail(ctx, ErrMsgPortfolio)
		return
	}
	if len(alloc.Symbols) == 0 {
		alloc.Symbols = normalized
	}
	s.update(func(ss *Session) bool {
		ss.Portfolio = alloc
		return true
	})
}

// RunBacktest replays the model's calls over the symbol's history, starting from
// the configured equity. An empty symbol means the current one.
func (s *Scheduler) RunBacktest(ctx context.Context, symbol string) {
	symbol = s.symbolOr(symbol)
	seq := s.beginManual(CmdBacktest)
	defer s.endManual(seq)

	start := time.Now()
	res, err := s.fetcher.Backtest(ctx, symbol, s.opts.StartingEquity)
	s.observe("backtest", symbol, start, err)
	if err != nil {
		s.fail(ctx, ErrMsgBacktest)
		return
	}
	if res.Symbol == "" {
		res.Symbol = symbol
	}
	s.update(func(ss *Session) bool {
		ss.Backtest = res
		return true
	})
	s.log.Info().Str("symbol", symbol).Float64("final_equity", res.FinalEquity).
		Float64("sharpe", res.Sharpe).Msg("backtest complete")
}

// Execute dispatches a command id from the palette, a key binding or the API.
func (s *Scheduler) Execute(ctx context.Context, id string) error {
	s.log.Debug().Str("command", id).Msg("execute")
	switch id {
	case palette.CmdPredict:
		s.RunPrediction(ctx, "", s.opts.Horizon)
	case palette.CmdSignal:
		s.RunTradeSignal(ctx, "", s.opts.Horizon)
	case palette.CmdPaper:
		s.RunPaperTrade(ctx, "", s.opts.PaperTradeDays)
	case palette.CmdHistory:
		s.pulse(palette.CmdHistory)
		s.FetchHistory(ctx)
	case CmdRefresh:
		s.pulse(CmdRefresh)
		s.Refresh(ctx)
	case CmdRisk:
		s.pulse(CmdRisk)
		s.FetchRisk(ctx)
	case CmdOptimize:
		s.RunPortfolioOptimize(ctx, nil)
	case CmdBacktest:
		s.RunBacktest(ctx, "")
	default:
		symbol, ok := palette.ParseGo(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCommand, id)
		}
		s.SetSymbol(symbol)
		s.Refresh(ctx)
	}
	return nil
}

func (s *Scheduler) pulse(action string) {
	s.update(func(ss *Session) bool {
		ss.Pulse = Pulse{Action: action, Until: s.now().Add(s.opts.Pulse)}
		return true
	})
}
