package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"QuantDash/internal/calculator"
	"QuantDash/internal/collector"
	"QuantDash/internal/model"
	"QuantDash/internal/recorder"
)

const testUnit = 10 * time.Millisecond

func newTestScheduler(t *testing.T, f collector.Fetcher, opts Options) *Scheduler {
	t.Helper()
	if opts.Symbol == "" {
		opts.Symbol = "AAPL"
	}
	s := NewScheduler(context.Background(), f, nil, nil, zerolog.Nop(), opts)
	s.unit = testUnit
	t.Cleanup(s.Stop)
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// gatedFetcher blocks selected operations until their gate is closed.
type gatedFetcher struct {
	*collector.MockFetcher
	historyGate chan struct{}
	signalGate  chan struct{}
	paperGate   chan struct{}

	historyWaiting atomic.Int32
	signalWaiting  atomic.Int32

	mu       sync.Mutex
	horizons []int
	days     []int
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{MockFetcher: collector.NewMockFetcher(100)}
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedFetcher) FetchHistory(ctx context.Context, symbol string) ([]model.HistoryPoint, error) {
	g.historyWaiting.Add(1)
	if err := wait(ctx, g.historyGate); err != nil {
		return nil, err
	}
	return g.MockFetcher.FetchHistory(ctx, symbol)
}

func (g *gatedFetcher) Predict(ctx context.Context, symbol string, horizon int) (*model.Prediction, error) {
	g.mu.Lock()
	g.horizons = append(g.horizons, horizon)
	g.mu.Unlock()
	return g.MockFetcher.Predict(ctx, symbol, horizon)
}

func (g *gatedFetcher) TradeSignal(ctx context.Context, symbol string, horizon int) (*model.TradeSignal, error) {
	g.signalWaiting.Add(1)
	if err := wait(ctx, g.signalGate); err != nil {
		return nil, err
	}
	return g.MockFetcher.TradeSignal(ctx, symbol, horizon)
}

func (g *gatedFetcher) PaperTrade(ctx context.Context, symbol string, days int) (*model.PaperTradeResult, error) {
	g.mu.Lock()
	g.days = append(g.days, days)
	g.mu.Unlock()
	if err := wait(ctx, g.paperGate); err != nil {
		return nil, err
	}
	return g.MockFetcher.PaperTrade(ctx, symbol, days)
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := newTestScheduler(t, collector.NewMockFetcher(100), Options{Symbol: " msft ", RefreshIntervalSeconds: 0, Theme: "neon"})
	snap := s.Snapshot()
	if snap.Symbol != "MSFT" {
		t.Errorf("symbol: %q", snap.Symbol)
	}
	if snap.RefreshIntervalSeconds != 1 {
		t.Errorf("interval should clamp to 1, got %d", snap.RefreshIntervalSeconds)
	}
	if snap.Theme != ThemeDark || snap.TimeRange != calculator.Range1M {
		t.Errorf("theme/range defaults: %s %s", snap.Theme, snap.TimeRange)
	}
	if snap.ID == "" {
		t.Error("session id should be set")
	}
	if !snap.LastUpdated.IsZero() || snap.Loading || snap.Error != "" {
		t.Errorf("fresh session not clean: %+v", snap)
	}
}

func TestSetters(t *testing.T) {
	s := newTestScheduler(t, collector.NewMockFetcher(100), Options{RefreshIntervalSeconds: 5})

	s.SetRefreshIntervalSeconds(0)
	if got := s.Snapshot().RefreshIntervalSeconds; got != 1 {
		t.Errorf("clamp low: %d", got)
	}
	s.SetRefreshIntervalSeconds(120)
	if got := s.Snapshot().RefreshIntervalSeconds; got != 60 {
		t.Errorf("clamp high: %d", got)
	}

	s.SetSymbol("  tsla ")
	if got := s.Snapshot().Symbol; got != "TSLA" {
		t.Errorf("symbol: %q", got)
	}
	s.SetSymbol("   ")
	if got := s.Snapshot().Symbol; got != "TSLA" {
		t.Errorf("blank symbol should be ignored, got %q", got)
	}

	s.ToggleTheme()
	if got := s.Snapshot().Theme; got != ThemeLight {
		t.Errorf("toggle: %s", got)
	}
	s.SetTheme("neon")
	if got := s.Snapshot().Theme; got != ThemeLight {
		t.Errorf("unknown theme should be ignored, got %s", got)
	}

	s.SetTimeRange(calculator.Range1Y)
	s.SetTimeRange("5Y")
	if got := s.Snapshot().TimeRange; got != calculator.Range1Y {
		t.Errorf("time range: %s", got)
	}
}

func TestSetSymbol_DoesNotFetch(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{})
	s.SetSymbol("NVDA")
	if m.Calls("history") != 0 || m.Calls("indicators") != 0 {
		t.Error("SetSymbol must not fetch")
	}
}

func TestFetchHistory_FailureRetainsData(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{})
	ctx := context.Background()

	s.FetchHistory(ctx)
	first := s.Snapshot().History
	if len(first) == 0 {
		t.Fatal("expected history")
	}

	m.SetFail("history", true)
	s.FetchHistory(ctx)
	snap := s.Snapshot()
	if snap.Error != ErrMsgHistory {
		t.Errorf("error: %q", snap.Error)
	}
	if len(snap.History) != len(first) {
		t.Error("previous history should be retained")
	}

	m.SetFail("history", false)
	s.FetchHistory(ctx)
	if got := s.Snapshot().Error; got != "" {
		t.Errorf("success should clear error, got %q", got)
	}
}

func TestRefresh_IndependentFailures(t *testing.T) {
	m := collector.NewMockFetcher(100)
	m.SetFail("indicators", true)
	s := newTestScheduler(t, m, Options{})

	s.Refresh(context.Background())
	snap := s.Snapshot()
	if len(snap.History) == 0 {
		t.Error("history should load despite indicator failure")
	}
	if len(snap.Indicators) != 0 {
		t.Error("indicators should stay empty")
	}
	if snap.LastUpdated.IsZero() {
		t.Error("LastUpdated should be stamped")
	}
	// Last write wins: a later history success clears the indicator error.
	if snap.Error != "" && snap.Error != ErrMsgIndicators {
		t.Errorf("unexpected error %q", snap.Error)
	}
}

func TestFetch_DiscardsStaleSymbol(t *testing.T) {
	g := newGatedFetcher()
	g.historyGate = make(chan struct{})
	s := newTestScheduler(t, g, Options{Symbol: "AAPL"})

	done := make(chan struct{})
	go func() {
		s.FetchHistory(context.Background())
		close(done)
	}()
	waitFor(t, "history request", func() bool { return g.historyWaiting.Load() == 1 })
	s.SetSymbol("MSFT")
	close(g.historyGate)
	<-done

	if len(s.Snapshot().History) != 0 {
		t.Error("history for a previous symbol must be discarded")
	}
}

func TestManualActions_Failure(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{})
	ctx := context.Background()

	s.RunTradeSignal(ctx, "", 1)
	prev := s.Snapshot().Signal
	if prev == nil {
		t.Fatal("expected signal")
	}

	tests := []struct {
		op   string
		run  func()
		want string
	}{
		{"predict", func() { s.RunPrediction(ctx, "", 1) }, ErrMsgPrediction},
		{"signal", func() { s.RunTradeSignal(ctx, "", 1) }, ErrMsgSignal},
		{"paper", func() { s.RunPaperTrade(ctx, "", 10) }, ErrMsgPaperTrade},
		{"portfolio", func() { s.RunPortfolioOptimize(ctx, []string{"a", "b"}) }, ErrMsgPortfolio},
		{"risk", func() { s.FetchRisk(ctx) }, ErrMsgRisk},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			m.SetFail(tt.op, true)
			defer m.SetFail(tt.op, false)
			tt.run()
			snap := s.Snapshot()
			if snap.Error != tt.want {
				t.Errorf("error: got %q, want %q", snap.Error, tt.want)
			}
			if snap.Loading {
				t.Error("loading must be cleared")
			}
		})
	}
	if s.Snapshot().Signal != prev {
		t.Error("failed signal must keep the previous result")
	}
}

func TestRunPrediction_RefreshesHistory(t *testing.T) {
	g := newGatedFetcher()
	s := newTestScheduler(t, g, Options{})

	s.RunPrediction(context.Background(), "", 0)
	snap := s.Snapshot()
	if snap.Prediction == nil || snap.Prediction.Symbol != "AAPL" {
		t.Fatalf("prediction: %+v", snap.Prediction)
	}
	if g.Calls("history") != 1 {
		t.Errorf("expected one history refresh, got %d", g.Calls("history"))
	}
	if len(g.horizons) != 1 || g.horizons[0] != 1 {
		t.Errorf("horizon should default to 1, got %v", g.horizons)
	}
	if snap.Loading {
		t.Error("loading should be cleared")
	}
}

func TestRunPaperTrade_DefaultDays(t *testing.T) {
	g := newGatedFetcher()
	s := newTestScheduler(t, g, Options{})

	s.RunPaperTrade(context.Background(), "tsla", -3)
	if len(g.days) != 1 || g.days[0] != 10 {
		t.Errorf("days should default to 10, got %v", g.days)
	}
	if pt := s.Snapshot().PaperTrade; pt == nil || pt.Symbol != "TSLA" {
		t.Errorf("paper trade: %+v", pt)
	}
}

func TestLoading_OnlyLatestManualClears(t *testing.T) {
	g := newGatedFetcher()
	g.signalGate = make(chan struct{})
	g.paperGate = make(chan struct{})
	s := newTestScheduler(t, g, Options{})
	ctx := context.Background()

	aDone := make(chan struct{})
	go func() {
		s.RunTradeSignal(ctx, "", 1)
		close(aDone)
	}()
	waitFor(t, "signal started", func() bool { return g.signalWaiting.Load() == 1 })

	bDone := make(chan struct{})
	go func() {
		s.RunPaperTrade(ctx, "", 10)
		close(bDone)
	}()
	waitFor(t, "paper started", func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return len(g.days) == 1
	})

	close(g.signalGate)
	<-aDone
	if !s.Snapshot().Loading {
		t.Fatal("older operation must not clear loading while a newer one runs")
	}

	close(g.paperGate)
	<-bDone
	if s.Snapshot().Loading {
		t.Fatal("latest operation should clear loading")
	}
}

func TestPulse(t *testing.T) {
	s := newTestScheduler(t, collector.NewMockFetcher(100), Options{})
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.RunTradeSignal(context.Background(), "", 1)
	snap := s.Snapshot()
	if action, ok := snap.ActivePulse(base.Add(100 * time.Millisecond)); !ok || action != "signal" {
		t.Errorf("expected signal pulse, got %q %v", action, ok)
	}
	if _, ok := snap.ActivePulse(base.Add(600 * time.Millisecond)); ok {
		t.Error("pulse should expire after 600ms")
	}
}

func TestExecute(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{Watchlist: []string{"AAPL", "MSFT"}})
	ctx := context.Background()

	if err := s.Execute(ctx, "go:tsla"); err != nil {
		t.Fatalf("go: %v", err)
	}
	snap := s.Snapshot()
	if snap.Symbol != "TSLA" || len(snap.History) == 0 || snap.LastUpdated.IsZero() {
		t.Errorf("go command should switch and refresh: %+v", snap)
	}

	for _, id := range []string{"predict", "signal", "paper", "history", "risk", "optimize", "refresh"} {
		if err := s.Execute(ctx, id); err != nil {
			t.Errorf("%s: %v", id, err)
		}
	}
	snap = s.Snapshot()
	if snap.Prediction == nil || snap.Signal == nil || snap.PaperTrade == nil || snap.Risk == nil || snap.Portfolio == nil {
		t.Errorf("expected all results populated: %+v", snap)
	}

	if err := s.Execute(ctx, "launch"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
	if err := s.Execute(ctx, "go:"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand for empty go, got %v", err)
	}
}

func TestTimers_BaseTickAndPredictionNoop(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{AutoRefresh: true, RefreshIntervalSeconds: 1})
	s.Start()

	waitFor(t, "base ticks", func() bool { return m.Calls("history") >= 2 && m.Calls("indicators") >= 2 })
	waitFor(t, "last updated", func() bool { return !s.Snapshot().LastUpdated.IsZero() })
	time.Sleep(4 * testUnit)
	if got := m.Calls("predict"); got != 0 {
		t.Errorf("prediction timer must be a no-op before any prediction, got %d calls", got)
	}
	if s.Snapshot().Loading {
		t.Error("background ticks must not set loading")
	}
}

func TestTimers_PredictionReruns(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{AutoRefresh: true, RefreshIntervalSeconds: 1})
	s.Start()

	s.RunPrediction(context.Background(), "", 2)
	waitFor(t, "background prediction", func() bool { return m.Calls("predict") >= 3 })
	snap := s.Snapshot()
	if snap.Loading {
		t.Error("background predictions must not set loading")
	}
	if snap.PredictionHorizon != 2 {
		t.Errorf("horizon should be reused, got %d", snap.PredictionHorizon)
	}
}

func TestTimers_BackgroundPredictionKeepsLoading(t *testing.T) {
	g := newGatedFetcher()
	g.signalGate = make(chan struct{})
	s := newTestScheduler(t, g, Options{AutoRefresh: true, RefreshIntervalSeconds: 1})
	s.RunPrediction(context.Background(), "", 1)
	s.Start()

	done := make(chan struct{})
	go func() {
		s.RunTradeSignal(context.Background(), "", 1)
		close(done)
	}()
	waitFor(t, "background prediction", func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return len(g.horizons) >= 3
	})
	if !s.Snapshot().Loading {
		t.Error("background prediction must not clear a manual operation's loading")
	}
	close(g.signalGate)
	<-done
}

func TestTimers_TeardownOnAutoRefreshOff(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{AutoRefresh: true, RefreshIntervalSeconds: 1})
	s.Start()
	waitFor(t, "first tick", func() bool { return m.Calls("history") >= 1 })

	s.SetAutoRefresh(false)
	if s.TimersActive() {
		t.Fatal("timers should be removed")
	}
	time.Sleep(2 * testUnit) // let an already dispatched tick finish
	before := m.Calls("history")
	time.Sleep(4 * predictionFactor * testUnit)
	if after := m.Calls("history"); after != before {
		t.Errorf("no fetch expected after teardown, got %d -> %d", before, after)
	}

	s.SetAutoRefresh(true)
	if !s.TimersActive() {
		t.Fatal("timers should be reinstalled")
	}
	waitFor(t, "ticks resume", func() bool { return m.Calls("history") > before })
}

func TestTimers_RebuildOnIntervalChange(t *testing.T) {
	s := newTestScheduler(t, collector.NewMockFetcher(100), Options{AutoRefresh: true, RefreshIntervalSeconds: 5})
	s.Start()
	s.timerMu.Lock()
	firstBase, installs := s.baseID, s.installs
	s.timerMu.Unlock()

	s.SetRefreshIntervalSeconds(5)
	s.SetRefreshIntervalSeconds(7)

	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.installs != installs+1 {
		t.Errorf("expected exactly one rebuild, got %d", s.installs-installs)
	}
	if s.baseID == firstBase {
		t.Error("base timer should be replaced")
	}
	if n := len(s.cron.Entries()); n != 2 {
		t.Errorf("expected 2 cron entries, got %d", n)
	}
}

func TestStop_ReleasesTimers(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{AutoRefresh: true, RefreshIntervalSeconds: 1})
	sub := s.Subscribe()
	s.Start()
	waitFor(t, "first tick", func() bool { return m.Calls("history") >= 1 })

	s.Stop()
	if s.TimersActive() {
		t.Fatal("timers should be removed on stop")
	}
	before := m.Calls("history")
	time.Sleep(4 * predictionFactor * testUnit)
	if after := m.Calls("history"); after != before {
		t.Errorf("no fetch expected after stop, got %d -> %d", before, after)
	}

	// Drain, then expect the channel to be closed.
	for range sub {
	}
	s.Stop()
}

func TestSubscribe(t *testing.T) {
	s := newTestScheduler(t, collector.NewMockFetcher(100), Options{})
	ch := s.Subscribe()

	s.SetSymbol("IBM")
	s.SetSymbol("ORCL")
	select {
	case snap := <-ch:
		if snap.Symbol != "ORCL" {
			t.Errorf("expected latest snapshot, got %s", snap.Symbol)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	s.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

type countingRecorder struct {
	recorder.NoopRecorder
	predictions, signals, papers, refreshes atomic.Int32
}

func (c *countingRecorder) RecordPrediction(*recorder.PredictionEvent) error {
	c.predictions.Add(1)
	return nil
}
func (c *countingRecorder) RecordSignal(*recorder.SignalEvent) error {
	c.signals.Add(1)
	return nil
}
func (c *countingRecorder) RecordPaperTrade(*recorder.PaperTradeEvent) error {
	c.papers.Add(1)
	return nil
}
func (c *countingRecorder) RecordRefresh(*recorder.RefreshEvent) error {
	c.refreshes.Add(1)
	return nil
}

func TestJournal(t *testing.T) {
	m := collector.NewMockFetcher(100)
	rec := &countingRecorder{}
	s := NewScheduler(context.Background(), m, rec, nil, zerolog.Nop(), Options{Symbol: "AAPL"})
	defer s.Stop()
	ctx := context.Background()

	s.RunPrediction(ctx, "", 1)
	s.RunTradeSignal(ctx, "", 1)
	s.RunPaperTrade(ctx, "", 2)
	s.Refresh(ctx)
	m.SetFail("signal", true)
	s.RunTradeSignal(ctx, "", 1)

	if rec.predictions.Load() != 1 || rec.signals.Load() != 1 || rec.papers.Load() != 1 || rec.refreshes.Load() != 1 {
		t.Errorf("unexpected journal counts: p=%d s=%d t=%d r=%d",
			rec.predictions.Load(), rec.signals.Load(), rec.papers.Load(), rec.refreshes.Load())
	}
}

func TestView(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sess := Session{
		Symbol:      "AAPL",
		TimeRange:   calculator.Range1W,
		LastUpdated: now.Add(-90 * time.Second),
		History: []model.HistoryPoint{
			{Date: model.MustParseDate("2024-01-01"), Price: 90},
			{Date: model.MustParseDate("2024-02-28"), Price: 100},
			{Date: model.MustParseDate("2024-02-29"), Price: 110},
		},
		Signal:     &model.TradeSignal{Signal: model.SignalBuy, Confidence: model.Float(1.7)},
		PaperTrade: &model.PaperTradeResult{Trades: []model.Trade{{Action: model.ActionBuy, Price: 100, Quantity: 1}}},
	}
	v := sess.Derive(now, 1000)
	if len(v.Filtered) != 2 {
		t.Errorf("filtered: %d points", len(v.Filtered))
	}
	if v.CurrentPrice != 110 || v.ChangePercent != 10 {
		t.Errorf("price/change: %v %v", v.CurrentPrice, v.ChangePercent)
	}
	if v.LastUpdatedText != "1m ago" {
		t.Errorf("relative: %q", v.LastUpdatedText)
	}
	if v.Confidence == nil || v.Confidence.Score != 1 || v.Confidence.Label != "High" {
		t.Errorf("confidence: %+v", v.Confidence)
	}
	if len(v.EquityCurve) != 1 || v.EquityCurve[0].Equity != 900 {
		t.Errorf("equity: %+v", v.EquityCurve)
	}
}

func TestRunPortfolioOptimize_Watchlist(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{Watchlist: []string{" msft", "aapl", ""}})
	ctx := context.Background()

	s.RunPortfolioOptimize(ctx, nil)
	snap := s.Snapshot()
	if snap.Portfolio == nil || len(snap.Portfolio.Symbols) != 2 || snap.Portfolio.Symbols[0] != "MSFT" {
		t.Fatalf("portfolio: %+v", snap.Portfolio)
	}

	s.RunPortfolioOptimize(ctx, []string{"TSLA"})
	snap = s.Snapshot()
	if snap.Error != ErrMsgPortfolio || snap.Loading {
		t.Errorf("single symbol: error %q loading %v", snap.Error, snap.Loading)
	}
	if m.Calls("portfolio") != 1 {
		t.Errorf("single symbol must not reach the service, got %d calls", m.Calls("portfolio"))
	}
}

func TestRunTradeSignal_NullConfidence(t *testing.T) {
	m := collector.NewMockFetcher(100)
	m.Signal = &model.TradeSignal{Signal: model.SignalBuy}
	s := newTestScheduler(t, m, Options{})

	s.RunTradeSignal(context.Background(), "", 1)
	v := s.View()
	if v.Signal == nil || v.Confidence == nil {
		t.Fatalf("expected signal view, got %+v", v.Signal)
	}
	if v.Confidence.Score != 0 || v.Confidence.Label != "Low" {
		t.Errorf("missing confidence should normalize to 0/Low, got %+v", v.Confidence)
	}
}

func TestPredictionTick_RefreshesHistory(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{})

	s.predictionTick()
	if m.Calls("predict") != 0 {
		t.Fatal("tick without a prior prediction must not request one")
	}

	s.RunPrediction(context.Background(), "", 1)
	before := m.Calls("history")
	s.predictionTick()
	if m.Calls("predict") != 2 {
		t.Errorf("expected a background prediction, got %d calls", m.Calls("predict"))
	}
	if got := m.Calls("history"); got != before+1 {
		t.Errorf("background prediction should refresh history once, got %d new calls", got-before)
	}

	m.SetFail("predict", true)
	before = m.Calls("history")
	s.predictionTick()
	if m.Calls("history") != before {
		t.Error("failed background prediction must not refresh history")
	}
}

func TestRunBacktest(t *testing.T) {
	m := collector.NewMockFetcher(100)
	s := newTestScheduler(t, m, Options{StartingEquity: 5000})
	ctx := context.Background()

	if err := s.Execute(ctx, CmdBacktest); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Backtest == nil || snap.Backtest.Symbol != "AAPL" || snap.Loading {
		t.Fatalf("backtest: %+v loading=%v", snap.Backtest, snap.Loading)
	}
	if first := snap.Backtest.EquityCurve[0]; first < 4900 || first > 5100 {
		t.Errorf("curve should start near the configured equity, got %v", first)
	}
	if snap.Pulse.Action != CmdBacktest {
		t.Errorf("pulse: %q", snap.Pulse.Action)
	}

	prev := snap.Backtest
	m.SetFail("backtest", true)
	s.RunBacktest(ctx, "")
	snap = s.Snapshot()
	if snap.Error != ErrMsgBacktest || snap.Backtest != prev {
		t.Errorf("failure should keep the previous result: error %q", snap.Error)
	}
}
